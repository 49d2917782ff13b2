package singleinstance

import (
	"errors"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBus struct {
	owners   map[string]bool
	released []string
	fail     error
}

func (b *fakeBus) RequestName(name string, flags dbus.RequestNameFlags) (dbus.RequestNameReply, error) {
	if b.fail != nil {
		return 0, b.fail
	}
	if flags&dbus.NameFlagDoNotQueue == 0 {
		return 0, errors.New("expected DoNotQueue")
	}
	if b.owners[name] {
		return dbus.RequestNameReplyExists, nil
	}
	b.owners[name] = true
	return dbus.RequestNameReplyPrimaryOwner, nil
}

func (b *fakeBus) ReleaseName(name string) (dbus.ReleaseNameReply, error) {
	delete(b.owners, name)
	b.released = append(b.released, name)
	return dbus.ReleaseNameReplyReleased, nil
}

func TestSecondInstanceIsRejected(t *testing.T) {
	bus := &fakeBus{owners: map[string]bool{}}

	first, err := Acquire(bus, "org.lightdict.Engine")
	require.NoError(t, err)
	assert.Equal(t, "org.lightdict.Engine", first.Name())

	_, err = Acquire(bus, "org.lightdict.Engine")
	assert.ErrorIs(t, err, ErrRunning)

	require.NoError(t, first.Release())
	require.NoError(t, first.Release())
	assert.Equal(t, []string{"org.lightdict.Engine"}, bus.released)

	again, err := Acquire(bus, "org.lightdict.Engine")
	require.NoError(t, err)
	require.NoError(t, again.Release())
}

func TestRequestFailure(t *testing.T) {
	_, err := Acquire(&fakeBus{fail: errors.New("bus gone")}, "x.y")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRunning)
}

func TestSessionBusOwnership(t *testing.T) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		t.Skipf("session bus unavailable: %v", err)
	}
	defer conn.Close()

	o, err := Acquire(conn, "org.lightdict.Test.SingleInstance")
	require.NoError(t, err)
	defer o.Release()

	other, err := dbus.ConnectSessionBus()
	require.NoError(t, err)
	defer other.Close()
	_, err = Acquire(other, "org.lightdict.Test.SingleInstance")
	assert.ErrorIs(t, err, ErrRunning)
}
