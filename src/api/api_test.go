package api

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"light-dict/src/errs"
	"light-dict/src/session"
	"light-dict/src/windowing"
)

type invocation struct {
	kind, text, info string
	rect             windowing.Rect
}

type fakeEngine struct {
	toggles int
	invoked []invocation
	ocr     []string
	owner   int
	err     error
}

func (e *fakeEngine) Toggle() session.TriggerMode {
	e.toggles++
	return session.Popup
}

func (e *fakeEngine) Invoke(kind, text, info string, rect windowing.Rect) error {
	e.invoked = append(e.invoked, invocation{kind, text, info, rect})
	return e.err
}

func (e *fakeEngine) OCR(params string) error {
	e.ocr = append(e.ocr, params)
	return e.err
}

func (e *fakeEngine) Get(pid int, props []string) ([][]int32, error) {
	if pid != e.owner {
		return nil, errs.New(errs.CodeAccessDenied, "not the grant holder")
	}
	out := make([][]int32, len(props))
	for i := range props {
		out[i] = []int32{int32(i)}
	}
	return out, nil
}

type directLoop struct{}

func (directLoop) Call(_ context.Context, fn func()) error {
	fn()
	return nil
}

type stoppedLoop struct{}

func (stoppedLoop) Call(context.Context, func()) error { return context.Canceled }

func fixedPID(pid uint32) PIDResolver {
	return func(string) (uint32, error) { return pid, nil }
}

func TestServerForwardsCalls(t *testing.T) {
	e := &fakeEngine{}
	s := NewServer(e, directLoop{}, fixedPID(1))

	require.Nil(t, s.Toggle())
	require.Nil(t, s.Run("swift:echo", "hello", ""))
	require.Nil(t, s.RunAt("display", "text", "Title", []int32{1, 2, 3, 4}))
	require.Nil(t, s.OCR("-m line"))

	assert.Equal(t, 1, e.toggles)
	assert.Equal(t, []invocation{
		{"swift:echo", "hello", "", windowing.Rect{}},
		{"display", "text", "Title", windowing.Rect{X: 1, Y: 2, Width: 3, Height: 4}},
	}, e.invoked)
	assert.Equal(t, []string{"-m line"}, e.ocr)
}

func TestRunAtRejectsShortRect(t *testing.T) {
	e := &fakeEngine{}
	derr := NewServer(e, directLoop{}, fixedPID(1)).RunAt("popup", "x", "", []int32{1, 2})
	require.NotNil(t, derr)
	assert.Equal(t, errInvalidArgs, derr.Name)
	assert.Empty(t, e.invoked)
}

func TestGetChecksCallerPID(t *testing.T) {
	e := &fakeEngine{owner: 77}

	_, derr := NewServer(e, directLoop{}, fixedPID(5)).Get(":1.5", []string{"pointer"})
	require.NotNil(t, derr)
	assert.Equal(t, errAccessDenied, derr.Name)

	out, derr := NewServer(e, directLoop{}, fixedPID(77)).Get(":1.77", []string{"display", "pointer"})
	require.Nil(t, derr)
	assert.Equal(t, [][]int32{{0}, {1}}, out)

	unresolvable := func(string) (uint32, error) { return 0, errors.New("gone") }
	_, derr = NewServer(e, directLoop{}, unresolvable).Get(":1.9", nil)
	require.NotNil(t, derr)
	assert.Equal(t, errAccessDenied, derr.Name)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		name string
		code errs.Code
	}{
		{errs.New(errs.CodeAccessDenied, "no"), errAccessDenied, errs.CodeAccessDenied},
		{errs.New(errs.CodeInvalidArgs, "bad"), errInvalidArgs, errs.CodeInvalidArgs},
		{errs.New(errs.CodeBusy, "Busy, please retry"), errFailed, errs.CodeExecution},
		{errors.New("plain"), errFailed, errs.CodeExecution},
	}
	for _, tt := range tests {
		derr := toDBusError(tt.err)
		require.NotNil(t, derr)
		assert.Equal(t, tt.name, derr.Name)
		assert.Equal(t, tt.err.Error(), derr.Error())

		back := fromDBusError(*derr)
		assert.Equal(t, tt.code, errs.CodeOf(back))
		assert.Equal(t, tt.err.Error(), back.Error())
	}
	assert.Nil(t, toDBusError(nil))
	assert.NoError(t, fromDBusError(nil))
	assert.Equal(t, errs.CodeUnavailable, errs.CodeOf(fromDBusError(errors.New("dial"))))
}

func TestStoppedLoopFails(t *testing.T) {
	derr := NewServer(&fakeEngine{}, stoppedLoop{}, fixedPID(1)).Toggle()
	require.NotNil(t, derr)
	assert.Equal(t, errFailed, derr.Name)
}

func TestEngineErrorsSurface(t *testing.T) {
	e := &fakeEngine{err: errs.New(errs.CodeInvalidArgs, "unknown kind")}
	derr := NewServer(e, directLoop{}, fixedPID(1)).Run("bogus", "x", "")
	require.NotNil(t, derr)
	assert.Equal(t, errInvalidArgs, derr.Name)
	assert.Equal(t, "unknown kind", derr.Error())
}

func TestRoundTripOverSessionBus(t *testing.T) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		t.Skipf("session bus unavailable: %v", err)
	}
	defer conn.Close()

	e := &fakeEngine{owner: os.Getpid()}
	unexport, err := Export(conn, NewServer(e, directLoop{}, BusPIDs(conn)))
	require.NoError(t, err)
	defer unexport()

	c := NewClient(conn, conn.Names()[0])
	ctx := context.Background()
	require.NoError(t, c.Toggle(ctx))
	require.NoError(t, c.RunAt(ctx, "popup", "word", "", windowing.Rect{X: 5, Y: 6, Width: 7, Height: 8}))

	out, err := c.Get(ctx, "display")
	require.NoError(t, err)
	assert.Equal(t, [][]int32{{0}}, out)

	e.owner = -1
	_, err = c.Get(ctx, "display")
	assert.Equal(t, errs.CodeAccessDenied, errs.CodeOf(err))

	assert.Equal(t, 1, e.toggles)
	assert.True(t, Running(conn, conn.Names()[0]))
}
