package x11

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"light-dict/src/windowing"
)

func TestWMClassTakesClassPart(t *testing.T) {
	assert.Equal(t, "Firefox", wmClass([]byte("Navigator\x00Firefox\x00")))
	assert.Equal(t, "xterm", wmClass([]byte("xterm")))
	assert.Equal(t, "", wmClass([]byte("\x00")))
}

func TestLiveDisplay(t *testing.T) {
	r, err := Connect()
	if err != nil {
		t.Skipf("no X display: %v", err)
	}
	defer r.Close()

	_, _, err = r.Pointer()
	require.NoError(t, err)
	w, h := r.ScreenSize()
	assert.Positive(t, w)
	assert.Positive(t, h)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, err = r.Events(ctx)
	require.NoError(t, err)
	_, err = r.Events(ctx)
	assert.Error(t, err, "second stream rejected")

	area := r.Area(windowing.Point{X: 1, Y: 1})
	assert.False(t, area.Empty())
	assert.Error(t, r.Move("no such light-dict window", windowing.Rect{X: 1, Y: 1}))
}
