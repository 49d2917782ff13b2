package worker

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolSubmitDropWhenBusy(t *testing.T) {
	p := New(1, 1)
	defer p.Close()

	release := make(chan struct{})
	started := make(chan struct{})
	require.True(t, p.Submit(func() { close(started); <-release }), "first submit should succeed")
	<-started

	// The worker is busy; one job fits the queue, the next must drop.
	ok2 := p.Submit(func() {})
	ok3 := p.Submit(func() {})
	assert.True(t, ok2)
	assert.False(t, ok3, "expected submit to drop due to full queue")
	close(release)
}

func TestPoolSurvivesPanickingJob(t *testing.T) {
	p := New(1, 2)

	var ran atomic.Bool
	require.True(t, p.Submit(func() { panic("boom") }))
	require.True(t, p.Submit(func() { ran.Store(true) }))
	p.Close()

	assert.True(t, ran.Load(), "worker should keep running after a panic")
}

func TestSubmitAfterCloseDrops(t *testing.T) {
	p := New(1, 1)
	p.Close()
	assert.False(t, p.Submit(func() {}))

	done := make(chan struct{})
	go func() { p.Close(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second Close should not block")
	}
}
