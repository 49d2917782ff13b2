package ocr

import (
	"log/slog"
	"sync"
)

// Grant records which process may use the privileged query surface. Only one
// pid holds it at a time.
type Grant struct {
	mu     sync.Mutex
	pid    int
	serial uint64
}

// Allow hands the grant to pid. The returned revoke releases it exactly once,
// and only if no later Allow took the grant over.
func (g *Grant) Allow(pid int) (revoke func()) {
	g.mu.Lock()
	g.serial++
	serial := g.serial
	g.pid = pid
	g.mu.Unlock()
	slog.Debug("screenshot grant allowed", "pid", pid)

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			if g.serial == serial {
				g.pid = 0
				slog.Debug("screenshot grant revoked", "pid", pid)
			}
		})
	}
}

// Holds reports whether pid currently holds the grant.
func (g *Grant) Holds(pid int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return pid > 0 && g.pid == pid
}
