package resilience

import (
	"context"
	"sync"
	"time"
)

// PauseGate is a shared "paused until" barrier. When a provider signals a
// rate limit, one caller arms the gate and every caller waits out the same
// window instead of sleeping independently.
type PauseGate struct {
	mu          sync.Mutex
	pausedUntil time.Time
	now         func() time.Time
}

func NewPauseGate() *PauseGate {
	return &PauseGate{now: time.Now}
}

// PauseFor arms the gate. A shorter pause never shrinks an active window.
func (g *PauseGate) PauseFor(d time.Duration) {
	if d <= 0 {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	until := g.now().Add(d)
	if until.After(g.pausedUntil) {
		g.pausedUntil = until
	}
}

// Wait blocks until the active pause window elapses or ctx is done.
// It returns immediately when the gate is not armed.
func (g *PauseGate) Wait(ctx context.Context) error {
	for {
		g.mu.Lock()
		remaining := g.pausedUntil.Sub(g.now())
		g.mu.Unlock()

		if remaining <= 0 {
			return nil
		}

		timer := time.NewTimer(remaining)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Paused reports whether the gate is currently armed.
func (g *PauseGate) Paused() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pausedUntil.After(g.now())
}
