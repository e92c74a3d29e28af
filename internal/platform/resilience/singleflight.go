package resilience

import "sync"

// SingleFlight collapses concurrent calls for the same key into one
// execution. The pandascore client keys flights by request URL so that
// worker-pool teams sharing an opponent do not each spend a provider
// request on the same page.
//
// The zero value is ready to use.
type SingleFlight struct {
	mu       sync.Mutex
	inflight map[string]*flight
}

type flight struct {
	done chan struct{}
	val  any
	err  error
}

// Do runs fn once per key among concurrent callers. Late callers block
// until the owner finishes and receive its result with dedup=true. The
// key is released when fn returns, so sequential calls each execute.
func (g *SingleFlight) Do(key string, fn func() (any, error)) (val any, err error, dedup bool) {
	g.mu.Lock()
	if existing, ok := g.inflight[key]; ok {
		g.mu.Unlock()
		<-existing.done
		return existing.val, existing.err, true
	}

	if g.inflight == nil {
		g.inflight = make(map[string]*flight)
	}
	owner := &flight{done: make(chan struct{})}
	g.inflight[key] = owner
	g.mu.Unlock()

	owner.val, owner.err = fn()

	g.mu.Lock()
	delete(g.inflight, key)
	g.mu.Unlock()
	close(owner.done)

	return owner.val, owner.err, false
}
