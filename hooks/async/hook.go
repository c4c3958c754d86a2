// Package asynchook moves hook calls off the request path.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    SelfHealEvery:   10, // sample logs: ~every 10th self-heal
//	    StoreErrorEvery: 1,  // log every fail-open
//	})
//
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	cache, _ := memocache.New(memocache.Options{
//	    Config: cfg,
//	    Hooks:  hooks, // or `raw` if you don’t want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/memocache"
)

type Hooks struct {
	inner   memocache.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

var _ memocache.Hooks = (*Hooks)(nil)

func New(inner memocache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events after Close are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped returns how many events were discarded because the queue was full or closed.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default: // drop
		h.dropped.Add(1)
	}
}

func (h *Hooks) Hit(id string)            { h.try(func() { h.inner.Hit(id) }) }
func (h *Hooks) Miss(id string)           { h.try(func() { h.inner.Miss(id) }) }
func (h *Hooks) Bypass(id string)         { h.try(func() { h.inner.Bypass(id) }) }
func (h *Hooks) SetRejected(k string)     { h.try(func() { h.inner.SetRejected(k) }) }
func (h *Hooks) VersionCreated(id string) { h.try(func() { h.inner.VersionCreated(id) }) }
func (h *Hooks) VersionBumped(id string)  { h.try(func() { h.inner.VersionBumped(id) }) }
func (h *Hooks) SelfHeal(k string, err error) {
	h.try(func() { h.inner.SelfHeal(k, err) })
}
func (h *Hooks) StoreError(id, op string, err error) {
	h.try(func() { h.inner.StoreError(id, op, err) })
}
func (h *Hooks) InvalidateError(id, op string, err error) {
	h.try(func() { h.inner.InvalidateError(id, op, err) })
}
