package memocache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	pr "github.com/unkn0wn-root/memocache/provider"
	"github.com/unkn0wn-root/memocache/provider/memory"
)

var errBackend = errors.New("backend down")

// spyProvider counts calls and fails the operations switched on.
type spyProvider struct {
	inner pr.Provider

	failGet, failSet, failAdd, failDel atomic.Bool
	rejectSet                          atomic.Bool

	gets, sets, adds, dels atomic.Int64
	lastTTL                atomic.Int64
}

var _ pr.Provider = (*spyProvider)(nil)

func newSpy() (*spyProvider, *memory.Memory) {
	m := memory.New(memory.Config{})
	return &spyProvider{inner: m}, m
}

func (p *spyProvider) calls() int64 {
	return p.gets.Load() + p.sets.Load() + p.adds.Load() + p.dels.Load()
}

func (p *spyProvider) failAll(on bool) {
	p.failGet.Store(on)
	p.failSet.Store(on)
	p.failAdd.Store(on)
	p.failDel.Store(on)
}

func (p *spyProvider) Get(ctx context.Context, key string) ([]byte, bool, error) {
	p.gets.Add(1)
	if p.failGet.Load() {
		return nil, false, errBackend
	}
	return p.inner.Get(ctx, key)
}

func (p *spyProvider) Set(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	p.sets.Add(1)
	p.lastTTL.Store(int64(ttl))
	if p.failSet.Load() {
		return false, errBackend
	}
	if p.rejectSet.Load() {
		return false, nil
	}
	return p.inner.Set(ctx, key, value, ttl)
}

func (p *spyProvider) Add(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	p.adds.Add(1)
	if p.failAdd.Load() {
		return false, errBackend
	}
	return p.inner.Add(ctx, key, value, ttl)
}

func (p *spyProvider) Del(ctx context.Context, key string) error {
	p.dels.Add(1)
	if p.failDel.Load() {
		return errBackend
	}
	return p.inner.Del(ctx, key)
}

func (p *spyProvider) Clear(ctx context.Context) error { return p.inner.Clear(ctx) }
func (p *spyProvider) Close(ctx context.Context) error { return p.inner.Close(ctx) }

// recHooks records events by name.
type recHooks struct {
	mu     sync.Mutex
	events map[string]int
	errs   []error
}

func newRecHooks() *recHooks { return &recHooks{events: make(map[string]int)} }

func (h *recHooks) add(name string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events[name]++
	if err != nil {
		h.errs = append(h.errs, err)
	}
}

func (h *recHooks) count(name string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.events[name]
}

func (h *recHooks) Hit(string)                            { h.add("hit", nil) }
func (h *recHooks) Miss(string)                           { h.add("miss", nil) }
func (h *recHooks) Bypass(string)                         { h.add("bypass", nil) }
func (h *recHooks) StoreError(_, op string, err error)    { h.add("store_error:"+op, err) }
func (h *recHooks) SelfHeal(_ string, err error)          { h.add("self_heal", err) }
func (h *recHooks) SetRejected(string)                    { h.add("set_rejected", nil) }
func (h *recHooks) VersionCreated(string)                 { h.add("version_created", nil) }
func (h *recHooks) VersionBumped(string)                  { h.add("version_bumped", nil) }
func (h *recHooks) InvalidateError(_, op string, e error) { h.add("invalidate_error:"+op, e) }

// recLogger keeps every line.
type recLogger struct {
	mu    sync.Mutex
	lines []logLine
}

type logLine struct {
	level, msg string
	fields     Fields
}

func (l *recLogger) log(level, msg string, f Fields) {
	l.mu.Lock()
	l.lines = append(l.lines, logLine{level, msg, f})
	l.mu.Unlock()
}

func (l *recLogger) Debug(msg string, f Fields) { l.log("debug", msg, f) }
func (l *recLogger) Info(msg string, f Fields)  { l.log("info", msg, f) }
func (l *recLogger) Warn(msg string, f Fields)  { l.log("warn", msg, f) }
func (l *recLogger) Error(msg string, f Fields) { l.log("error", msg, f) }

func (l *recLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, ln := range l.lines {
		if ln.level == level {
			n++
		}
	}
	return n
}

type testEnv struct {
	cache *Cache
	spy   *spyProvider
	mem   *memory.Memory
	hooks *recHooks
	log   *recLogger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	spy, mem := newSpy()
	env := &testEnv{spy: spy, mem: mem, hooks: newRecHooks(), log: &recLogger{}}
	c, err := New(Options{Provider: spy, Hooks: env.hooks, Logger: env.log})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	env.cache = c
	return env
}

// forum is a stand-in for a model type with memoized methods.
type forum struct {
	calls atomic.Int64
	fail  atomic.Bool
}

var errCompute = errors.New("compute failed")

// Total doubles x and counts invocations.
func (f *forum) Total(_ context.Context, b Bound) (int, error) {
	f.calls.Add(1)
	if f.fail.Load() {
		return 0, errCompute
	}
	return Value[int](b, "x") * 2, nil
}

// Page echoes its arguments.
func (f *forum) Page(_ context.Context, b Bound) ([]any, error) {
	f.calls.Add(1)
	return b.Values(), nil
}

func memoTotal(t *testing.T, c *Cache, f *forum, opts MemoOptions[int]) *Memoized[int] {
	t.Helper()
	if opts.Signature.Params == nil {
		opts.Signature.Params = []Param{Arg("x")}
	}
	m, err := Memoize(c, f.Total, opts)
	if err != nil {
		t.Fatalf("Memoize: %v", err)
	}
	return m
}
