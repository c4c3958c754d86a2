package memocache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	pr "github.com/unkn0wn-root/memocache/provider"
	"github.com/unkn0wn-root/memocache/provider/memory"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.DefaultTimeout != 300 || cfg.Threshold != 500 || cfg.BackendKind != "redis" {
		t.Fatalf("cfg=%+v", cfg)
	}
	if cfg.Timeout() != 5*time.Minute {
		t.Fatalf("timeout=%v", cfg.Timeout())
	}
	if (Config{}).withDefaults().BackendKind != "redis" {
		t.Fatalf("zero config should default to redis")
	}
	if (Config{DefaultTimeout: -1}).Timeout() != NoExpiry {
		t.Fatalf("negative timeout should mean no expiry")
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("CACHE_TYPE", "memory")
	t.Setenv("CACHE_DEFAULT_TIMEOUT", "60")
	t.Setenv("CACHE_KEY_PREFIX", "forum:")
	t.Setenv("CACHE_ARGS", "127.0.0.1:6390,ignored")
	t.Setenv("CACHE_OPTIONS", "pool_size:5,max_retries:1")
	t.Setenv("CACHE_NO_NULL_WARNING", "true")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BackendKind != "memory" || cfg.DefaultTimeout != 60 || cfg.KeyPrefix != "forum:" || !cfg.NoNullWarning {
		t.Fatalf("cfg=%+v", cfg)
	}
	if !reflect.DeepEqual(cfg.BackendArgs, []string{"127.0.0.1:6390", "ignored"}) {
		t.Fatalf("args=%v", cfg.BackendArgs)
	}
	if cfg.BackendOptions["pool_size"] != "5" || cfg.BackendOptions["max_retries"] != "1" {
		t.Fatalf("options=%v", cfg.BackendOptions)
	}
	if cfg.Threshold != 500 || cfg.RedisPort != 6379 {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yml")
	data := []byte("backend_kind: ristretto\nthreshold: 1000\nredis_db: 2\nbackend_options:\n  buffer_items: \"32\"\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BackendKind != "ristretto" || cfg.Threshold != 1000 || cfg.RedisDB != 2 || cfg.DefaultTimeout != 300 {
		t.Fatalf("cfg=%+v", cfg)
	}
	if cfg.BackendOptions["buffer_items"] != "32" {
		t.Fatalf("options=%v", cfg.BackendOptions)
	}

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Fatalf("missing file should fail")
	}
}

func TestUnknownBackendFailsFast(t *testing.T) {
	_, err := New(Options{Config: Config{BackendKind: "memcached"}})
	var ce *ConfigError
	if !errors.As(err, &ce) || !errors.Is(err, ErrUnknownBackend) {
		t.Fatalf("err=%v", err)
	}
}

func TestInvalidConfig(t *testing.T) {
	for name, cfg := range map[string]Config{
		"negative threshold": {BackendKind: "memory", Threshold: -1},
		"bad port":           {BackendKind: "redis", RedisPort: 70000},
		"bad option":         {BackendKind: "bigcache", BackendOptions: map[string]string{"shards": "many"}},
		"bad duration":       {BackendKind: "redis", BackendOptions: map[string]string{"dial_timeout": "soon"}},
		"filesystem no dir":  {BackendKind: "filesystem"},
		"bad redis url":      {BackendKind: "redis", RedisURL: "mysql://nope"},
	} {
		_, err := New(Options{Config: cfg})
		var ce *ConfigError
		if !errors.As(err, &ce) {
			t.Fatalf("%s: err=%v", name, err)
		}
	}
}

func TestNullBackendWarns(t *testing.T) {
	ctx := context.Background()
	log := &recLogger{}
	hooks := newRecHooks()
	c, err := New(Options{Config: Config{BackendKind: "null"}, Logger: log, Hooks: hooks})
	if err != nil {
		t.Fatal(err)
	}
	if log.count("warn") != 1 {
		t.Fatalf("warn lines=%d want 1", log.count("warn"))
	}

	f := &forum{}
	m := memoTotal(t, c, f, MemoOptions[int]{})
	_, _ = m.Call(ctx, Pos(1))
	_, _ = m.Call(ctx, Pos(1))
	if f.calls.Load() != 2 {
		t.Fatalf("null backend cached something: calls=%d", f.calls.Load())
	}
	if n := hooks.count("version_created"); n != 0 {
		t.Fatalf("null backend reported %d version creations", n)
	}

	quiet := &recLogger{}
	if _, err := New(Options{Config: Config{BackendKind: "null", NoNullWarning: true}, Logger: quiet}); err != nil {
		t.Fatal(err)
	}
	if quiet.count("warn") != 0 {
		t.Fatalf("NoNullWarning ignored")
	}
}

func TestBuiltinBackends(t *testing.T) {
	mr := miniredis.RunT(t)
	tests := map[string]Config{
		"simple":     {BackendKind: "simple", Threshold: 10},
		"memory":     {BackendKind: "memory"},
		"ristretto":  {BackendKind: "ristretto", BackendOptions: map[string]string{"buffer_items": "64"}},
		"bigcache":   {BackendKind: "bigcache", BackendOptions: map[string]string{"shards": "16", "life_window": "10m"}},
		"filesystem": {BackendKind: "filesystem", Dir: t.TempDir()},
		"redis args": {BackendKind: "redis", BackendArgs: []string{mr.Addr()}, KeyPrefix: "a:"},
		"redis url":  {BackendKind: "redis", RedisURL: "redis://" + mr.Addr() + "/0", KeyPrefix: "b:"},
	}
	for name, cfg := range tests {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			c, err := New(Options{Config: cfg})
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			defer c.Close(ctx)
			if c.Kind() != cfg.BackendKind {
				t.Fatalf("kind=%q", c.Kind())
			}

			f := &forum{}
			m := memoTotal(t, c, f, MemoOptions[int]{})
			for i := 0; i < 2; i++ {
				if v, err := m.Call(ctx, Pos(21)); err != nil || v != 42 {
					t.Fatalf("v=%d err=%v", v, err)
				}
				if w, ok := unwrapWaiter(c); ok {
					w.Wait()
				}
			}
			if f.calls.Load() != 1 {
				t.Fatalf("calls=%d want 1", f.calls.Load())
			}
		})
	}
}

type waiter interface{ Wait() }

// unwrapWaiter finds providers with buffered writes (ristretto).
func unwrapWaiter(c *Cache) (waiter, bool) {
	p := c.store
	if u, ok := p.(interface{ Unwrap() pr.Provider }); ok {
		p = u.Unwrap()
	}
	w, ok := p.(waiter)
	return w, ok
}

func TestRistrettoKindKeepsWarmEntries(t *testing.T) {
	ctx := context.Background()
	c, err := New(Options{Config: Config{BackendKind: "ristretto"}})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close(ctx)
	w, ok := unwrapWaiter(c)
	if !ok {
		t.Fatalf("ristretto provider should expose Wait")
	}

	f := &forum{}
	m := memoTotal(t, c, f, MemoOptions[int]{})
	const n = 30
	for i := 0; i < n; i++ {
		if _, err := m.Call(ctx, Pos(i)); err != nil {
			t.Fatal(err)
		}
	}
	w.Wait()
	for i := 0; i < n; i++ {
		if v, err := m.Call(ctx, Pos(i)); err != nil || v != i*2 {
			t.Fatalf("v=%d err=%v", v, err)
		}
	}
	if got := f.calls.Load(); got != n {
		t.Fatalf("calls=%d want %d; warm calls recomputed", got, n)
	}
}

func TestCustomBackendFactory(t *testing.T) {
	mem := memory.New(memory.Config{})
	c, err := New(Options{
		Config: Config{BackendKind: "shared"},
		Backends: map[string]BackendFactory{
			"shared": func(Config) (pr.Provider, error) { return mem, nil },
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if c.Kind() != "shared" {
		t.Fatalf("kind=%q", c.Kind())
	}
	_, _ = c.Set(context.Background(), "k", []byte("v"), 0)
	if mem.Len() != 1 {
		t.Fatalf("factory provider not used")
	}

	boom := errors.New("boom")
	_, err = New(Options{
		Config:   Config{BackendKind: "broken"},
		Backends: map[string]BackendFactory{"broken": func(Config) (pr.Provider, error) { return nil, boom }},
	})
	var ce *ConfigError
	if !errors.As(err, &ce) || !errors.Is(err, boom) {
		t.Fatalf("err=%v", err)
	}
}
