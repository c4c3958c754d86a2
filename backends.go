package memocache

import (
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	pr "github.com/unkn0wn-root/memocache/provider"
	"github.com/unkn0wn-root/memocache/provider/bigcache"
	"github.com/unkn0wn-root/memocache/provider/bolt"
	"github.com/unkn0wn-root/memocache/provider/memory"
	"github.com/unkn0wn-root/memocache/provider/null"
	"github.com/unkn0wn-root/memocache/provider/redis"
	"github.com/unkn0wn-root/memocache/provider/ristretto"
)

// BackendFactory builds a provider from the configuration. Keys it receives are
// already prefixed with Config.KeyPrefix.
type BackendFactory func(cfg Config) (pr.Provider, error)

const boltFile = "memocache.bbolt"

var builtinBackends = map[string]BackendFactory{
	"null":       newNullBackend,
	"simple":     newMemoryBackend,
	"memory":     newMemoryBackend,
	"redis":      newRedisBackend,
	"ristretto":  newRistrettoBackend,
	"bigcache":   newBigcacheBackend,
	"filesystem": newBoltBackend,
}

func lookupBackend(kind string, extra map[string]BackendFactory) (BackendFactory, error) {
	if f, ok := extra[kind]; ok && f != nil {
		return f, nil
	}
	if f, ok := builtinBackends[kind]; ok {
		return f, nil
	}
	return nil, &ConfigError{Field: "backend_kind", Err: fmt.Errorf("%w: %q", ErrUnknownBackend, kind)}
}

func newNullBackend(Config) (pr.Provider, error) { return null.New(), nil }

func newMemoryBackend(cfg Config) (pr.Provider, error) {
	return memory.New(memory.Config{Threshold: cfg.Threshold}), nil
}

func newRedisBackend(cfg Config) (pr.Provider, error) {
	var opts *goredis.Options
	if cfg.RedisURL != "" {
		o, err := goredis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, &ConfigError{Field: "redis_url", Err: err}
		}
		opts = o
		if cfg.RedisDB != 0 {
			opts.DB = cfg.RedisDB
		}
	} else {
		opts = &goredis.Options{
			Addr:     net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort)),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}
	}
	if len(cfg.BackendArgs) > 0 && cfg.BackendArgs[0] != "" {
		opts.Addr = cfg.BackendArgs[0]
	}

	o := backendOptions(cfg.BackendOptions)
	var err error
	if opts.PoolSize, err = o.intOpt("pool_size", opts.PoolSize); err != nil {
		return nil, err
	}
	if opts.MaxRetries, err = o.intOpt("max_retries", opts.MaxRetries); err != nil {
		return nil, err
	}
	if opts.DialTimeout, err = o.durationOpt("dial_timeout", opts.DialTimeout); err != nil {
		return nil, err
	}
	if opts.ReadTimeout, err = o.durationOpt("read_timeout", opts.ReadTimeout); err != nil {
		return nil, err
	}
	if opts.WriteTimeout, err = o.durationOpt("write_timeout", opts.WriteTimeout); err != nil {
		return nil, err
	}

	p, err := redis.New(redis.Config{
		Client:      goredis.NewClient(opts),
		CloseClient: true,
		Prefix:      cfg.KeyPrefix,
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func newRistrettoBackend(cfg Config) (pr.Provider, error) {
	o := backendOptions(cfg.BackendOptions)
	counters, err := o.intOpt("num_counters", 0)
	if err != nil {
		return nil, err
	}
	buffer, err := o.intOpt("buffer_items", 0)
	if err != nil {
		return nil, err
	}
	p, err := ristretto.New(ristretto.Config{
		NumCounters: int64(counters),
		MaxCost:     int64(cfg.Threshold),
		BufferItems: int64(buffer),
	})
	if err != nil {
		return nil, &ConfigError{Field: "threshold", Err: err}
	}
	return p, nil
}

func newBigcacheBackend(cfg Config) (pr.Provider, error) {
	o := backendOptions(cfg.BackendOptions)
	var (
		bc  bigcache.Config
		err error
	)
	if bc.Shards, err = o.intOpt("shards", 0); err != nil {
		return nil, err
	}
	if bc.LifeWindow, err = o.durationOpt("life_window", 0); err != nil {
		return nil, err
	}
	if bc.MaxEntrySize, err = o.intOpt("max_entry_size", 0); err != nil {
		return nil, err
	}
	if bc.HardMaxCacheSizeMB, err = o.intOpt("hard_max_cache_size_mb", 0); err != nil {
		return nil, err
	}
	bc.MaxEntriesInWindow = cfg.Threshold
	p, err := bigcache.New(bc)
	if err != nil {
		return nil, &ConfigError{Field: "backend_options", Err: err}
	}
	return p, nil
}

func newBoltBackend(cfg Config) (pr.Provider, error) {
	path := ""
	switch {
	case len(cfg.BackendArgs) > 0 && cfg.BackendArgs[0] != "":
		path = cfg.BackendArgs[0]
	case cfg.Dir != "":
		path = filepath.Join(cfg.Dir, boltFile)
	default:
		return nil, &ConfigError{Field: "dir", Err: fmt.Errorf("filesystem backend needs dir or backend_args[0]")}
	}
	p, err := bolt.Open(bolt.Config{Path: path})
	if err != nil {
		return nil, err
	}
	return p, nil
}

type backendOptions map[string]string

func (o backendOptions) intOpt(name string, def int) (int, error) {
	s, ok := o[name]
	if !ok || s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &ConfigError{Field: "backend_options." + name, Err: err}
	}
	return n, nil
}

// durationOpt accepts Go durations ("750ms") or plain seconds ("3").
func (o backendOptions) durationOpt(name string, def time.Duration) (time.Duration, error) {
	s, ok := o[name]
	if !ok || s == "" {
		return def, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, &ConfigError{Field: "backend_options." + name, Err: err}
	}
	return d, nil
}
