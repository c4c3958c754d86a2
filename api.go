package memocache

import (
	"context"
	"errors"
	"time"

	pr "github.com/unkn0wn-root/memocache/provider"
	"github.com/unkn0wn-root/memocache/versions"
)

// NoExpiry as a TTL stores entries without expiry.
const NoExpiry time.Duration = -1

// Options configure a Cache. Everything is optional; the zero value builds the
// backend named by Config.BackendKind with Config defaults.
type Options struct {
	Config Config

	// Provider replaces the backend chosen by Config.BackendKind.
	// Config.KeyPrefix is still applied on top of it.
	Provider pr.Provider

	// VersionProvider stores version tokens; nil => the result store.
	VersionProvider pr.Provider

	Logger Logger // if nil, NopLogger is used
	Hooks  Hooks  // if nil, NopHooks is used

	// Backends registers extra backend kinds for this cache, or overrides built-in ones.
	Backends map[string]BackendFactory
}

// Cache owns a provider and the version tokens of every computation memoized with it.
// It is safe for concurrent use and keeps no state of its own besides configuration.
type Cache struct {
	store    pr.Provider // prefixed
	verStore pr.Provider // nil when tokens share store
	versions *versions.Registry
	log      Logger
	hooks    Hooks
	ttl      time.Duration
	kind     string
}

func New(opts Options) (*Cache, error) {
	cfg := opts.Config.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Cache{
		log:   coalesce[Logger](opts.Logger, NopLogger{}),
		hooks: coalesce[Hooks](opts.Hooks, NopHooks{}),
		ttl:   cfg.Timeout(),
		kind:  cfg.BackendKind,
	}

	base := opts.Provider
	if base == nil {
		factory, err := lookupBackend(cfg.BackendKind, opts.Backends)
		if err != nil {
			return nil, err
		}
		p, err := factory(cfg)
		if err != nil {
			var ce *ConfigError
			if errors.As(err, &ce) {
				return nil, err
			}
			return nil, &ConfigError{Field: "backend_kind", Err: err}
		}
		base = p
		if cfg.BackendKind == "null" && !cfg.NoNullWarning {
			c.log.Warn("null cache backend configured, caching is effectively disabled",
				Fields{"backend_kind": cfg.BackendKind})
		}
	} else {
		c.kind = "custom"
	}

	c.store = pr.WithPrefix(base, cfg.KeyPrefix)
	if opts.VersionProvider != nil {
		c.verStore = pr.WithPrefix(opts.VersionProvider, cfg.KeyPrefix)
		c.versions = versions.New(c.verStore)
	} else {
		c.versions = versions.New(c.store)
	}
	return c, nil
}

// Kind returns the backend kind, or "custom" when Options.Provider was set.
func (c *Cache) Kind() string { return c.kind }

// DefaultTimeout is the TTL applied when a call site passes 0. NoExpiry means never.
func (c *Cache) DefaultTimeout() time.Duration { return c.ttl }

// Close releases the providers.
func (c *Cache) Close(ctx context.Context) error {
	var errs []error
	if c.verStore != nil {
		if err := c.verStore.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.store.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ttlFor maps a call-site TTL to the provider contract (<= 0 => never).
func (c *Cache) ttlFor(ttl time.Duration) time.Duration {
	if ttl == 0 {
		ttl = c.ttl
	}
	if ttl < 0 {
		return 0
	}
	return ttl
}

func (c *Cache) storeError(identity, op, key string, err error) {
	c.hooks.StoreError(identity, op, err)
	c.log.Warn("cache operation failed, calling through", Fields{
		"identity": identity,
		"op":       op,
		"err":      &StoreError{Op: op, Key: key, Err: err},
	})
}

func (c *Cache) invalidateError(identity, op, key string, err error) {
	c.hooks.InvalidateError(identity, op, err)
	c.log.Error("invalidation failed", Fields{
		"identity": identity,
		"op":       op,
		"err":      &InvalidateError{Identity: identity, Key: key, Op: op, Err: err},
	})
}
