package memocache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/unkn0wn-root/memocache/codec"
)

// DefaultViewKey is the key of a View without Key or KeyFunc. %s becomes the
// function's identity.
const DefaultViewKey = "view/%s"

var errEmptyKey = errors.New("empty view key")

// ViewOptions tune a View. All fields are optional.
type ViewOptions[V any] struct {
	// Key is a literal cache key; the first %s is replaced by the identity.
	Key string
	// KeyFunc computes the key per call and wins over Key.
	KeyFunc func(ctx context.Context) string

	// Name is the identity substituted into Key; "" => the function's symbol name.
	Name string

	Timeout time.Duration // 0 => Cache.DefaultTimeout; NoExpiry => never
	Bypass  func(ctx context.Context) bool
	Codec   codec.Codec[V] // nil => codec.JSON[V]
}

// View caches an argument-less computation, typically a rendered page fragment,
// under a fixed or request-derived key. It has no version token.
type View[V any] struct {
	c        *Cache
	fn       func(context.Context) (V, error)
	identity string
	key      string
	keyFunc  func(context.Context) string
	ttl      time.Duration
	bypass   func(context.Context) bool
	codec    codec.Codec[V]
}

// Cached wraps fn. It panics if c or fn is nil.
func Cached[V any](c *Cache, fn func(ctx context.Context) (V, error), opts ViewOptions[V]) *View[V] {
	if c == nil || fn == nil {
		panic(usagef("Cached: nil cache or function"))
	}
	id := opts.Name
	if id == "" {
		pkg, owner, name, _ := symbolName(fn)
		id = Signature{Package: pkg, Owner: owner, Name: name}.identity()
	}
	key := coalesce(opts.Key, DefaultViewKey)
	if strings.Contains(key, "%s") {
		key = strings.Replace(key, "%s", id, 1)
	}
	return &View[V]{
		c:        c,
		fn:       fn,
		identity: id,
		key:      key,
		keyFunc:  opts.KeyFunc,
		ttl:      opts.Timeout,
		bypass:   opts.Bypass,
		codec:    coalesce[codec.Codec[V]](opts.Codec, codec.JSON[V]{}),
	}
}

func (v *View[V]) Identity() string { return v.identity }

// Key returns the key the next Call would use.
func (v *View[V]) Key(ctx context.Context) string {
	if v.keyFunc != nil {
		return v.keyFunc(ctx)
	}
	return v.key
}

// Call returns the cached value, computing and storing it on a miss.
// Cache failures fall back to calling the function directly.
func (v *View[V]) Call(ctx context.Context) (V, error) {
	c := v.c
	if v.bypass != nil && v.bypass(ctx) {
		c.hooks.Bypass(v.identity)
		return v.fn(ctx)
	}
	key := v.Key(ctx)
	if key == "" {
		c.storeError(v.identity, "key", "", errEmptyKey)
		return v.fn(ctx)
	}

	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.storeError(v.identity, "get", key, err)
		return v.fn(ctx)
	}
	if ok {
		out, err := v.codec.Decode(raw)
		if err == nil {
			c.hooks.Hit(v.identity)
			return out, nil
		}
		_ = c.store.Del(ctx, key)
		c.hooks.SelfHeal(key, err)
	}

	c.hooks.Miss(v.identity)
	out, err := v.fn(ctx)
	if err != nil {
		return out, err
	}
	payload, err := v.codec.Encode(out)
	if err != nil {
		c.storeError(v.identity, "encode", key, err)
		return out, nil
	}
	if ok, err := c.store.Set(ctx, key, payload, c.ttlFor(v.ttl)); err != nil {
		c.storeError(v.identity, "set", key, err)
	} else if !ok {
		c.hooks.SetRejected(key)
	}
	return out, nil
}

// Uncached calls the function directly.
func (v *View[V]) Uncached(ctx context.Context) (V, error) { return v.fn(ctx) }

// Invalidate deletes the current key. Failures are logged and reported to hooks.
func (v *View[V]) Invalidate(ctx context.Context) error {
	key := v.Key(ctx)
	if key == "" {
		return nil
	}
	if err := v.c.store.Del(ctx, key); err != nil {
		v.c.invalidateError(v.identity, "delete", key, err)
	}
	return nil
}
