package memocache

import (
	"context"

	"github.com/unkn0wn-root/memocache/versions"
)

// Target is a memoized computation that can be invalidated. Only values returned
// by Memoize implement it, so invalidation by name is not possible.
type Target interface {
	registration() *registration
}

var _ Target = (*Memoized[int])(nil)

func (c *Cache) resolve(t Target) (*registration, error) {
	if t == nil {
		return nil, usagef("invalidate: nil target")
	}
	r := t.registration()
	if r == nil {
		return nil, usagef("invalidate: nil target")
	}
	if r.c != c {
		return nil, usagef("invalidate: %s is memoized with another cache", r.identity)
	}
	return r, nil
}

// InvalidateAll orphans every cached result of t by replacing its version token.
// Old entries are not deleted; they expire through their TTL.
// Backend failures are logged and reported to hooks, never returned.
func (c *Cache) InvalidateAll(ctx context.Context, t Target) error {
	r, err := c.resolve(t)
	if err != nil {
		return err
	}
	if _, err := c.versions.Bump(ctx, r.identity); err != nil {
		c.invalidateError(r.identity, "bump", versions.Key(r.identity), err)
		return nil
	}
	c.hooks.VersionBumped(r.identity)
	c.log.Debug("version token bumped", Fields{"identity": r.identity})
	return nil
}

// InvalidateOne deletes the cached result of a single call of t.
// Argument binding errors are returned; backend failures are swallowed.
func (c *Cache) InvalidateOne(ctx context.Context, t Target, args Args) error {
	r, err := c.resolve(t)
	if err != nil {
		return err
	}
	_, tuple, err := r.sig.bind(args)
	if err != nil {
		return err
	}
	key, err := r.key(ctx, tuple)
	if err != nil {
		c.invalidateError(r.identity, "key", "", err)
		return nil
	}
	if err := c.store.Del(ctx, key); err != nil {
		c.invalidateError(r.identity, "delete", key, err)
		return nil
	}
	c.log.Debug("invalidated key", Fields{"identity": r.identity, "key": key})
	return nil
}

// DeleteVersion removes t's version token. The next call creates a fresh one,
// which has the same effect on cached results as InvalidateAll.
func (c *Cache) DeleteVersion(ctx context.Context, t Target) error {
	r, err := c.resolve(t)
	if err != nil {
		return err
	}
	if err := c.versions.Delete(ctx, r.identity); err != nil {
		c.invalidateError(r.identity, "delete_version", versions.Key(r.identity), err)
	}
	return nil
}
