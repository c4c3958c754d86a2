package memocache

import (
	"context"
	"time"

	pr "github.com/unkn0wn-root/memocache/provider"
)

// Direct store access. Keys get Config.KeyPrefix; values are raw bytes.
// A ttl of 0 uses DefaultTimeout, NoExpiry stores without expiry.

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, false, &StoreError{Op: "get", Key: key, Err: err}
	}
	return v, ok, nil
}

// Set reports ok=false when the backend rejected the write under pressure.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	ok, err := c.store.Set(ctx, key, value, c.ttlFor(ttl))
	if err != nil {
		return false, &StoreError{Op: "set", Key: key, Err: err}
	}
	if !ok {
		c.hooks.SetRejected(key)
	}
	return ok, nil
}

// Add stores value only if key is absent.
func (c *Cache) Add(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	ok, err := c.store.Add(ctx, key, value, c.ttlFor(ttl))
	if err != nil {
		return false, &StoreError{Op: "add", Key: key, Err: err}
	}
	return ok, nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.store.Del(ctx, key); err != nil {
		return &StoreError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

func (c *Cache) DeleteMany(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := pr.DelMany(ctx, c.store, keys); err != nil {
		return &StoreError{Op: "delete_many", Key: keys[0], Err: err}
	}
	return nil
}

// GetMany returns the entries found; missing keys are absent from the map.
func (c *Cache) GetMany(ctx context.Context, keys ...string) (map[string][]byte, error) {
	if len(keys) == 0 {
		return map[string][]byte{}, nil
	}
	out, err := pr.GetMany(ctx, c.store, keys)
	if err != nil {
		return out, &StoreError{Op: "get_many", Key: keys[0], Err: err}
	}
	return out, nil
}

func (c *Cache) SetMany(ctx context.Context, items map[string][]byte, ttl time.Duration) error {
	if len(items) == 0 {
		return nil
	}
	if err := pr.SetMany(ctx, c.store, items, c.ttlFor(ttl)); err != nil {
		return &StoreError{Op: "set_many", Err: err}
	}
	return nil
}

// Clear drops every entry of the backend, version tokens included.
// Redis scopes it to Config.KeyPrefix when one is set.
func (c *Cache) Clear(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return &StoreError{Op: "clear", Err: err}
	}
	if c.verStore != nil {
		if err := c.verStore.Clear(ctx); err != nil {
			return &StoreError{Op: "clear", Err: err}
		}
	}
	return nil
}
