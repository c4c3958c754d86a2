// Package provider defines the storage abstraction used by memocache.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly the
// same []byte that was previously passed to Set for a key (no prepended/appended
// metadata visible to the caller, no re-encoding, no mutation). Providers that need
// to carry expiry alongside the value must strip it again before returning.
//
// Important: keys ending in "_memver" are version tokens owned by memocache.
// External code MUST NOT write under those keys or memoized results of the
// matching computation will silently be orphaned.
package provider

import (
	"context"
	"time"
)

// Provider is a minimal byte store with TTLs.
// Must be safe for concurrent use. A ttl <= 0 means the entry never expires.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given TTL.
	// Returns ok=false when the store rejected the write under pressure.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) (ok bool, err error)

	// Add stores value only if key is absent. Returns ok=false when key already existed.
	Add(ctx context.Context, key string, value []byte, ttl time.Duration) (ok bool, err error)

	// Del removes a key (best-effort). Deleting a missing key is not an error.
	Del(ctx context.Context, key string) error

	// Clear drops every entry this provider owns.
	Clear(ctx context.Context) error

	// Close releases resources.
	Close(ctx context.Context) error
}

// Batcher is implemented by providers with native multi-key operations.
// Batches are best-effort, not atomic.
type Batcher interface {
	// GetMany returns the found entries only; missing keys are absent from the map.
	GetMany(ctx context.Context, keys []string) (map[string][]byte, error)
	SetMany(ctx context.Context, items map[string][]byte, ttl time.Duration) error
	DelMany(ctx context.Context, keys []string) error
}

// GetMany reads keys using the provider's Batcher when available, else one by one.
// The first per-key error aborts the loop.
func GetMany(ctx context.Context, p Provider, keys []string) (map[string][]byte, error) {
	if b, ok := p.(Batcher); ok {
		return b.GetMany(ctx, keys)
	}
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		v, ok, err := p.Get(ctx, k)
		if err != nil {
			return out, err
		}
		if ok {
			out[k] = v
		}
	}
	return out, nil
}

// SetMany writes items using the provider's Batcher when available, else one by one.
func SetMany(ctx context.Context, p Provider, items map[string][]byte, ttl time.Duration) error {
	if b, ok := p.(Batcher); ok {
		return b.SetMany(ctx, items, ttl)
	}
	for k, v := range items {
		if _, err := p.Set(ctx, k, v, ttl); err != nil {
			return err
		}
	}
	return nil
}

// DelMany deletes keys using the provider's Batcher when available, else one by one.
func DelMany(ctx context.Context, p Provider, keys []string) error {
	if b, ok := p.(Batcher); ok {
		return b.DelMany(ctx, keys)
	}
	for _, k := range keys {
		if err := p.Del(ctx, k); err != nil {
			return err
		}
	}
	return nil
}
