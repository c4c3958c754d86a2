// Package versions keeps one short random token per memoized computation.
//
// Cache keys embed the token, so replacing it orphans every entry cached for that
// computation in O(1). Orphans are never scanned or deleted; they age out via TTL.
// Tokens live in the same provider as the entries they guard, so every process
// sharing the backend sees the same token.
package versions

import (
	"context"
	"encoding/base64"

	"github.com/google/uuid"

	pr "github.com/unkn0wn-root/memocache/provider"
)

const (
	// Suffix is appended to an identity to form its version key.
	Suffix = "_memver"
	// TokenLen is the length of every generated token.
	TokenLen = 6
)

// Token is an opaque version token.
type Token []byte

func (t Token) String() string { return string(t) }

// Registry reads and replaces tokens. It holds no state besides the provider.
type Registry struct {
	p pr.Provider
}

func New(p pr.Provider) *Registry {
	return &Registry{p: p}
}

// Key returns the version key of identity.
func Key(identity string) string { return identity + Suffix }

// NewToken returns the first TokenLen chars of a base64 encoded random UUID.
func NewToken() Token {
	u := uuid.New()
	return Token(base64.StdEncoding.EncodeToString(u[:])[:TokenLen])
}

// GetOrCreate returns the current token, creating one lazily when absent.
// created reports whether this call stored the token.
func (r *Registry) GetOrCreate(ctx context.Context, identity string) (tok Token, created bool, err error) {
	k := Key(identity)
	raw, ok, err := r.p.Get(ctx, k)
	if err != nil {
		return nil, false, err
	}
	if ok && len(raw) > 0 {
		return Token(raw), false, nil
	}

	tok = NewToken()
	added, err := r.p.Add(ctx, k, tok, 0)
	if err != nil {
		return nil, false, err
	}
	if added {
		return tok, true, nil
	}
	// lost the race; use the winner's token
	raw, ok, err = r.p.Get(ctx, k)
	if err != nil {
		return nil, false, err
	}
	if ok && len(raw) > 0 {
		return Token(raw), false, nil
	}
	// winner vanished between Add and Get (evicted/deleted); overwrite
	if _, err := r.p.Set(ctx, k, tok, 0); err != nil {
		return nil, false, err
	}
	return tok, true, nil
}

// Bump unconditionally replaces the token. There is no read of the old value;
// concurrent bumps resolve last-writer-wins.
func (r *Registry) Bump(ctx context.Context, identity string) (Token, error) {
	tok := NewToken()
	if _, err := r.p.Set(ctx, Key(identity), tok, 0); err != nil {
		return nil, err
	}
	return tok, nil
}

// Delete removes the token; the next GetOrCreate synthesizes a new one.
func (r *Registry) Delete(ctx context.Context, identity string) error {
	return r.p.Del(ctx, Key(identity))
}
