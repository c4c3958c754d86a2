package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	pr "github.com/unkn0wn-root/memocache/provider"
)

var ErrNilClient = errors.New("redis provider: nil client")

const clearBatch = 500

type Redis struct {
	rdb         goredis.UniversalClient
	closeClient bool
	prefix      string
}

var (
	_ pr.Provider = (*Redis)(nil)
	_ pr.Batcher  = (*Redis)(nil)
)

type Config struct {
	Client      goredis.UniversalClient
	CloseClient bool // set true only if this provider exclusively owns the client
	// Prefix scopes Clear to keys starting with it (SCAN + DEL).
	// Empty Prefix makes Clear a FLUSHDB.
	Prefix string
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Redis{rdb: cfg.Client, closeClient: cfg.CloseClient, prefix: cfg.Prefix}, nil
}

func (p *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := p.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, false, nil // miss
	}
	if err != nil {
		return nil, false, err // transport/server error
	}
	return b, true, nil
}

func (p *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if ttl < 0 {
		ttl = 0 // treat non-positive TTLs as "no expiry" per provider contract
	}
	if err := p.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Redis) Add(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if ttl < 0 {
		ttl = 0
	}
	return p.rdb.SetNX(ctx, key, value, ttl).Result()
}

func (p *Redis) Del(ctx context.Context, key string) error {
	return p.rdb.Del(ctx, key).Err()
}

func (p *Redis) Clear(ctx context.Context) error {
	if p.prefix == "" {
		return p.rdb.FlushDB(ctx).Err()
	}
	var cursor uint64
	for {
		keys, next, err := p.rdb.Scan(ctx, cursor, p.prefix+"*", clearBatch).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := p.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (p *Redis) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	vals, err := p.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		switch vv := v.(type) {
		case nil:
		case string:
			out[keys[i]] = []byte(vv)
		case []byte:
			out[keys[i]] = vv
		}
	}
	return out, nil
}

// SetMany pipelines one SET per item in a single round-trip.
func (p *Redis) SetMany(ctx context.Context, items map[string][]byte, ttl time.Duration) error {
	if len(items) == 0 {
		return nil
	}
	if ttl < 0 {
		ttl = 0
	}
	_, err := p.rdb.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for k, v := range items {
			pipe.Set(ctx, k, v, ttl)
		}
		return nil
	})
	return err
}

func (p *Redis) DelMany(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	return p.rdb.Del(ctx, keys...).Err()
}

// Close releases the underlying redis client only when this provider owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (p *Redis) Close(context.Context) error {
	if p.closeClient {
		if err := p.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}
