// Package bolt is a file-backed provider on top of bbolt. It survives restarts,
// which keeps version tokens stable across deploys of a single-node app.
package bolt

import (
	"context"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/unkn0wn-root/memocache/internal/wire"
	pr "github.com/unkn0wn-root/memocache/provider"
)

const defaultBucket = "memocache"

// Bolt stores each value in an expiry frame inside one bucket.
// bbolt serializes writers itself; readers run concurrently.
type Bolt struct {
	db     *bbolt.DB
	bucket []byte
	now    func() time.Time
}

var (
	_ pr.Provider = (*Bolt)(nil)
	_ pr.Batcher  = (*Bolt)(nil)
)

type Config struct {
	Path        string
	Bucket      string        // "" => "memocache"
	OpenTimeout time.Duration // file lock wait; 0 => 1s
}

func Open(cfg Config) (*Bolt, error) {
	timeout := cfg.OpenTimeout
	if timeout <= 0 {
		timeout = time.Second
	}
	db, err := bbolt.Open(cfg.Path, 0o600, &bbolt.Options{Timeout: timeout})
	if err != nil {
		return nil, err
	}
	bucket := []byte(defaultBucket)
	if cfg.Bucket != "" {
		bucket = []byte(cfg.Bucket)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Bolt{db: db, bucket: bucket, now: time.Now}, nil
}

func (s *Bolt) Get(_ context.Context, key string) ([]byte, bool, error) {
	var (
		out  []byte
		hit  bool
		drop bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(s.bucket).Get([]byte(key))
		if v == nil {
			return nil
		}
		exp, payload, err := wire.DecodeEntry(v)
		if err != nil || wire.Expired(exp, s.now()) {
			drop = true
			return nil
		}
		// bbolt memory is only valid inside the transaction
		out = append([]byte(nil), payload...)
		hit = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if drop {
		_ = s.Del(context.Background(), key)
	}
	return out, hit, nil
}

func (s *Bolt) Set(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), wire.EncodeEntry(wire.ExpiresAt(s.now(), ttl), value))
	})
	return err == nil, err
}

// Add checks and writes inside one read-write transaction.
func (s *Bolt) Add(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	added := false
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if v := b.Get([]byte(key)); v != nil {
			exp, _, err := wire.DecodeEntry(v)
			if err == nil && !wire.Expired(exp, s.now()) {
				return nil
			}
		}
		added = true
		return b.Put([]byte(key), wire.EncodeEntry(wire.ExpiresAt(s.now(), ttl), value))
	})
	if err != nil {
		return false, err
	}
	return added, nil
}

func (s *Bolt) Del(_ context.Context, key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(key))
	})
}

func (s *Bolt) Clear(context.Context) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(s.bucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(s.bucket)
		return err
	})
}

func (s *Bolt) GetMany(_ context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	now := s.now()
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		for _, k := range keys {
			v := b.Get([]byte(k))
			if v == nil {
				continue
			}
			exp, payload, err := wire.DecodeEntry(v)
			if err != nil || wire.Expired(exp, now) {
				continue
			}
			out[k] = append([]byte(nil), payload...)
		}
		return nil
	})
	return out, err
}

func (s *Bolt) SetMany(_ context.Context, items map[string][]byte, ttl time.Duration) error {
	exp := wire.ExpiresAt(s.now(), ttl)
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		for k, v := range items {
			if err := b.Put([]byte(k), wire.EncodeEntry(exp, v)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Bolt) DelMany(_ context.Context, keys []string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		for _, k := range keys {
			if err := b.Delete([]byte(k)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Bolt) Close(context.Context) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
