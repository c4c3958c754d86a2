// Package null provides a provider that stores nothing. Every read misses.
package null

import (
	"context"
	"time"

	pr "github.com/unkn0wn-root/memocache/provider"
)

type Null struct{}

var _ pr.Provider = Null{}

func New() Null { return Null{} }

func (Null) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Null) Set(context.Context, string, []byte, time.Duration) (bool, error) {
	return true, nil
}
func (Null) Add(context.Context, string, []byte, time.Duration) (bool, error) {
	return true, nil
}
func (Null) Del(context.Context, string) error { return nil }
func (Null) Clear(context.Context) error       { return nil }
func (Null) Close(context.Context) error       { return nil }
