package memocache

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownBackend is wrapped by the ConfigError returned for an unregistered backend kind.
	ErrUnknownBackend = errors.New("memocache: unknown backend kind")

	// ErrBadArgs is returned when call arguments do not fit the computation's signature.
	ErrBadArgs = errors.New("memocache: arguments do not match signature")
)

// ConfigError is returned by New for an invalid configuration. It is the only
// failure that is not absorbed by falling back to a direct call.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("memocache: config: %v", e.Err)
	}
	return fmt.Sprintf("memocache: config %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// StoreError describes a failed provider or codec operation. It is reported to
// hooks and the logger; callers of Call never see it.
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("memocache: store %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// InvalidateError describes a swallowed invalidation failure.
type InvalidateError struct {
	Identity string
	Key      string
	Op       string
	Err      error
}

func (e *InvalidateError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("memocache: invalidate %s (%s): %v", e.Identity, e.Op, e.Err)
	}
	return fmt.Sprintf("memocache: invalidate %s key %q (%s): %v", e.Identity, e.Key, e.Op, e.Err)
}

func (e *InvalidateError) Unwrap() error { return e.Err }

// UsageError reports a programming mistake: bad registration or a target that
// does not belong to the cache.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string { return "memocache: " + e.Msg }

func usagef(format string, args ...any) error {
	return &UsageError{Msg: fmt.Sprintf(format, args...)}
}
