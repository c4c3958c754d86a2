package memocache

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The cache calls them on hot paths.
type Hooks interface {
	// Hit and Miss report the outcome of a cache lookup for a computation.
	Hit(identity string)
	Miss(identity string)

	// The bypass predicate returned true; the computation ran without the cache.
	Bypass(identity string)

	// A provider or codec operation failed and the call fell open.
	// op ∈ {"key", "get", "set", "encode"}
	StoreError(identity, op string, err error)

	// An entry was deleted on read because it could not be decoded.
	SelfHeal(storageKey string, err error)

	// Provider returned ok=false on Set (backpressure/eviction).
	SetRejected(storageKey string)

	// A version token was lazily created or replaced by InvalidateAll.
	VersionCreated(identity string)
	VersionBumped(identity string)

	// An invalidation failed and was swallowed.
	// op ∈ {"bump", "delete", "delete_version", "key"}
	InvalidateError(identity, op string, err error)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) Hit(string)                            {}
func (NopHooks) Miss(string)                           {}
func (NopHooks) Bypass(string)                         {}
func (NopHooks) StoreError(string, string, error)      {}
func (NopHooks) SelfHeal(string, error)                {}
func (NopHooks) SetRejected(string)                    {}
func (NopHooks) VersionCreated(string)                 {}
func (NopHooks) VersionBumped(string)                  {}
func (NopHooks) InvalidateError(string, string, error) {}
