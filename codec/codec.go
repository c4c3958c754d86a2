// Package codec turns memoized results into bytes for a provider and back.
//
// A codec must round-trip every value a computation can return: a value that
// encodes but fails to decode is treated as a cache miss on every read.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
