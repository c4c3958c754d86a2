package keyhash

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/unkn0wn-root/memocache/codec"
)

// Len is the length of every fingerprint.
const Len = 16

var canonical = codec.MustCBOR[any](true)

// Fingerprint hashes a computation name and its normalized arguments into a fixed
// Len-char string. Arguments are encoded as core-deterministic CBOR so map order and
// integer width never change the result. The trailing empty map stands in for
// keyword arguments, which are always folded into positional slots first.
func Fingerprint(name string, args []any) (string, error) {
	if args == nil {
		args = []any{}
	}
	b, err := canonical.Encode([]any{name, args, map[string]any{}})
	if err != nil {
		return "", fmt.Errorf("keyhash: encode args of %s: %w", name, err)
	}
	sum := sha256.Sum256(b)
	return base64.RawURLEncoding.EncodeToString(sum[:])[:Len], nil
}
