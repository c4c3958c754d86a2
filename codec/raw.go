package codec

// Bytes is an identity codec for computations that already produce []byte
// (rendered fragments, pre-serialized payloads).
type Bytes struct{}

func (Bytes) Encode(b []byte) ([]byte, error) { return b, nil }
func (Bytes) Decode(b []byte) ([]byte, error) { return b, nil }

// String stores Go strings as raw UTF-8 bytes without validation.
type String struct{}

func (String) Encode(s string) ([]byte, error) { return []byte(s), nil }
func (String) Decode(b []byte) (string, error) { return string(b), nil }
