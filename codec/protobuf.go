package codec

import "google.golang.org/protobuf/proto"

// Protobuf caches computations that return generated messages.
type Protobuf[T proto.Message] struct {
	new func() T // e.g. func() *forumpb.Topic { return &forumpb.Topic{} }
}

func NewProtobuf[T proto.Message](ctor func() T) Protobuf[T] {
	return Protobuf[T]{new: ctor}
}

func (c Protobuf[T]) Encode(v T) ([]byte, error) {
	return proto.Marshal(v)
}

func (c Protobuf[T]) Decode(b []byte) (T, error) {
	m := c.new()
	err := proto.Unmarshal(b, m)
	return m, err
}
