package codec

import (
	"fmt"

	"google.golang.org/protobuf/proto"
)

// Protobuf stores generated protobuf messages. Build it with NewProtobuf,
// passing a constructor for the concrete message type.
type Protobuf[T proto.Message] struct {
	new func() T // e.g. func() *pb.User { return &pb.User{} }
}

func NewProtobuf[T proto.Message](ctor func() T) Protobuf[T] {
	return Protobuf[T]{new: ctor}
}

// Encode is deterministic: equal messages produce equal records.
func (c Protobuf[T]) Encode(v T) ([]byte, error) {
	return proto.MarshalOptions{Deterministic: true}.Marshal(v)
}

// Decode rejects payloads that leave required fields unset or are not a
// message of type T.
func (c Protobuf[T]) Decode(b []byte) (T, error) {
	m := c.new()
	if err := proto.Unmarshal(b, m); err != nil {
		return m, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return m, nil
}
