package codec

import "fmt"

// LimitCodec wraps another codec and bounds payload sizes in both directions.
// Oversized values fail to Encode (the cache then drops the write) and
// oversized stored payloads fail to Decode (the cache then reports a miss).
// A limit <= 0 disables that direction.
type LimitCodec[V any] struct {
	// Inner is the underlying codec being wrapped. It must be set.
	Inner Codec[V]
	// MaxEncode is the largest payload Encode may produce.
	MaxEncode int
	// MaxDecode is the largest payload Decode accepts; Inner is not invoked
	// for larger inputs.
	MaxDecode int
}

func (c LimitCodec[V]) Encode(v V) ([]byte, error) {
	b, err := c.Inner.Encode(v)
	if err != nil {
		return nil, err
	}
	if c.MaxEncode > 0 && len(b) > c.MaxEncode {
		return nil, fmt.Errorf("payload too large: %d > %d", len(b), c.MaxEncode)
	}
	return b, nil
}

func (c LimitCodec[V]) Decode(b []byte) (V, error) {
	if c.MaxDecode > 0 && len(b) > c.MaxDecode {
		var zero V
		return zero, fmt.Errorf("payload too large: %d > %d", len(b), c.MaxDecode)
	}
	return c.Inner.Decode(b)
}
