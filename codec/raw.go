package codec

// Bytes is a codec for []byte values. Encode returns the input unchanged,
// Decode returns a copy so callers never alias cached memory.
type Bytes struct{}

func (Bytes) Encode(b []byte) ([]byte, error) { return b, nil }
func (Bytes) Decode(b []byte) ([]byte, error) {
	if b == nil {
		return nil, nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// String is a codec for Go string values. Strings are stored as their raw
// bytes, so any content (including invalid UTF-8) round-trips unchanged.
type String struct{}

func (String) Encode(s string) ([]byte, error) { return []byte(s), nil }
func (String) Decode(b []byte) (string, error) { return string(b), nil }
