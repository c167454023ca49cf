package codec

import (
	"errors"
	"fmt"
)

// Kind tags a stored value with the type it was written as.
type Kind byte

const (
	KindInvalid Kind = iota
	KindBool
	KindInt32
	KindUint32
	KindInt64
	KindUint64
	KindFloat32
	KindFloat64
	KindString
	KindTime
	KindBytes
	KindObject
)

var (
	ErrKindMismatch = errors.New("codec: kind mismatch")
	ErrMalformed    = errors.New("codec: malformed value")
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindBool:    "bool",
	KindInt32:   "int32",
	KindUint32:  "uint32",
	KindInt64:   "int64",
	KindUint64:  "uint64",
	KindFloat32: "float32",
	KindFloat64: "float64",
	KindString:  "string",
	KindTime:    "time",
	KindBytes:   "bytes",
	KindObject:  "object",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", byte(k))
}

// Seal prefixes payload with its kind tag. The result never aliases payload.
func Seal(k Kind, payload []byte) []byte {
	out := make([]byte, 1+len(payload))
	out[0] = byte(k)
	copy(out[1:], payload)
	return out
}

// Unseal strips the kind tag and returns the payload (aliasing b).
// It fails with ErrKindMismatch when b was sealed with another kind.
func Unseal(b []byte, want Kind) ([]byte, error) {
	if len(b) == 0 || Kind(b[0]) == KindInvalid || int(b[0]) >= len(kindNames) {
		return nil, ErrMalformed
	}
	if got := Kind(b[0]); got != want {
		return nil, fmt.Errorf("%w: stored %s, requested %s", ErrKindMismatch, got, want)
	}
	return b[1:], nil
}

// KindOf reports the tag of a sealed value.
func KindOf(b []byte) (Kind, bool) {
	if len(b) == 0 || Kind(b[0]) == KindInvalid || int(b[0]) >= len(kindNames) {
		return KindInvalid, false
	}
	return Kind(b[0]), true
}
