package codec

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// Fixed-width scalars are stored big-endian. Floats are stored as their
// IEEE-754 bits, so NaN payloads and negative zero survive a round trip.

type Bool struct{}

func (Bool) Encode(v bool) ([]byte, error) {
	if v {
		return []byte{1}, nil
	}
	return []byte{0}, nil
}

func (Bool) Decode(b []byte) (bool, error) {
	if len(b) != 1 || b[0] > 1 {
		return false, fmt.Errorf("%w: bool needs 1 byte (0|1), got %d", ErrMalformed, len(b))
	}
	return b[0] == 1, nil
}

type Int32 struct{}

func (Int32) Encode(v int32) ([]byte, error) { return Uint32{}.Encode(uint32(v)) }
func (Int32) Decode(b []byte) (int32, error) {
	u, err := Uint32{}.Decode(b)
	return int32(u), err
}

type Uint32 struct{}

func (Uint32) Encode(v uint32) ([]byte, error) {
	return binary.BigEndian.AppendUint32(nil, v), nil
}

func (Uint32) Decode(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, fmt.Errorf("%w: 32-bit value needs 4 bytes, got %d", ErrMalformed, len(b))
	}
	return binary.BigEndian.Uint32(b), nil
}

type Int64 struct{}

func (Int64) Encode(v int64) ([]byte, error) { return Uint64{}.Encode(uint64(v)) }
func (Int64) Decode(b []byte) (int64, error) {
	u, err := Uint64{}.Decode(b)
	return int64(u), err
}

type Uint64 struct{}

func (Uint64) Encode(v uint64) ([]byte, error) {
	return binary.BigEndian.AppendUint64(nil, v), nil
}

func (Uint64) Decode(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("%w: 64-bit value needs 8 bytes, got %d", ErrMalformed, len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

type Float32 struct{}

func (Float32) Encode(v float32) ([]byte, error) { return Uint32{}.Encode(math.Float32bits(v)) }
func (Float32) Decode(b []byte) (float32, error) {
	u, err := Uint32{}.Decode(b)
	return math.Float32frombits(u), err
}

type Float64 struct{}

func (Float64) Encode(v float64) ([]byte, error) { return Uint64{}.Encode(math.Float64bits(v)) }
func (Float64) Decode(b []byte) (float64, error) {
	u, err := Uint64{}.Decode(b)
	return math.Float64frombits(u), err
}

// Time stores unix seconds (i64) | nanoseconds (u32) | zone offset seconds (i32).
// Full nanosecond precision and the UTC offset are preserved; the location
// name and the monotonic reading are not. UTC values decode as time.UTC.
type Time struct{}

const timeLen = 8 + 4 + 4

func (Time) Encode(t time.Time) ([]byte, error) {
	_, offset := t.Zone()
	out := make([]byte, 0, timeLen)
	out = binary.BigEndian.AppendUint64(out, uint64(t.Unix()))
	out = binary.BigEndian.AppendUint32(out, uint32(t.Nanosecond()))
	out = binary.BigEndian.AppendUint32(out, uint32(int32(offset)))
	return out, nil
}

func (Time) Decode(b []byte) (time.Time, error) {
	if len(b) != timeLen {
		return time.Time{}, fmt.Errorf("%w: time needs %d bytes, got %d", ErrMalformed, timeLen, len(b))
	}
	sec := int64(binary.BigEndian.Uint64(b[0:8]))
	nsec := binary.BigEndian.Uint32(b[8:12])
	if nsec >= 1e9 {
		return time.Time{}, fmt.Errorf("%w: nanoseconds out of range", ErrMalformed)
	}
	offset := int32(binary.BigEndian.Uint32(b[12:16]))
	t := time.Unix(sec, int64(nsec))
	if offset == 0 {
		return t.UTC(), nil
	}
	return t.In(time.FixedZone("", int(offset))), nil
}

var (
	_ Codec[bool]      = Bool{}
	_ Codec[int32]     = Int32{}
	_ Codec[uint32]    = Uint32{}
	_ Codec[int64]     = Int64{}
	_ Codec[uint64]    = Uint64{}
	_ Codec[float32]   = Float32{}
	_ Codec[float64]   = Float64{}
	_ Codec[string]    = String{}
	_ Codec[time.Time] = Time{}
	_ Codec[[]byte]    = Bytes{}
)
