package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// CBOR stores objects as CBOR (fxamacker/cbor). Build it with NewCBOR or
// MustCBOR; the zero value has no modes and panics on use.
//
// Encoding keeps what the scalar codecs keep: floats are never shortened and
// NaN payloads pass through unchanged, times are RFC 3339 with nanoseconds.
// Untyped maps decode as map[string]any so CBOR[any] output stays printable.
type CBOR[V any] struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var _ Codec[struct{}] = CBOR[struct{}]{}

// NewCBOR builds a CBOR codec. With deterministic set, map keys are sorted
// (RFC 8949 core deterministic encoding) so equal objects produce equal
// records on disk.
func NewCBOR[V any](deterministic bool) (CBOR[V], error) {
	opts := cbor.PreferredUnsortedEncOptions()
	if deterministic {
		opts = cbor.CoreDetEncOptions()
	}
	opts.ShortestFloat = cbor.ShortestFloatNone
	opts.NaNConvert = cbor.NaNConvertNone
	opts.InfConvert = cbor.InfConvertNone
	opts.Time = cbor.TimeRFC3339Nano

	enc, err := opts.EncMode()
	if err != nil {
		return CBOR[V]{}, err
	}
	dec, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		return CBOR[V]{}, err
	}
	return CBOR[V]{enc: enc, dec: dec}, nil
}

// MustCBOR is NewCBOR for package-level codecs; it panics on error.
func MustCBOR[V any](deterministic bool) CBOR[V] {
	c, err := NewCBOR[V](deterministic)
	if err != nil {
		panic(err)
	}
	return c
}

func (c CBOR[V]) Encode(v V) ([]byte, error) { return c.enc.Marshal(v) }

func (c CBOR[V]) Decode(b []byte) (V, error) {
	var v V
	if err := c.dec.Unmarshal(b, &v); err != nil {
		return v, err
	}
	return v, nil
}
