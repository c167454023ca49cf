// Package codec converts typed values to and from the byte sequences the
// cache tiers store.
//
// Scalar codecs (Bool, Int32, ..., Time, Bytes) are fixed and lossless. Object
// codecs (CBOR, Msgpack, JSON, Protobuf) serialize arbitrary values. Every
// stored value is sealed with a Kind tag so a read with the wrong type is
// detected instead of silently misinterpreted.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
