package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// JSON stores objects as JSON. The zero value is ready to use. Decoding
// rejects trailing data after the first value.
type JSON[V any] struct{}

var _ Codec[struct{}] = JSON[struct{}]{}

func (JSON[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }

func (JSON[V]) Decode(b []byte) (V, error) {
	var v V
	dec := json.NewDecoder(bytes.NewReader(b))
	if err := dec.Decode(&v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return v, fmt.Errorf("%w: trailing data after JSON value", ErrMalformed)
	}
	return v, nil
}
