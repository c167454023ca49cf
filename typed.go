package spacecache

import (
	"context"
	"errors"
	"time"

	"github.com/unkn0wn-root/spacecache/codec"
	"github.com/unkn0wn-root/spacecache/internal/util"
)

// Every kind has four methods on Cache and on Space:
//
//	SetX(ctx, [space,] key, v) error     write through both tiers
//	LookupX(ctx, [space,] key) (X, bool) false on miss or type mismatch
//	GetX(ctx, [space,] key) X            zero value when absent
//	GetXOr(ctx, [space,] key, def) X     def when absent
//
// A value written as one kind is a miss when read as another.

func setTyped[V any](ctx context.Context, c *Cache, space, key string, kind codec.Kind, cd codec.Codec[V], v V) error {
	if c.closed.Load() {
		return ErrClosed
	}
	space = spaceName(space)
	payload, err := cd.Encode(v)
	if err != nil {
		c.encodeFailed(util.StorageKey(space, key), kind.String(), err)
		return &EncodeError{Space: space, Key: key, Kind: kind.String(), Err: err}
	}
	return c.setRaw(ctx, space, key, codec.Seal(kind, payload))
}

func getTyped[V any](ctx context.Context, c *Cache, space, key string, kind codec.Kind, cd codec.Codec[V]) (V, bool) {
	var zero V
	space = spaceName(space)
	b, ok := c.getRaw(ctx, space, key)
	if !ok {
		return zero, false
	}
	payload, err := codec.Unseal(b, kind)
	if err != nil {
		reason := "value_decode"
		if errors.Is(err, codec.ErrKindMismatch) {
			reason = "kind_mismatch"
		}
		c.decodeMiss(util.StorageKey(space, key), reason, err)
		return zero, false
	}
	v, err := cd.Decode(payload)
	if err != nil {
		c.decodeMiss(util.StorageKey(space, key), "value_decode", err)
		return zero, false
	}
	return v, true
}

// SetObject stores v in s using cd for the payload.
func SetObject[V any](ctx context.Context, s *Space, key string, v V, cd codec.Codec[V]) error {
	return setTyped(ctx, s.c, s.name, key, codec.KindObject, cd, v)
}

// GetObject reads a value stored with SetObject. A value stored as a scalar
// kind, or one cd cannot decode, is a miss.
func GetObject[V any](ctx context.Context, s *Space, key string, cd codec.Codec[V]) (V, bool) {
	return getTyped(ctx, s.c, s.name, key, codec.KindObject, cd)
}

// Bool

func (c *Cache) SetBool(ctx context.Context, space, key string, v bool) error {
	return setTyped(ctx, c, space, key, codec.KindBool, codec.Bool{}, v)
}

func (c *Cache) LookupBool(ctx context.Context, space, key string) (bool, bool) {
	return getTyped(ctx, c, space, key, codec.KindBool, codec.Bool{})
}

func (c *Cache) GetBool(ctx context.Context, space, key string) bool {
	v, _ := c.LookupBool(ctx, space, key)
	return v
}

func (c *Cache) GetBoolOr(ctx context.Context, space, key string, def bool) bool {
	if v, ok := c.LookupBool(ctx, space, key); ok {
		return v
	}
	return def
}

func (s *Space) SetBool(ctx context.Context, key string, v bool) error {
	return s.c.SetBool(ctx, s.name, key, v)
}

func (s *Space) LookupBool(ctx context.Context, key string) (bool, bool) {
	return s.c.LookupBool(ctx, s.name, key)
}

func (s *Space) GetBool(ctx context.Context, key string) bool {
	return s.c.GetBool(ctx, s.name, key)
}

func (s *Space) GetBoolOr(ctx context.Context, key string, def bool) bool {
	return s.c.GetBoolOr(ctx, s.name, key, def)
}

// Int32

func (c *Cache) SetInt32(ctx context.Context, space, key string, v int32) error {
	return setTyped(ctx, c, space, key, codec.KindInt32, codec.Int32{}, v)
}

func (c *Cache) LookupInt32(ctx context.Context, space, key string) (int32, bool) {
	return getTyped(ctx, c, space, key, codec.KindInt32, codec.Int32{})
}

func (c *Cache) GetInt32(ctx context.Context, space, key string) int32 {
	v, _ := c.LookupInt32(ctx, space, key)
	return v
}

func (c *Cache) GetInt32Or(ctx context.Context, space, key string, def int32) int32 {
	if v, ok := c.LookupInt32(ctx, space, key); ok {
		return v
	}
	return def
}

func (s *Space) SetInt32(ctx context.Context, key string, v int32) error {
	return s.c.SetInt32(ctx, s.name, key, v)
}

func (s *Space) LookupInt32(ctx context.Context, key string) (int32, bool) {
	return s.c.LookupInt32(ctx, s.name, key)
}

func (s *Space) GetInt32(ctx context.Context, key string) int32 {
	return s.c.GetInt32(ctx, s.name, key)
}

func (s *Space) GetInt32Or(ctx context.Context, key string, def int32) int32 {
	return s.c.GetInt32Or(ctx, s.name, key, def)
}

// Uint32

func (c *Cache) SetUint32(ctx context.Context, space, key string, v uint32) error {
	return setTyped(ctx, c, space, key, codec.KindUint32, codec.Uint32{}, v)
}

func (c *Cache) LookupUint32(ctx context.Context, space, key string) (uint32, bool) {
	return getTyped(ctx, c, space, key, codec.KindUint32, codec.Uint32{})
}

func (c *Cache) GetUint32(ctx context.Context, space, key string) uint32 {
	v, _ := c.LookupUint32(ctx, space, key)
	return v
}

func (c *Cache) GetUint32Or(ctx context.Context, space, key string, def uint32) uint32 {
	if v, ok := c.LookupUint32(ctx, space, key); ok {
		return v
	}
	return def
}

func (s *Space) SetUint32(ctx context.Context, key string, v uint32) error {
	return s.c.SetUint32(ctx, s.name, key, v)
}

func (s *Space) LookupUint32(ctx context.Context, key string) (uint32, bool) {
	return s.c.LookupUint32(ctx, s.name, key)
}

func (s *Space) GetUint32(ctx context.Context, key string) uint32 {
	return s.c.GetUint32(ctx, s.name, key)
}

func (s *Space) GetUint32Or(ctx context.Context, key string, def uint32) uint32 {
	return s.c.GetUint32Or(ctx, s.name, key, def)
}

// Int64

func (c *Cache) SetInt64(ctx context.Context, space, key string, v int64) error {
	return setTyped(ctx, c, space, key, codec.KindInt64, codec.Int64{}, v)
}

func (c *Cache) LookupInt64(ctx context.Context, space, key string) (int64, bool) {
	return getTyped(ctx, c, space, key, codec.KindInt64, codec.Int64{})
}

func (c *Cache) GetInt64(ctx context.Context, space, key string) int64 {
	v, _ := c.LookupInt64(ctx, space, key)
	return v
}

func (c *Cache) GetInt64Or(ctx context.Context, space, key string, def int64) int64 {
	if v, ok := c.LookupInt64(ctx, space, key); ok {
		return v
	}
	return def
}

func (s *Space) SetInt64(ctx context.Context, key string, v int64) error {
	return s.c.SetInt64(ctx, s.name, key, v)
}

func (s *Space) LookupInt64(ctx context.Context, key string) (int64, bool) {
	return s.c.LookupInt64(ctx, s.name, key)
}

func (s *Space) GetInt64(ctx context.Context, key string) int64 {
	return s.c.GetInt64(ctx, s.name, key)
}

func (s *Space) GetInt64Or(ctx context.Context, key string, def int64) int64 {
	return s.c.GetInt64Or(ctx, s.name, key, def)
}

// Uint64

func (c *Cache) SetUint64(ctx context.Context, space, key string, v uint64) error {
	return setTyped(ctx, c, space, key, codec.KindUint64, codec.Uint64{}, v)
}

func (c *Cache) LookupUint64(ctx context.Context, space, key string) (uint64, bool) {
	return getTyped(ctx, c, space, key, codec.KindUint64, codec.Uint64{})
}

func (c *Cache) GetUint64(ctx context.Context, space, key string) uint64 {
	v, _ := c.LookupUint64(ctx, space, key)
	return v
}

func (c *Cache) GetUint64Or(ctx context.Context, space, key string, def uint64) uint64 {
	if v, ok := c.LookupUint64(ctx, space, key); ok {
		return v
	}
	return def
}

func (s *Space) SetUint64(ctx context.Context, key string, v uint64) error {
	return s.c.SetUint64(ctx, s.name, key, v)
}

func (s *Space) LookupUint64(ctx context.Context, key string) (uint64, bool) {
	return s.c.LookupUint64(ctx, s.name, key)
}

func (s *Space) GetUint64(ctx context.Context, key string) uint64 {
	return s.c.GetUint64(ctx, s.name, key)
}

func (s *Space) GetUint64Or(ctx context.Context, key string, def uint64) uint64 {
	return s.c.GetUint64Or(ctx, s.name, key, def)
}

// Float32

func (c *Cache) SetFloat32(ctx context.Context, space, key string, v float32) error {
	return setTyped(ctx, c, space, key, codec.KindFloat32, codec.Float32{}, v)
}

func (c *Cache) LookupFloat32(ctx context.Context, space, key string) (float32, bool) {
	return getTyped(ctx, c, space, key, codec.KindFloat32, codec.Float32{})
}

func (c *Cache) GetFloat32(ctx context.Context, space, key string) float32 {
	v, _ := c.LookupFloat32(ctx, space, key)
	return v
}

func (c *Cache) GetFloat32Or(ctx context.Context, space, key string, def float32) float32 {
	if v, ok := c.LookupFloat32(ctx, space, key); ok {
		return v
	}
	return def
}

func (s *Space) SetFloat32(ctx context.Context, key string, v float32) error {
	return s.c.SetFloat32(ctx, s.name, key, v)
}

func (s *Space) LookupFloat32(ctx context.Context, key string) (float32, bool) {
	return s.c.LookupFloat32(ctx, s.name, key)
}

func (s *Space) GetFloat32(ctx context.Context, key string) float32 {
	return s.c.GetFloat32(ctx, s.name, key)
}

func (s *Space) GetFloat32Or(ctx context.Context, key string, def float32) float32 {
	return s.c.GetFloat32Or(ctx, s.name, key, def)
}

// Float64

func (c *Cache) SetFloat64(ctx context.Context, space, key string, v float64) error {
	return setTyped(ctx, c, space, key, codec.KindFloat64, codec.Float64{}, v)
}

func (c *Cache) LookupFloat64(ctx context.Context, space, key string) (float64, bool) {
	return getTyped(ctx, c, space, key, codec.KindFloat64, codec.Float64{})
}

func (c *Cache) GetFloat64(ctx context.Context, space, key string) float64 {
	v, _ := c.LookupFloat64(ctx, space, key)
	return v
}

func (c *Cache) GetFloat64Or(ctx context.Context, space, key string, def float64) float64 {
	if v, ok := c.LookupFloat64(ctx, space, key); ok {
		return v
	}
	return def
}

func (s *Space) SetFloat64(ctx context.Context, key string, v float64) error {
	return s.c.SetFloat64(ctx, s.name, key, v)
}

func (s *Space) LookupFloat64(ctx context.Context, key string) (float64, bool) {
	return s.c.LookupFloat64(ctx, s.name, key)
}

func (s *Space) GetFloat64(ctx context.Context, key string) float64 {
	return s.c.GetFloat64(ctx, s.name, key)
}

func (s *Space) GetFloat64Or(ctx context.Context, key string, def float64) float64 {
	return s.c.GetFloat64Or(ctx, s.name, key, def)
}

// String

func (c *Cache) SetString(ctx context.Context, space, key string, v string) error {
	return setTyped(ctx, c, space, key, codec.KindString, codec.String{}, v)
}

func (c *Cache) LookupString(ctx context.Context, space, key string) (string, bool) {
	return getTyped(ctx, c, space, key, codec.KindString, codec.String{})
}

func (c *Cache) GetString(ctx context.Context, space, key string) string {
	v, _ := c.LookupString(ctx, space, key)
	return v
}

func (c *Cache) GetStringOr(ctx context.Context, space, key string, def string) string {
	if v, ok := c.LookupString(ctx, space, key); ok {
		return v
	}
	return def
}

func (s *Space) SetString(ctx context.Context, key string, v string) error {
	return s.c.SetString(ctx, s.name, key, v)
}

func (s *Space) LookupString(ctx context.Context, key string) (string, bool) {
	return s.c.LookupString(ctx, s.name, key)
}

func (s *Space) GetString(ctx context.Context, key string) string {
	return s.c.GetString(ctx, s.name, key)
}

func (s *Space) GetStringOr(ctx context.Context, key string, def string) string {
	return s.c.GetStringOr(ctx, s.name, key, def)
}

// Time

func (c *Cache) SetTime(ctx context.Context, space, key string, v time.Time) error {
	return setTyped(ctx, c, space, key, codec.KindTime, codec.Time{}, v)
}

func (c *Cache) LookupTime(ctx context.Context, space, key string) (time.Time, bool) {
	return getTyped(ctx, c, space, key, codec.KindTime, codec.Time{})
}

func (c *Cache) GetTime(ctx context.Context, space, key string) time.Time {
	v, _ := c.LookupTime(ctx, space, key)
	return v
}

func (c *Cache) GetTimeOr(ctx context.Context, space, key string, def time.Time) time.Time {
	if v, ok := c.LookupTime(ctx, space, key); ok {
		return v
	}
	return def
}

func (s *Space) SetTime(ctx context.Context, key string, v time.Time) error {
	return s.c.SetTime(ctx, s.name, key, v)
}

func (s *Space) LookupTime(ctx context.Context, key string) (time.Time, bool) {
	return s.c.LookupTime(ctx, s.name, key)
}

func (s *Space) GetTime(ctx context.Context, key string) time.Time {
	return s.c.GetTime(ctx, s.name, key)
}

func (s *Space) GetTimeOr(ctx context.Context, key string, def time.Time) time.Time {
	return s.c.GetTimeOr(ctx, s.name, key, def)
}

// Bytes

func (c *Cache) SetBytes(ctx context.Context, space, key string, v []byte) error {
	return setTyped(ctx, c, space, key, codec.KindBytes, codec.Bytes{}, v)
}

func (c *Cache) LookupBytes(ctx context.Context, space, key string) ([]byte, bool) {
	return getTyped(ctx, c, space, key, codec.KindBytes, codec.Bytes{})
}

func (c *Cache) GetBytes(ctx context.Context, space, key string) []byte {
	v, _ := c.LookupBytes(ctx, space, key)
	return v
}

func (c *Cache) GetBytesOr(ctx context.Context, space, key string, def []byte) []byte {
	if v, ok := c.LookupBytes(ctx, space, key); ok {
		return v
	}
	return def
}

func (s *Space) SetBytes(ctx context.Context, key string, v []byte) error {
	return s.c.SetBytes(ctx, s.name, key, v)
}

func (s *Space) LookupBytes(ctx context.Context, key string) ([]byte, bool) {
	return s.c.LookupBytes(ctx, s.name, key)
}

func (s *Space) GetBytes(ctx context.Context, key string) []byte {
	return s.c.GetBytes(ctx, s.name, key)
}

func (s *Space) GetBytesOr(ctx context.Context, key string, def []byte) []byte {
	return s.c.GetBytesOr(ctx, s.name, key, def)
}

// Kind reports the kind a stored value was written as. Like a Get, it
// promotes a disk hit into memory.
func (c *Cache) Kind(ctx context.Context, space, key string) (codec.Kind, bool) {
	b, ok := c.getRaw(ctx, spaceName(space), key)
	if !ok {
		return codec.KindInvalid, false
	}
	return codec.KindOf(b)
}

func (s *Space) Kind(ctx context.Context, key string) (codec.Kind, bool) {
	return s.c.Kind(ctx, s.name, key)
}
