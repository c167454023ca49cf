package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/unkn0wn-root/spacecache"
	"github.com/unkn0wn-root/spacecache/codec"
)

// valueType parses and formats one kind of value on the command line.
type valueType struct {
	kind codec.Kind
	set  func(ctx context.Context, s *spacecache.Space, key, raw string) error
	get  func(ctx context.Context, s *spacecache.Space, key string) (string, bool)
}

var valueTypes = map[string]valueType{
	"bool": {
		kind: codec.KindBool,
		set: func(ctx context.Context, s *spacecache.Space, key, raw string) error {
			v, err := strconv.ParseBool(raw)
			if err != nil {
				return err
			}
			return s.SetBool(ctx, key, v)
		},
		get: func(ctx context.Context, s *spacecache.Space, key string) (string, bool) {
			v, ok := s.LookupBool(ctx, key)
			return strconv.FormatBool(v), ok
		},
	},
	"int32": {
		kind: codec.KindInt32,
		set: func(ctx context.Context, s *spacecache.Space, key, raw string) error {
			v, err := strconv.ParseInt(raw, 10, 32)
			if err != nil {
				return err
			}
			return s.SetInt32(ctx, key, int32(v))
		},
		get: func(ctx context.Context, s *spacecache.Space, key string) (string, bool) {
			v, ok := s.LookupInt32(ctx, key)
			return strconv.FormatInt(int64(v), 10), ok
		},
	},
	"uint32": {
		kind: codec.KindUint32,
		set: func(ctx context.Context, s *spacecache.Space, key, raw string) error {
			v, err := strconv.ParseUint(raw, 10, 32)
			if err != nil {
				return err
			}
			return s.SetUint32(ctx, key, uint32(v))
		},
		get: func(ctx context.Context, s *spacecache.Space, key string) (string, bool) {
			v, ok := s.LookupUint32(ctx, key)
			return strconv.FormatUint(uint64(v), 10), ok
		},
	},
	"int64": {
		kind: codec.KindInt64,
		set: func(ctx context.Context, s *spacecache.Space, key, raw string) error {
			v, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return err
			}
			return s.SetInt64(ctx, key, v)
		},
		get: func(ctx context.Context, s *spacecache.Space, key string) (string, bool) {
			v, ok := s.LookupInt64(ctx, key)
			return strconv.FormatInt(v, 10), ok
		},
	},
	"uint64": {
		kind: codec.KindUint64,
		set: func(ctx context.Context, s *spacecache.Space, key, raw string) error {
			v, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				return err
			}
			return s.SetUint64(ctx, key, v)
		},
		get: func(ctx context.Context, s *spacecache.Space, key string) (string, bool) {
			v, ok := s.LookupUint64(ctx, key)
			return strconv.FormatUint(v, 10), ok
		},
	},
	"float32": {
		kind: codec.KindFloat32,
		set: func(ctx context.Context, s *spacecache.Space, key, raw string) error {
			v, err := strconv.ParseFloat(raw, 32)
			if err != nil {
				return err
			}
			return s.SetFloat32(ctx, key, float32(v))
		},
		get: func(ctx context.Context, s *spacecache.Space, key string) (string, bool) {
			v, ok := s.LookupFloat32(ctx, key)
			return strconv.FormatFloat(float64(v), 'g', -1, 32), ok
		},
	},
	"float64": {
		kind: codec.KindFloat64,
		set: func(ctx context.Context, s *spacecache.Space, key, raw string) error {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return err
			}
			return s.SetFloat64(ctx, key, v)
		},
		get: func(ctx context.Context, s *spacecache.Space, key string) (string, bool) {
			v, ok := s.LookupFloat64(ctx, key)
			return strconv.FormatFloat(v, 'g', -1, 64), ok
		},
	},
	"string": {
		kind: codec.KindString,
		set: func(ctx context.Context, s *spacecache.Space, key, raw string) error {
			return s.SetString(ctx, key, raw)
		},
		get: func(ctx context.Context, s *spacecache.Space, key string) (string, bool) {
			return s.LookupString(ctx, key)
		},
	},
	"time": {
		kind: codec.KindTime,
		set: func(ctx context.Context, s *spacecache.Space, key, raw string) error {
			v, err := time.Parse(time.RFC3339Nano, raw)
			if err != nil {
				return err
			}
			return s.SetTime(ctx, key, v)
		},
		get: func(ctx context.Context, s *spacecache.Space, key string) (string, bool) {
			v, ok := s.LookupTime(ctx, key)
			return v.Format(time.RFC3339Nano), ok
		},
	},
	"bytes": {
		kind: codec.KindBytes,
		set: func(ctx context.Context, s *spacecache.Space, key, raw string) error {
			v, err := base64.StdEncoding.DecodeString(raw)
			if err != nil {
				return err
			}
			return s.SetBytes(ctx, key, v)
		},
		get: func(ctx context.Context, s *spacecache.Space, key string) (string, bool) {
			v, ok := s.LookupBytes(ctx, key)
			return base64.StdEncoding.EncodeToString(v), ok
		},
	},
	"object": {
		kind: codec.KindObject,
		// the payload is stored as given, e.g. a JSON document
		set: func(ctx context.Context, s *spacecache.Space, key, raw string) error {
			return spacecache.SetObject(ctx, s, key, []byte(raw), codec.Bytes{})
		},
		get: func(ctx context.Context, s *spacecache.Space, key string) (string, bool) {
			v, ok := spacecache.GetObject(ctx, s, key, codec.Codec[[]byte](codec.Bytes{}))
			if !ok {
				return "", false
			}
			if utf8.Valid(v) {
				return string(v), true
			}
			return base64.StdEncoding.EncodeToString(v), true
		},
	},
}

func lookupType(name string) (valueType, error) {
	vt, ok := valueTypes[name]
	if !ok {
		return valueType{}, fmt.Errorf("unknown type %q (want one of %s)", name, typeNames())
	}
	return vt, nil
}

// typeFor returns the value type matching a stored kind.
func typeFor(k codec.Kind) (valueType, bool) {
	for _, vt := range valueTypes {
		if vt.kind == k {
			return vt, true
		}
	}
	return valueType{}, false
}

func typeNames() string {
	names := make([]string, 0, len(valueTypes))
	for n := range valueTypes {
		names = append(names, n)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
