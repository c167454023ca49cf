package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

const (
	version byte = 1

	// FlagZstd marks a record whose value is zstd compressed.
	FlagZstd byte = 1 << 0

	// HeaderSize is the fixed part of a record before space, key and value.
	HeaderSize = 4 + 1 + 1 + 2 + 2 + 4
	// TrailerSize is the checksum after the value.
	TrailerSize = 8

	maxNameLen = 0xFFFF
)

var (
	ErrCorrupt = errors.New("spacecache: corrupt record")
	magic4     = [...]byte{'S', 'P', 'C', 'D'}
)

// Record is one persisted entry.
type Record struct {
	Flags byte
	Space string
	Key   string
	Value []byte
}

// Header is the decoded prefix of a record, enough to index it without
// reading the value.
type Header struct {
	Flags    byte
	Space    string
	Key      string
	ValueLen int
}

// Size returns the total encoded length of the record the header belongs to.
func (h Header) Size() int64 {
	return int64(HeaderSize + len(h.Space) + len(h.Key) + h.ValueLen + TrailerSize)
}

// Record layout:
//
//	magic(4) | ver(1) | flags(1) | slen(u16 be) | klen(u16 be) | vlen(u32 be)
//	space(slen) | key(klen) | value(vlen) | xxhash64(u64 be, over all preceding bytes)
func EncodeRecord(r Record) ([]byte, error) {
	if len(r.Space) > maxNameLen {
		return nil, fmt.Errorf("spacecache: space name too long (%d bytes)", len(r.Space))
	}
	if len(r.Key) > maxNameLen {
		return nil, fmt.Errorf("spacecache: key too long (%d bytes)", len(r.Key))
	}
	if uint64(len(r.Value)) > 0xFFFFFFFF {
		return nil, fmt.Errorf("spacecache: value too large (%d bytes)", len(r.Value))
	}

	var buf bytes.Buffer
	buf.Grow(HeaderSize + len(r.Space) + len(r.Key) + len(r.Value) + TrailerSize)

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(r.Flags)

	var u2 [2]byte
	var u4 [4]byte
	var u8 [8]byte

	binary.BigEndian.PutUint16(u2[:], uint16(len(r.Space)))
	buf.Write(u2[:])
	binary.BigEndian.PutUint16(u2[:], uint16(len(r.Key)))
	buf.Write(u2[:])
	binary.BigEndian.PutUint32(u4[:], uint32(len(r.Value)))
	buf.Write(u4[:])

	buf.WriteString(r.Space)
	buf.WriteString(r.Key)
	buf.Write(r.Value)

	binary.BigEndian.PutUint64(u8[:], xxhash.Sum64(buf.Bytes()))
	buf.Write(u8[:])
	return buf.Bytes(), nil
}

// DecodeHeader parses the record prefix. b must hold at least the fixed
// header plus the space and key bytes.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize || !bytes.Equal(b[:4], magic4[:]) || b[4] != version {
		return Header{}, ErrCorrupt
	}
	h := Header{Flags: b[5]}
	slen := int(binary.BigEndian.Uint16(b[6:8]))
	klen := int(binary.BigEndian.Uint16(b[8:10]))
	h.ValueLen = int(binary.BigEndian.Uint32(b[10:14]))

	off := HeaderSize
	if slen+klen > len(b)-off {
		return Header{}, ErrCorrupt
	}
	h.Space = string(b[off : off+slen])
	off += slen
	h.Key = string(b[off : off+klen])
	return h, nil
}

// NamesLen returns how many space and key bytes follow the fixed header,
// so an index scan can read a record prefix without the value.
func NamesLen(fixed []byte) (int, error) {
	if len(fixed) < HeaderSize || !bytes.Equal(fixed[:4], magic4[:]) || fixed[4] != version {
		return 0, ErrCorrupt
	}
	return int(binary.BigEndian.Uint16(fixed[6:8])) + int(binary.BigEndian.Uint16(fixed[8:10])), nil
}

// DecodeRecord validates and decodes a full record. The value aliases b.
func DecodeRecord(b []byte) (Record, error) {
	h, err := DecodeHeader(b)
	if err != nil {
		return Record{}, err
	}
	if int64(len(b)) != h.Size() {
		return Record{}, ErrCorrupt
	}
	body := len(b) - TrailerSize
	if xxhash.Sum64(b[:body]) != binary.BigEndian.Uint64(b[body:]) {
		return Record{}, ErrCorrupt
	}
	off := HeaderSize + len(h.Space) + len(h.Key)
	return Record{
		Flags: h.Flags,
		Space: h.Space,
		Key:   h.Key,
		Value: b[off : off+h.ValueLen],
	}, nil
}
