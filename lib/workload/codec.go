package workload

import (
	"encoding/binary"
	"strings"

	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/ValentinKolb/kvbench/lib/util"
)

// KeyKind selects how integer keys are stored.
type KeyKind string

const (
	KeyInt    KeyKind = "int"
	KeyString KeyKind = "string"
)

// KeyOrder selects the byte order of integer keys.
type KeyOrder string

const (
	OrderBig    KeyOrder = "big"
	OrderNative KeyOrder = "native"
)

// StringKeyLength is the width of zero-padded decimal string keys.
const StringKeyLength = 16

// nativeIsBig is true on big-endian hosts.
var nativeIsBig = binary.NativeEndian.Uint16([]byte{0, 1}) == 1

// KeyCodec encodes the integer keys of a run into their stored form.
// Keys are always integers; they are stored either as 4 or 8 byte integers
// or as zero-padded 16 byte decimal strings.
type KeyCodec struct {
	kind  KeyKind
	width int
	order binary.ByteOrder
	big   bool
}

// NewKeyCodec validates the key parameters and returns a codec.
func NewKeyCodec(kind KeyKind, width int, order KeyOrder) (KeyCodec, error) {
	switch KeyKind(strings.ToLower(string(kind))) {
	case KeyString:
		return KeyCodec{kind: KeyString, width: StringKeyLength, big: true}, nil
	case KeyInt:
	default:
		return KeyCodec{}, store.ConfigError("invalid key kind %q (expected int or string)", kind)
	}

	if width != 4 && width != 8 {
		return KeyCodec{}, store.ConfigError("invalid integer key width %d (expected 4 or 8)", width)
	}

	c := KeyCodec{kind: KeyInt, width: width}
	switch KeyOrder(strings.ToLower(string(order))) {
	case OrderBig, "":
		c.order = binary.BigEndian
		c.big = true
	case OrderNative:
		c.order = binary.NativeEndian
		c.big = nativeIsBig
	default:
		return KeyCodec{}, store.ConfigError("invalid key order %q (expected big or native)", order)
	}
	return c, nil
}

// Kind returns the key kind.
func (c KeyCodec) Kind() KeyKind { return c.kind }

// Size returns the encoded key width in bytes.
func (c KeyCodec) Size() int { return c.width }

// Space returns the number of distinct keys the codec can represent. Random
// keys are drawn from [0, Space).
func (c KeyCodec) Space() uint64 {
	if c.kind == KeyInt && c.width == 8 {
		return 1 << 63
	}
	return 1 << 31
}

// ValuePrefix returns the width of the key encoding placed at the start of
// deterministic values.
func (c KeyCodec) ValuePrefix() int {
	if c.kind == KeyInt && c.width == 8 {
		return 8
	}
	return 4
}

// OrderPreserving reports whether byte-wise comparison of encoded keys equals
// numeric comparison of the keys, so that an engine's ascending cursor order
// is the numeric key order.
func (c KeyCodec) OrderPreserving() bool {
	return c.big
}

// NativeInteger reports whether keys are native-order integers that an
// engine integer comparator understands.
func (c KeyCodec) NativeInteger() bool {
	return c.kind == KeyInt && c.order == binary.NativeEndian
}

// Put encodes key into dst, which must be at least Size bytes long.
func (c KeyCodec) Put(dst []byte, key uint64) {
	switch {
	case c.kind == KeyString:
		util.PutDecimal(dst[:StringKeyLength], key)
	case c.width == 4:
		c.order.PutUint32(dst, uint32(key))
	default:
		c.order.PutUint64(dst, key)
	}
}

// Decode returns the integer key of an encoded key.
func (c KeyCodec) Decode(src []byte) uint64 {
	switch {
	case c.kind == KeyString:
		var n uint64
		for _, b := range src[:StringKeyLength] {
			n = n*10 + uint64(b-'0')
		}
		return n
	case c.width == 4:
		return uint64(c.order.Uint32(src))
	default:
		return c.order.Uint64(src)
	}
}

// KeyArena holds the encoded keys of one run in a single immutable buffer.
// Slices handed out by Key stay valid for the lifetime of the arena, which
// lets engines that require stable keys until commit reference them directly.
type KeyArena struct {
	codec KeyCodec
	keys  []uint64
	buf   []byte
}

// NewKeyArena encodes keys with codec.
func NewKeyArena(codec KeyCodec, keys []uint64) *KeyArena {
	size := codec.Size()
	buf := make([]byte, len(keys)*size)
	for i, k := range keys {
		codec.Put(buf[i*size:(i+1)*size], k)
	}
	return &KeyArena{codec: codec, keys: keys, buf: buf}
}

// Len returns the number of keys.
func (a *KeyArena) Len() int { return len(a.keys) }

// Key returns the encoded key at insertion position i.
func (a *KeyArena) Key(i int) []byte {
	size := a.codec.Size()
	return a.buf[i*size : (i+1)*size : (i+1)*size]
}

// Int returns the integer key at insertion position i.
func (a *KeyArena) Int(i int) uint64 { return a.keys[i] }

// Codec returns the codec used to encode the arena.
func (a *KeyArena) Codec() KeyCodec { return a.codec }
