package workload

import (
	"bytes"
	"encoding/binary"
	"sort"
	"testing"

	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyCodecEncodings(t *testing.T) {
	tests := []struct {
		name  string
		kind  KeyKind
		width int
		order KeyOrder
		key   uint64
		want  []byte
	}{
		{"int32 big", KeyInt, 4, OrderBig, 0x0a0b0c0d, []byte{0x0a, 0x0b, 0x0c, 0x0d}},
		{"int64 big", KeyInt, 8, OrderBig, 1, []byte{0, 0, 0, 0, 0, 0, 0, 1}},
		{"string", KeyString, 0, "", 42, []byte("0000000000000042")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewKeyCodec(tt.kind, tt.width, tt.order)
			require.NoError(t, err)
			dst := make([]byte, c.Size())
			c.Put(dst, tt.key)
			assert.Equal(t, tt.want, dst)
			assert.Equal(t, tt.key, c.Decode(dst))
		})
	}
}

func TestKeyCodecNative(t *testing.T) {
	c, err := NewKeyCodec(KeyInt, 4, OrderNative)
	require.NoError(t, err)
	dst := make([]byte, 4)
	c.Put(dst, 7)
	assert.Equal(t, uint32(7), binary.NativeEndian.Uint32(dst))
	assert.True(t, c.NativeInteger())
	assert.Equal(t, nativeIsBig, c.OrderPreserving())
}

func TestKeyCodecOrderPreserving(t *testing.T) {
	for _, kind := range []KeyKind{KeyInt, KeyString} {
		c, err := NewKeyCodec(kind, 8, OrderBig)
		require.NoError(t, err)
		require.True(t, c.OrderPreserving())

		keys := []uint64{9, 10, 99, 100, 1 << 20, 3}
		arena := NewKeyArena(c, keys)
		idx := []int{0, 1, 2, 3, 4, 5}
		sort.Slice(idx, func(a, b int) bool { return bytes.Compare(arena.Key(idx[a]), arena.Key(idx[b])) < 0 })
		for i := 1; i < len(idx); i++ {
			assert.Less(t, keys[idx[i-1]], keys[idx[i]])
		}
	}
}

func TestKeyCodecSpace(t *testing.T) {
	c32, _ := NewKeyCodec(KeyInt, 4, OrderBig)
	c64, _ := NewKeyCodec(KeyInt, 8, OrderBig)
	cs, _ := NewKeyCodec(KeyString, 0, "")
	assert.Equal(t, uint64(1<<31), c32.Space())
	assert.Equal(t, uint64(1<<63), c64.Space())
	assert.Equal(t, uint64(1<<31), cs.Space())
	assert.Equal(t, 4, c32.ValuePrefix())
	assert.Equal(t, 8, c64.ValuePrefix())
	assert.Equal(t, 4, cs.ValuePrefix())
}

func TestKeyCodecErrors(t *testing.T) {
	_, err := NewKeyCodec("uuid", 4, OrderBig)
	assert.True(t, store.IsCode(err, store.RetCConfiguration))
	_, err = NewKeyCodec(KeyInt, 6, OrderBig)
	assert.True(t, store.IsCode(err, store.RetCConfiguration))
	_, err = NewKeyCodec(KeyInt, 4, "middle")
	assert.True(t, store.IsCode(err, store.RetCConfiguration))
}

func TestKeyArenaStable(t *testing.T) {
	c, err := NewKeyCodec(KeyInt, 4, OrderBig)
	require.NoError(t, err)
	arena := NewKeyArena(c, []uint64{3, 1, 2})
	require.Equal(t, 3, arena.Len())

	k := arena.Key(1)
	assert.Equal(t, []byte{0, 0, 0, 1}, k)
	assert.Equal(t, uint64(1), arena.Int(1))
	// appending to a key must not clobber its neighbour
	_ = append(k, 0xff)
	assert.Equal(t, []byte{0, 0, 0, 2}, arena.Key(2))
}
