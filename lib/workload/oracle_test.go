package workload

import (
	"hash/crc32"
	"testing"

	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/ValentinKolb/kvbench/lib/store/engines/btree"
	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var oraclePairs = [][2][]byte{
	{[]byte("k1"), []byte("v1")},
	{[]byte("k2"), []byte("value-2")},
	{[]byte("k3"), []byte{0, 1, 2}},
}

func feed(c Checksum, pairs [][2][]byte) uint64 {
	c.Reset()
	for _, p := range pairs {
		c.Add(p[0], p[1])
	}
	return c.Sum64()
}

func reversed(pairs [][2][]byte) [][2][]byte {
	out := make([][2][]byte, len(pairs))
	for i, p := range pairs {
		out[len(pairs)-1-i] = p
	}
	return out
}

func TestCRC32MatchesConcatenation(t *testing.T) {
	var all []byte
	for _, p := range oraclePairs {
		all = append(all, p[0]...)
		all = append(all, p[1]...)
	}
	assert.Equal(t, uint64(crc32.ChecksumIEEE(all)), feed(NewCRC32(), oraclePairs))
}

func TestCRC32OrderSensitive(t *testing.T) {
	c := NewCRC32()
	assert.NotEqual(t, feed(c, oraclePairs), feed(c, reversed(oraclePairs)))
}

func TestXXH64SumOrderInsensitive(t *testing.T) {
	x := NewXXH64Sum()
	forward := feed(x, oraclePairs)
	assert.Equal(t, forward, feed(x, reversed(oraclePairs)))

	var want uint64
	for _, p := range oraclePairs {
		want += xxhash.Sum64(p[0]) + xxhash.Sum64(p[1])
	}
	assert.Equal(t, want, forward)
}

func TestChecksumReset(t *testing.T) {
	for _, c := range []Checksum{NewCRC32(), NewXXH64Sum()} {
		first := feed(c, oraclePairs)
		assert.Equal(t, first, feed(c, oraclePairs))
	}
}

func TestChecksumStore(t *testing.T) {
	s, err := btree.NewBTreeStore(store.Options{Dir: t.TempDir(), KeySize: 2, ValueSize: 8})
	require.NoError(t, err)
	defer s.Close()

	w, err := s.WriteTxn()
	require.NoError(t, err)
	for _, p := range reversed(oraclePairs) {
		require.NoError(t, w.Put(p[0], p[1]))
	}
	require.NoError(t, w.Commit())

	r, err := s.ReadTxn()
	require.NoError(t, err)
	defer r.Close()

	crc, xxh := NewCRC32(), NewXXH64Sum()
	n, err := ChecksumStore(r, crc, xxh)
	require.NoError(t, err)
	assert.Equal(t, len(oraclePairs), n)
	// the cursor visits in ascending key order, which is the order of oraclePairs
	assert.Equal(t, feed(NewCRC32(), oraclePairs), crc.Sum64())
	assert.Equal(t, feed(NewXXH64Sum(), oraclePairs), xxh.Sum64())
}
