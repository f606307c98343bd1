package lmdb

import (
	"encoding/binary"
	"testing"

	"github.com/ValentinKolb/kvbench/lib/store"
	storetesting "github.com/ValentinKolb/kvbench/lib/store/testing"
	"github.com/stretchr/testify/require"
)

func Test(t *testing.T) {
	storetesting.RunStoreTests(t, "LMDB", NewLMDBStore)
	storetesting.RunStoreTests(t, "LMDBRaw", NewLMDBRawStore)
}

func Benchmark(b *testing.B) {
	storetesting.RunStoreBenchmarks(b, "LMDB", NewLMDBStore)
	storetesting.RunStoreBenchmarks(b, "LMDBRaw", NewLMDBRawStore)
}

func TestAppendRejectsUnorderedKeys(t *testing.T) {
	s, err := NewLMDBStore(store.Options{Dir: t.TempDir(), Entries: 10, KeySize: 8, ValueSize: 8, Sequential: true})
	require.NoError(t, err)
	defer s.Close()

	txn, err := s.WriteTxn()
	require.NoError(t, err)
	defer txn.Abort()

	key := func(i uint64) []byte {
		k := make([]byte, 8)
		binary.BigEndian.PutUint64(k, i)
		return k
	}
	require.NoError(t, txn.Put(key(2), []byte("two")))
	err = txn.Put(key(1), []byte("one"))
	require.True(t, store.IsCode(err, store.RetCEngine), "expected an engine error, got %v", err)
}

func TestRawReadsAliasMap(t *testing.T) {
	s, err := NewLMDBRawStore(store.Options{Dir: t.TempDir(), Entries: 1, KeySize: 1, ValueSize: 3, WriteMap: true})
	require.NoError(t, err)
	defer s.Close()

	w, err := s.WriteTxn()
	require.NoError(t, err)
	require.NoError(t, w.Put([]byte("k"), []byte("abc")))
	require.NoError(t, w.Commit())

	r, err := s.ReadTxn()
	require.NoError(t, err)
	defer r.Close()
	v, err := r.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), v)
	require.Contains(t, s.Info().Engine, "raw")
}
