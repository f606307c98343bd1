package btree

import (
	"testing"

	"github.com/ValentinKolb/kvbench/lib/store"
	storetesting "github.com/ValentinKolb/kvbench/lib/store/testing"
	"github.com/stretchr/testify/require"
)

func Test(t *testing.T) {
	storetesting.RunStoreTests(t, "BTree", NewBTreeStore)
}

func Benchmark(b *testing.B) {
	storetesting.RunStoreBenchmarks(b, "BTree", NewBTreeStore)
}

func TestReadTxnIsSnapshot(t *testing.T) {
	s, err := NewBTreeStore(store.Options{Dir: t.TempDir(), KeySize: 1, ValueSize: 1})
	require.NoError(t, err)
	defer s.Close()

	w, err := s.WriteTxn()
	require.NoError(t, err)
	require.NoError(t, w.Put([]byte("a"), []byte("1")))
	require.NoError(t, w.Commit())

	r, err := s.ReadTxn()
	require.NoError(t, err)
	defer r.Close()

	w, err = s.WriteTxn()
	require.NoError(t, err)
	require.NoError(t, w.Put([]byte("b"), []byte("2")))
	require.NoError(t, w.Commit())

	_, err = r.Get([]byte("b"))
	require.ErrorIs(t, err, store.ErrKeyNotFound)
	v, err := r.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), v)
}

func TestSingleWriter(t *testing.T) {
	s, err := NewBTreeStore(store.Options{Dir: t.TempDir(), KeySize: 1, ValueSize: 1})
	require.NoError(t, err)
	defer s.Close()

	w, err := s.WriteTxn()
	require.NoError(t, err)
	_, err = s.WriteTxn()
	require.Error(t, err)

	w.Abort()
	w, err = s.WriteTxn()
	require.NoError(t, err)
	w.Abort()
}
