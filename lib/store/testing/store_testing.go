package testing

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// RunStoreTests runs a comprehensive test suite for a store adapter.
func RunStoreTests(t *testing.T, name string, factory store.Factory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Put&Get", func(t *testing.T) {
			testPutGet(t, factory)
		})

		t.Run("GetMissing", func(t *testing.T) {
			testGetMissing(t, factory)
		})

		t.Run("Abort", func(t *testing.T) {
			testAbort(t, factory)
		})

		t.Run("TxnLifecycle", func(t *testing.T) {
			testTxnLifecycle(t, factory)
		})

		t.Run("RepeatedCycles", func(t *testing.T) {
			testRepeatedCycles(t, factory)
		})

		t.Run("SequentialAppend", func(t *testing.T) {
			testSequentialAppend(t, factory)
		})

		t.Run("First", func(t *testing.T) {
			testFirst(t, factory)
		})

		t.Run("FirstEmpty", func(t *testing.T) {
			testFirstEmpty(t, factory)
		})

		t.Run("ScanForward", func(t *testing.T) {
			testScanForward(t, factory)
		})

		t.Run("ScanReverse", func(t *testing.T) {
			testScanReverse(t, factory)
		})

		t.Run("ScanEmpty", func(t *testing.T) {
			testScanEmpty(t, factory)
		})

		t.Run("ScanStops", func(t *testing.T) {
			testScanStops(t, factory)
		})

		t.Run("Unsupported", func(t *testing.T) {
			testUnsupported(t, factory)
		})

		t.Run("IntegerKey", func(t *testing.T) {
			testIntegerKey(t, factory)
		})

		t.Run("Durable", func(t *testing.T) {
			testDurable(t, factory)
		})

		t.Run("Info", func(t *testing.T) {
			testInfo(t, factory)
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

const (
	testEntries   = 1000
	testKeySize   = 8
	testValueSize = 32
)

// Checks if the store supports the specified feature
// Skip the test if it is not supported
func requireFeature(t testing.TB, s store.Store, feature store.Feature) {
	if !s.Features().Has(feature) {
		t.Skip()
	}
}

// testOptions returns options for a fresh store in a test directory.
func testOptions(t testing.TB, entries int) store.Options {
	return store.Options{
		Dir:        t.TempDir(),
		Entries:    entries,
		KeySize:    testKeySize,
		ValueSize:  testValueSize,
		Sequential: false,
	}
}

// open creates a store and closes it when the test ends.
func open(t testing.TB, factory store.Factory, opts store.Options) store.Store {
	s, err := factory(opts)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

// testKey encodes i big-endian so byte order equals numeric order.
func testKey(i int) []byte {
	k := make([]byte, testKeySize)
	binary.BigEndian.PutUint64(k, uint64(i))
	return k
}

func testValue(i int) []byte {
	v := make([]byte, testValueSize)
	copy(v, fmt.Sprintf("value-%d", i))
	return v
}

// pair is a copied (key, value) entry.
type pair struct {
	Key   []byte
	Value []byte
}

// fill writes the given key indices in one transaction.
func fill(t testing.TB, s store.Store, indices []int) {
	txn, err := s.WriteTxn()
	require.NoError(t, err)
	defer txn.Abort()
	for _, i := range indices {
		require.NoError(t, txn.Put(testKey(i), testValue(i)))
	}
	require.NoError(t, txn.Commit())
}

// shuffled returns 0..n-1 in a fixed pseudo-random order.
func shuffled(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	r := rand.New(rand.NewSource(42))
	r.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
	return idx
}

// collect scans the store and copies every visited entry.
func collect(t testing.TB, s store.Store, dir store.Direction) []pair {
	txn, err := s.ReadTxn()
	require.NoError(t, err)
	defer txn.Close()

	var out []pair
	err = txn.Scan(dir, func(key, value []byte) error {
		out = append(out, pair{Key: bytes.Clone(key), Value: bytes.Clone(value)})
		return nil
	})
	require.NoError(t, err)
	return out
}

func expected(n int, dir store.Direction) []pair {
	out := make([]pair, n)
	for i := 0; i < n; i++ {
		out[i] = pair{Key: testKey(i), Value: testValue(i)}
	}
	if dir == store.Reverse {
		sort.SliceStable(out, func(a, b int) bool { return bytes.Compare(out[a].Key, out[b].Key) > 0 })
	}
	return out
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testPutGet(t *testing.T, factory store.Factory) {
	s := open(t, factory, testOptions(t, testEntries))
	requireFeature(t, s, store.FeaturePut|store.FeatureGet)

	indices := shuffled(testEntries)
	fill(t, s, indices)

	txn, err := s.ReadTxn()
	require.NoError(t, err)
	defer txn.Close()

	for _, i := range indices {
		value, err := txn.Get(testKey(i))
		require.NoError(t, err, "key %d", i)
		if !bytes.Equal(value, testValue(i)) {
			t.Errorf("Expected value %q for key %d, got %q", testValue(i), i, value)
		}
	}
}

func testGetMissing(t *testing.T, factory store.Factory) {
	s := open(t, factory, testOptions(t, 10))
	requireFeature(t, s, store.FeaturePut|store.FeatureGet)

	fill(t, s, []int{1, 2, 3})

	txn, err := s.ReadTxn()
	require.NoError(t, err)
	defer txn.Close()

	_, err = txn.Get(testKey(4))
	if !errors.Is(err, store.ErrKeyNotFound) {
		t.Errorf("Expected ErrKeyNotFound for a missing key, got %v", err)
	}
	if !store.IsCode(err, store.RetCKeyNotFound) {
		t.Errorf("Expected a KeyNotFoundError code, got %v", err)
	}
}

func testAbort(t *testing.T, factory store.Factory) {
	s := open(t, factory, testOptions(t, 10))
	requireFeature(t, s, store.FeaturePut|store.FeatureGet)

	fill(t, s, []int{1})

	txn, err := s.WriteTxn()
	require.NoError(t, err)
	require.NoError(t, txn.Put(testKey(2), testValue(2)))
	txn.Abort()

	rtxn, err := s.ReadTxn()
	require.NoError(t, err)
	defer rtxn.Close()

	_, err = rtxn.Get(testKey(2))
	if !errors.Is(err, store.ErrKeyNotFound) {
		t.Errorf("Expected aborted put to be discarded, got %v", err)
	}
	value, err := rtxn.Get(testKey(1))
	require.NoError(t, err)
	require.Equal(t, testValue(1), value)
}

func testTxnLifecycle(t *testing.T, factory store.Factory) {
	s := open(t, factory, testOptions(t, 10))
	requireFeature(t, s, store.FeaturePut)

	txn, err := s.WriteTxn()
	require.NoError(t, err)
	require.NoError(t, txn.Put(testKey(1), testValue(1)))
	require.NoError(t, txn.Commit())

	// abort after commit is a no-op
	txn.Abort()

	if err := txn.Commit(); err == nil {
		t.Errorf("Expected second commit to fail")
	}
	if err := txn.Put(testKey(2), testValue(2)); err == nil {
		t.Errorf("Expected put on a committed transaction to fail")
	}

	rtxn, err := s.ReadTxn()
	require.NoError(t, err)
	rtxn.Close()
	rtxn.Close()

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func testRepeatedCycles(t *testing.T, factory store.Factory) {
	s := open(t, factory, testOptions(t, 300))
	requireFeature(t, s, store.FeaturePut|store.FeatureGet)

	for cycle := 0; cycle < 3; cycle++ {
		var indices []int
		for i := cycle * 100; i < (cycle+1)*100; i++ {
			indices = append(indices, i)
		}
		fill(t, s, indices)

		txn, err := s.ReadTxn()
		require.NoError(t, err)
		for i := 0; i < (cycle+1)*100; i++ {
			value, err := txn.Get(testKey(i))
			require.NoError(t, err, "cycle %d key %d", cycle, i)
			require.Equal(t, testValue(i), value)
		}
		txn.Close()
	}
}

func testSequentialAppend(t *testing.T, factory store.Factory) {
	opts := testOptions(t, testEntries)
	opts.Sequential = true
	s := open(t, factory, opts)
	requireFeature(t, s, store.FeaturePut|store.FeatureGet)

	indices := make([]int, testEntries)
	for i := range indices {
		indices[i] = i
	}
	fill(t, s, indices)

	txn, err := s.ReadTxn()
	require.NoError(t, err)
	defer txn.Close()
	for _, i := range indices {
		value, err := txn.Get(testKey(i))
		require.NoError(t, err)
		require.Equal(t, testValue(i), value)
	}
}

func testFirst(t *testing.T, factory store.Factory) {
	s := open(t, factory, testOptions(t, 100))
	requireFeature(t, s, store.FeaturePut|store.FeatureFirst)

	fill(t, s, shuffled(100))

	txn, err := s.ReadTxn()
	require.NoError(t, err)
	defer txn.Close()

	key, value, err := txn.First()
	require.NoError(t, err)
	require.Equal(t, testKey(0), key)
	require.Equal(t, testValue(0), value)
}

func testFirstEmpty(t *testing.T, factory store.Factory) {
	s := open(t, factory, testOptions(t, 0))
	requireFeature(t, s, store.FeatureFirst)

	txn, err := s.ReadTxn()
	require.NoError(t, err)
	defer txn.Close()

	_, _, err = txn.First()
	if !errors.Is(err, store.ErrKeyNotFound) {
		t.Errorf("Expected ErrKeyNotFound for First on an empty store, got %v", err)
	}
}

func testScanForward(t *testing.T, factory store.Factory) {
	s := open(t, factory, testOptions(t, testEntries))
	requireFeature(t, s, store.FeaturePut|store.FeatureScan)

	fill(t, s, shuffled(testEntries))

	if diff := cmp.Diff(expected(testEntries, store.Forward), collect(t, s, store.Forward)); diff != "" {
		t.Errorf("forward scan mismatch (-want +got):\n%s", diff)
	}
}

func testScanReverse(t *testing.T, factory store.Factory) {
	s := open(t, factory, testOptions(t, testEntries))
	requireFeature(t, s, store.FeaturePut|store.FeatureScan|store.FeatureReverseScan)

	fill(t, s, shuffled(testEntries))

	forward := collect(t, s, store.Forward)
	reverse := collect(t, s, store.Reverse)
	require.Len(t, reverse, len(forward))
	for i := range forward {
		if !bytes.Equal(forward[i].Key, reverse[len(reverse)-1-i].Key) {
			t.Fatalf("reverse scan entry %d is %x, expected %x", len(reverse)-1-i, reverse[len(reverse)-1-i].Key, forward[i].Key)
		}
	}
	if diff := cmp.Diff(expected(testEntries, store.Reverse), reverse); diff != "" {
		t.Errorf("reverse scan mismatch (-want +got):\n%s", diff)
	}
}

func testScanEmpty(t *testing.T, factory store.Factory) {
	s := open(t, factory, testOptions(t, 0))
	requireFeature(t, s, store.FeatureScan|store.FeatureReverseScan)

	require.Empty(t, collect(t, s, store.Forward))
	require.Empty(t, collect(t, s, store.Reverse))
}

func testScanStops(t *testing.T, factory store.Factory) {
	s := open(t, factory, testOptions(t, 100))
	requireFeature(t, s, store.FeaturePut|store.FeatureScan|store.FeatureReverseScan)

	fill(t, s, shuffled(100))

	txn, err := s.ReadTxn()
	require.NoError(t, err)
	defer txn.Close()

	stop := errors.New("stop")
	for _, dir := range []store.Direction{store.Forward, store.Reverse} {
		visited := 0
		err = txn.Scan(dir, func(_, _ []byte) error {
			visited++
			if visited == 10 {
				return stop
			}
			return nil
		})
		if !errors.Is(err, stop) {
			t.Errorf("Expected %s scan to return the visitor error, got %v", dir, err)
		}
		require.Equal(t, 10, visited)
	}
}

func testUnsupported(t *testing.T, factory store.Factory) {
	s := open(t, factory, testOptions(t, 10))
	if s.Features().Has(store.FeatureScan) {
		t.Skip()
	}

	txn, err := s.ReadTxn()
	require.NoError(t, err)
	defer txn.Close()

	_, _, err = txn.First()
	require.ErrorIs(t, err, store.ErrUnsupported)
	err = txn.Scan(store.Forward, func(_, _ []byte) error { return nil })
	require.ErrorIs(t, err, store.ErrUnsupported)
}

func testIntegerKey(t *testing.T, factory store.Factory) {
	opts := testOptions(t, 300)
	opts.IntegerKey = true
	s := open(t, factory, opts)
	requireFeature(t, s, store.FeaturePut|store.FeatureScan|store.FeatureIntegerKey)

	// native order keys: the numeric order differs from byte order on
	// little endian hosts
	txn, err := s.WriteTxn()
	require.NoError(t, err)
	for _, i := range shuffled(300) {
		k := make([]byte, testKeySize)
		binary.NativeEndian.PutUint64(k, uint64(i))
		require.NoError(t, txn.Put(k, testValue(i)))
	}
	require.NoError(t, txn.Commit())

	got := collect(t, s, store.Forward)
	require.Len(t, got, 300)
	for i, p := range got {
		require.Equal(t, uint64(i), binary.NativeEndian.Uint64(p.Key))
	}
}

func testDurable(t *testing.T, factory store.Factory) {
	opts := testOptions(t, 100)
	s, err := factory(opts)
	require.NoError(t, err)
	if !s.Features().Has(store.FeatureDurable | store.FeatureGet) {
		_ = s.Close()
		t.Skip()
	}

	fill(t, s, shuffled(100))
	require.NoError(t, s.Close())

	s = open(t, factory, opts)
	txn, err := s.ReadTxn()
	require.NoError(t, err)
	defer txn.Close()
	for i := 0; i < 100; i++ {
		value, err := txn.Get(testKey(i))
		require.NoError(t, err, "key %d after reopen", i)
		require.Equal(t, testValue(i), value)
	}
}

func testInfo(t *testing.T, factory store.Factory) {
	opts := testOptions(t, 10)
	s := open(t, factory, opts)

	info := s.Info()
	require.NotEmpty(t, info.Name)
	require.NotEmpty(t, info.Engine)
	require.Equal(t, opts.Dir, info.Dir)
	require.Equal(t, s.Features().List(), info.SupportedFeatures)
}
