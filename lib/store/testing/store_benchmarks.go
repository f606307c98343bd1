package testing

import (
	"testing"

	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/ValentinKolb/kvbench/lib/workload"
	"github.com/stretchr/testify/require"
)

// benchEntries is the dataset size of the read benchmarks.
const benchEntries = 10_000

// RunStoreBenchmarks runs all benchmarks for a store adapter
func RunStoreBenchmarks(b *testing.B, name string, factory store.Factory) {
	b.Run(name, func(b *testing.B) {
		b.Run("Write", func(b *testing.B) {
			benchmarkWrite(b, factory, false)
		})

		b.Run("WriteSeq", func(b *testing.B) {
			benchmarkWrite(b, factory, true)
		})

		b.Run("ReadKey", func(b *testing.B) {
			benchmarkReadKey(b, factory)
		})

		b.Run("ReadSeq", func(b *testing.B) {
			benchmarkScan(b, factory, store.Forward)
		})

		b.Run("ReadRev", func(b *testing.B) {
			benchmarkScan(b, factory, store.Reverse)
		})

		b.Run("ReadCrc", func(b *testing.B) {
			benchmarkChecksum(b, factory, workload.NewCRC32())
		})

		b.Run("ReadXxh64", func(b *testing.B) {
			benchmarkChecksum(b, factory, workload.NewXXH64Sum())
		})
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// prepared opens a store holding benchEntries entries in sequential order.
func prepared(b *testing.B, factory store.Factory) store.Store {
	opts := testOptions(b, benchEntries)
	opts.Sequential = true
	s := open(b, factory, opts)
	requireFeature(b, s, store.FeaturePut)

	indices := make([]int, benchEntries)
	for i := range indices {
		indices[i] = i
	}
	fill(b, s, indices)
	return s
}

// Benchmark for a write transaction of b.N puts
func benchmarkWrite(b *testing.B, factory store.Factory, sequential bool) {
	opts := testOptions(b, b.N)
	opts.Sequential = sequential
	s := open(b, factory, opts)
	requireFeature(b, s, store.FeaturePut)

	var order []int
	if sequential {
		order = make([]int, b.N)
		for i := range order {
			order[i] = i
		}
	} else {
		order = shuffled(b.N)
	}
	keys := make([][]byte, b.N)
	for i, k := range order {
		keys[i] = testKey(k)
	}
	value := testValue(0)

	b.ResetTimer()
	txn, err := s.WriteTxn()
	require.NoError(b, err)
	defer txn.Abort()
	for i := 0; i < b.N; i++ {
		if err := txn.Put(keys[i], value); err != nil {
			b.Fatal(err)
		}
	}
	require.NoError(b, txn.Commit())
}

// Benchmark for point lookups in insertion order
func benchmarkReadKey(b *testing.B, factory store.Factory) {
	s := prepared(b, factory)
	requireFeature(b, s, store.FeatureGet)

	keys := make([][]byte, benchEntries)
	for i := range keys {
		keys[i] = testKey(i)
	}

	txn, err := s.ReadTxn()
	require.NoError(b, err)
	defer txn.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := txn.Get(keys[i%benchEntries]); err != nil {
			b.Fatal(err)
		}
	}
}

// Benchmark for full cursor scans, one op is one visited entry
func benchmarkScan(b *testing.B, factory store.Factory, dir store.Direction) {
	s := prepared(b, factory)
	if dir == store.Reverse {
		requireFeature(b, s, store.FeatureReverseScan)
	} else {
		requireFeature(b, s, store.FeatureScan)
	}

	txn, err := s.ReadTxn()
	require.NoError(b, err)
	defer txn.Close()

	b.ResetTimer()
	for visited := 0; visited < b.N; {
		err := txn.Scan(dir, func(_, _ []byte) error {
			visited++
			return nil
		})
		if err != nil {
			b.Fatal(err)
		}
	}
}

// Benchmark for whole-store checksums, one op is one full scan
func benchmarkChecksum(b *testing.B, factory store.Factory, sum workload.Checksum) {
	s := prepared(b, factory)
	requireFeature(b, s, store.FeatureScan)

	txn, err := s.ReadTxn()
	require.NoError(b, err)
	defer txn.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sum.Reset()
		n, err := workload.ChecksumStore(txn, sum)
		if err != nil {
			b.Fatal(err)
		}
		if n != benchEntries {
			b.Fatalf("checksum visited %d entries, expected %d", n, benchEntries)
		}
	}
	b.ReportMetric(float64(benchEntries), "entries/op")
}
