package workload

import (
	"context"
	"errors"
	"hash/crc32"
	"testing"

	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/ValentinKolb/kvbench/lib/store/engines/btree"
	"github.com/ValentinKolb/kvbench/lib/store/engines/hashmap"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func testConfig(entries int) Config {
	cfg := DefaultConfig()
	cfg.Store = string(store.ImplBTree)
	cfg.Entries = entries
	cfg.ValueSize = 8
	cfg.Seed = 7
	return cfg
}

// memWorkspace returns a workspace on an in-memory filesystem. The btree and
// hashmap stores never touch their directory, so nothing else is needed.
func memWorkspace() *Workspace {
	return NewWorkspace(afero.NewMemMapFs(), "/bench")
}

func runDriver(t *testing.T, cfg Config, factory store.Factory, ws *Workspace) (*RunResult, error) {
	t.Helper()
	d, err := NewDriver(cfg, nil, factory, ws)
	require.NoError(t, err)
	return d.Run(context.Background())
}

func requireWorkspaceEmpty(t *testing.T, ws *Workspace) {
	t.Helper()
	infos, err := afero.ReadDir(ws.Fs(), ws.Root())
	require.NoError(t, err)
	assert.Empty(t, infos, "run directory was not removed")
}

// faultyStore wraps a store and lets tests corrupt what reads return.
type faultyStore struct {
	store.Store
	get  func(key, value []byte) ([]byte, error)
	scan func(dir store.Direction, key, value []byte) ([]byte, []byte, bool)
}

type faultyReadTxn struct {
	store.ReadTxn
	s *faultyStore
}

func (s *faultyStore) ReadTxn() (store.ReadTxn, error) {
	txn, err := s.Store.ReadTxn()
	if err != nil {
		return nil, err
	}
	return &faultyReadTxn{ReadTxn: txn, s: s}, nil
}

func (t *faultyReadTxn) Get(key []byte) ([]byte, error) {
	value, err := t.ReadTxn.Get(key)
	if err != nil || t.s.get == nil {
		return value, err
	}
	return t.s.get(key, value)
}

func (t *faultyReadTxn) Scan(dir store.Direction, fn store.VisitFunc) error {
	return t.ReadTxn.Scan(dir, func(key, value []byte) error {
		if t.s.scan != nil {
			var keep bool
			if key, value, keep = t.s.scan(dir, key, value); !keep {
				return nil
			}
		}
		return fn(key, value)
	})
}

func faultyFactory(fs *faultyStore) store.Factory {
	return func(opts store.Options) (store.Store, error) {
		st, err := btree.NewBTreeStore(opts)
		if err != nil {
			return nil, err
		}
		fs.Store = st
		return fs, nil
	}
}

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

func TestDriverSequentialChecksums(t *testing.T) {
	ws := memWorkspace()
	res, err := runDriver(t, testConfig(3), btree.NewBTreeStore, ws)
	require.NoError(t, err)

	// keys 0,1,2 as 4 byte big endian, values carry the key in their prefix
	expected := crc32.NewIEEE()
	for k := byte(0); k < 3; k++ {
		expected.Write([]byte{0, 0, 0, k})
		expected.Write([]byte{0, 0, 0, k, 0, 0, 0, 0})
	}

	sums := res.Checksums
	assert.Equal(t, uint64(expected.Sum32()), sums.WriteCRC)
	assert.Equal(t, sums.WriteCRC, sums.ReadCRC)
	assert.Equal(t, sums.WriteCRC, sums.CursorCRC)
	assert.Equal(t, sums.WriteXXH64, sums.ReadXXH64)
	assert.Equal(t, sums.WriteXXH64, sums.CursorXXH64)
	assert.Equal(t, 3, res.Entries)
	assert.Empty(t, res.Skipped)

	for _, p := range Phases {
		pr, ok := res.Phase(p)
		require.True(t, ok, "missing phase %s", p)
		assert.Nil(t, pr.Latency)
	}
	write, _ := res.Phase(PhaseWrite)
	assert.Equal(t, 3, write.Ops)
	requireWorkspaceEmpty(t, ws)
}

func TestDriverKeyLayouts(t *testing.T) {
	tests := []struct {
		name  string
		kind  KeyKind
		width int
		order KeyOrder
		seq   bool
	}{
		{"int32 big sequential", KeyInt, 4, OrderBig, true},
		{"int64 big sequential", KeyInt, 8, OrderBig, true},
		{"int32 native sequential", KeyInt, 4, OrderNative, true},
		{"string sequential", KeyString, 0, OrderBig, true},
		{"int32 big random", KeyInt, 4, OrderBig, false},
		{"int64 native random", KeyInt, 8, OrderNative, false},
		{"string random", KeyString, 0, OrderBig, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(1000)
			cfg.KeyKind = tt.kind
			cfg.KeyWidth = tt.width
			cfg.KeyOrder = tt.order
			cfg.Sequential = tt.seq
			if tt.kind == KeyString {
				cfg.KeyWidth = StringKeyLength
			}

			res, err := runDriver(t, cfg, btree.NewBTreeStore, memWorkspace())
			require.NoError(t, err)
			sums := res.Checksums
			assert.Equal(t, sums.WriteCRC, sums.ReadCRC)
			assert.Equal(t, sums.WriteXXH64, sums.CursorXXH64)
			verify, ok := res.Phase(PhaseVerify)
			require.True(t, ok)
			assert.Equal(t, 1000, verify.Ops)
		})
	}
}

func TestDriverRandomValues(t *testing.T) {
	cfg := testConfig(20_000)
	cfg.RandomVals = true
	cfg.Sequential = false
	cfg.ValueSize = 100

	// 20k values of 100 bytes wrap the 1 MiB pool once
	res, err := runDriver(t, cfg, btree.NewBTreeStore, memWorkspace())
	require.NoError(t, err)
	assert.Equal(t, res.Checksums.WriteCRC, res.Checksums.ReadCRC)
	assert.Equal(t, res.Checksums.WriteXXH64, res.Checksums.CursorXXH64)
}

func TestDriverSeedIsReproducible(t *testing.T) {
	cfg := testConfig(500)
	cfg.Sequential = false
	cfg.RandomVals = true

	first, err := runDriver(t, cfg, btree.NewBTreeStore, memWorkspace())
	require.NoError(t, err)
	second, err := runDriver(t, cfg, btree.NewBTreeStore, memWorkspace())
	require.NoError(t, err)
	assert.Equal(t, first.Checksums, second.Checksums)
}

func TestDriverEmptyRun(t *testing.T) {
	res, err := runDriver(t, testConfig(0), btree.NewBTreeStore, memWorkspace())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Entries)
	assert.Equal(t, res.Checksums.WriteCRC, res.Checksums.CursorCRC)
	_, ok := res.Phase(PhaseFirst)
	assert.False(t, ok)
}

func TestDriverSkipsUnsupportedPhases(t *testing.T) {
	cfg := testConfig(100)
	cfg.Store = string(store.ImplHashMap)
	ws := memWorkspace()

	res, err := runDriver(t, cfg, hashmap.NewHashMapStore, ws)
	require.NoError(t, err)
	assert.Equal(t, []Phase{PhaseScan, PhaseVerify}, res.Skipped)
	assert.Equal(t, res.Checksums.WriteCRC, res.Checksums.ReadCRC)
	assert.Zero(t, res.Checksums.CursorCRC)
	requireWorkspaceEmpty(t, ws)
}

func TestDriverLatencyTracking(t *testing.T) {
	cfg := testConfig(250)
	cfg.TrackLatency = true

	res, err := runDriver(t, cfg, btree.NewBTreeStore, memWorkspace())
	require.NoError(t, err)
	for _, p := range []Phase{PhaseWrite, PhaseRead, PhaseScan, PhaseScanReverse} {
		pr, ok := res.Phase(p)
		require.True(t, ok)
		require.NotNil(t, pr.Latency, "phase %s", p)
		assert.Equal(t, int64(250), pr.Latency.TotalCount(), "phase %s", p)
	}
}

func TestDriverDetectsCorruptReads(t *testing.T) {
	ws := memWorkspace()
	fs := &faultyStore{get: func(_, value []byte) ([]byte, error) {
		corrupt := append([]byte(nil), value...)
		corrupt[len(corrupt)-1] ^= 0xff
		return corrupt, nil
	}}

	res, err := runDriver(t, testConfig(10), faultyFactory(fs), ws)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, store.IsCode(err, store.RetCIntegrity), "got %v", err)
	requireWorkspaceEmpty(t, ws)
}

func TestDriverReportsMissingKeys(t *testing.T) {
	ws := memWorkspace()
	fs := &faultyStore{get: func(_, _ []byte) ([]byte, error) {
		return nil, store.ErrKeyNotFound
	}}

	_, err := runDriver(t, testConfig(10), faultyFactory(fs), ws)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrKeyNotFound)
	requireWorkspaceEmpty(t, ws)
}

func TestDriverDetectsDroppedScanEntries(t *testing.T) {
	fs := &faultyStore{scan: func(dir store.Direction, key, value []byte) ([]byte, []byte, bool) {
		return key, value, !(dir == store.Reverse && key[len(key)-1] == 5)
	}}

	_, err := runDriver(t, testConfig(10), faultyFactory(fs), memWorkspace())
	require.Error(t, err)
	assert.True(t, store.IsCode(err, store.RetCIntegrity), "got %v", err)
}

func TestDriverDetectsReverseValueMismatch(t *testing.T) {
	cfg := testConfig(10)
	cfg.Scan = false
	fs := &faultyStore{scan: func(dir store.Direction, key, value []byte) ([]byte, []byte, bool) {
		if dir == store.Reverse {
			value = []byte("tampered")
		}
		return key, value, true
	}}

	_, err := runDriver(t, cfg, faultyFactory(fs), memWorkspace())
	require.Error(t, err)
	assert.True(t, store.IsCode(err, store.RetCIntegrity), "got %v", err)
}

func TestDriverWrapsEngineErrors(t *testing.T) {
	boom := errors.New("disk on fire")
	fs := &faultyStore{get: func(_, _ []byte) ([]byte, error) { return nil, boom }}

	_, err := runDriver(t, testConfig(10), faultyFactory(fs), memWorkspace())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, store.IsCode(err, store.RetCEngine), "got %v", err)
}

func TestDriverFactoryError(t *testing.T) {
	ws := memWorkspace()
	failing := func(store.Options) (store.Store, error) {
		return nil, store.EngineError("open", errors.New("no space"))
	}

	_, err := runDriver(t, testConfig(10), failing, ws)
	require.Error(t, err)
	assert.True(t, store.IsCode(err, store.RetCEngine))
	requireWorkspaceEmpty(t, ws)
}

func TestDriverCancelledContext(t *testing.T) {
	ws := memWorkspace()
	d, err := NewDriver(testConfig(100), nil, btree.NewBTreeStore, ws)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = d.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	requireWorkspaceEmpty(t, ws)
}

func TestNewDriverErrors(t *testing.T) {
	_, err := NewDriver(testConfig(10), nil, nil, nil)
	assert.True(t, store.IsCode(err, store.RetCConfiguration))

	cfg := testConfig(10)
	cfg.ValueSize = 0
	_, err = NewDriver(cfg, nil, btree.NewBTreeStore, nil)
	assert.True(t, store.IsCode(err, store.RetCConfiguration))
}
