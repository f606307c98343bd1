package pebble

import (
	"bytes"
	"errors"
	"sync"

	"github.com/ValentinKolb/kvbench/lib/common"
	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/cockroachdb/pebble"
	"github.com/lni/dragonboat/v4/logger"
)

// numLevels is the LSM depth pebble uses.
const numLevels = 7

// --------------------------------------------------------------------------
// Store
// --------------------------------------------------------------------------

type pebbleStore struct {
	db        *pebble.DB
	dir       string
	writeOpts *pebble.WriteOptions

	mu      sync.Mutex
	writing bool

	closeOnce sync.Once
	closeErr  error
}

// NewPebbleStore opens a pebble database in opts.Dir with compression
// disabled on every level.
func NewPebbleStore(opts store.Options) (store.Store, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	levels := make([]pebble.LevelOptions, numLevels)
	for i := range levels {
		levels[i].Compression = pebble.NoCompression
	}
	db, err := pebble.Open(opts.Dir, &pebble.Options{
		Levels: levels,
		Logger: common.NewEngineLogger(logger.GetLogger("store")),
	})
	if err != nil {
		return nil, store.EngineError("open database", err)
	}

	writeOpts := pebble.NoSync
	if opts.Sync {
		writeOpts = pebble.Sync
	}
	return &pebbleStore{db: db, dir: opts.Dir, writeOpts: writeOpts}, nil
}

func (s *pebbleStore) WriteTxn() (store.WriteTxn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writing {
		return nil, store.NewError(store.RetCEngine, "write transaction already open")
	}
	s.writing = true
	return &writeTxn{s: s, batch: s.db.NewBatch()}, nil
}

func (s *pebbleStore) ReadTxn() (store.ReadTxn, error) {
	return &readTxn{snap: s.db.NewSnapshot()}, nil
}

func (s *pebbleStore) Features() store.Feature {
	return store.FeaturePut | store.FeatureGet | store.FeatureOrdered | store.FeatureDurable
}

func (s *pebbleStore) Info() store.Info {
	return store.Info{
		Name:              store.ImplPebble,
		Engine:            "cockroachdb/pebble",
		Dir:               s.dir,
		SupportedFeatures: s.Features().List(),
	}
}

func (s *pebbleStore) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = store.EngineError("close database", s.db.Close())
	})
	return s.closeErr
}

// --------------------------------------------------------------------------
// Transactions
// --------------------------------------------------------------------------

type writeTxn struct {
	s     *pebbleStore
	batch *pebble.Batch
	done  bool
}

func (t *writeTxn) Put(key, value []byte) error {
	if t.done {
		return store.ErrTxnClosed
	}
	return store.EngineError("put", t.batch.Set(key, value, nil))
}

func (t *writeTxn) Commit() error {
	if t.done {
		return store.ErrTxnClosed
	}
	defer t.finish()
	return store.EngineError("commit", t.batch.Commit(t.s.writeOpts))
}

func (t *writeTxn) Abort() {
	if !t.done {
		t.finish()
	}
}

func (t *writeTxn) finish() {
	t.done = true
	_ = t.batch.Close()
	t.s.mu.Lock()
	t.s.writing = false
	t.s.mu.Unlock()
}

type readTxn struct {
	snap *pebble.Snapshot
	done bool
}

func (t *readTxn) Get(key []byte) ([]byte, error) {
	if t.done {
		return nil, store.ErrTxnClosed
	}
	value, closer, err := t.snap.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, store.ErrKeyNotFound
	}
	if err != nil {
		return nil, store.EngineError("get", err)
	}
	// the value is only valid until the closer is closed
	value = bytes.Clone(value)
	_ = closer.Close()
	return value, nil
}

func (t *readTxn) First() ([]byte, []byte, error) {
	if t.done {
		return nil, nil, store.ErrTxnClosed
	}
	it, err := t.snap.NewIter(nil)
	if err != nil {
		return nil, nil, store.EngineError("new iterator", err)
	}
	defer it.Close()
	if !it.First() {
		if err := it.Error(); err != nil {
			return nil, nil, store.EngineError("iterator first", err)
		}
		return nil, nil, store.ErrKeyNotFound
	}
	return bytes.Clone(it.Key()), bytes.Clone(it.Value()), nil
}

func (t *readTxn) Scan(dir store.Direction, fn store.VisitFunc) (err error) {
	if t.done {
		return store.ErrTxnClosed
	}
	it, err := t.snap.NewIter(nil)
	if err != nil {
		return store.EngineError("new iterator", err)
	}
	defer func() {
		if cErr := it.Close(); cErr != nil && err == nil {
			err = store.EngineError("close iterator", cErr)
		}
	}()

	first, next := it.First, it.Next
	if dir == store.Reverse {
		first, next = it.Last, it.Prev
	}
	for ok := first(); ok; ok = next() {
		if err := fn(it.Key(), it.Value()); err != nil {
			return err
		}
	}
	return store.EngineError("iterate "+dir.String(), it.Error())
}

func (t *readTxn) Close() {
	if t.done {
		return
	}
	t.done = true
	_ = t.snap.Close()
}
