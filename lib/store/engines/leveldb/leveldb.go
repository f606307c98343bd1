package leveldb

import (
	"errors"
	"sync"

	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// --------------------------------------------------------------------------
// Store
// --------------------------------------------------------------------------

// levelStore writes through batches and reads from snapshots.
type levelStore struct {
	db   *leveldb.DB
	dir  string
	sync bool

	mu      sync.Mutex
	writing bool

	closeOnce sync.Once
	closeErr  error
}

// NewLevelDBStore opens a LevelDB database in opts.Dir with compression
// disabled.
func NewLevelDBStore(opts store.Options) (store.Store, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	db, err := leveldb.OpenFile(opts.Dir, &opt.Options{
		Compression: opt.NoCompression,
		NoSync:      !opts.Sync,
	})
	if err != nil {
		return nil, store.EngineError("open database", err)
	}
	return &levelStore{db: db, dir: opts.Dir, sync: opts.Sync}, nil
}

func (s *levelStore) WriteTxn() (store.WriteTxn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writing {
		return nil, store.NewError(store.RetCEngine, "write transaction already open")
	}
	s.writing = true
	return &writeTxn{s: s, batch: new(leveldb.Batch)}, nil
}

func (s *levelStore) ReadTxn() (store.ReadTxn, error) {
	snap, err := s.db.GetSnapshot()
	if err != nil {
		return nil, store.EngineError("get snapshot", err)
	}
	return &readTxn{snap: snap}, nil
}

func (s *levelStore) Features() store.Feature {
	return store.FeaturePut | store.FeatureGet | store.FeatureOrdered | store.FeatureDurable
}

func (s *levelStore) Info() store.Info {
	return store.Info{
		Name:              store.ImplLevelDB,
		Engine:            "goleveldb",
		Dir:               s.dir,
		SupportedFeatures: s.Features().List(),
	}
}

func (s *levelStore) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = store.EngineError("close database", s.db.Close())
	})
	return s.closeErr
}

// --------------------------------------------------------------------------
// Transactions
// --------------------------------------------------------------------------

type writeTxn struct {
	s     *levelStore
	batch *leveldb.Batch
	done  bool
}

func (t *writeTxn) Put(key, value []byte) error {
	if t.done {
		return store.ErrTxnClosed
	}
	t.batch.Put(key, value)
	return nil
}

func (t *writeTxn) Commit() error {
	if t.done {
		return store.ErrTxnClosed
	}
	defer t.finish()
	return store.EngineError("write batch", t.s.db.Write(t.batch, &opt.WriteOptions{Sync: t.s.sync}))
}

func (t *writeTxn) Abort() {
	if !t.done {
		t.finish()
	}
}

func (t *writeTxn) finish() {
	t.done = true
	t.batch.Reset()
	t.s.mu.Lock()
	t.s.writing = false
	t.s.mu.Unlock()
}

type readTxn struct {
	snap *leveldb.Snapshot
	done bool
}

func (t *readTxn) Get(key []byte) ([]byte, error) {
	if t.done {
		return nil, store.ErrTxnClosed
	}
	value, err := t.snap.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, store.ErrKeyNotFound
	}
	if err != nil {
		return nil, store.EngineError("get", err)
	}
	return value, nil
}

func (t *readTxn) First() ([]byte, []byte, error) {
	if t.done {
		return nil, nil, store.ErrTxnClosed
	}
	it := t.snap.NewIterator(nil, nil)
	defer it.Release()
	if !it.First() {
		if err := it.Error(); err != nil {
			return nil, nil, store.EngineError("iterator first", err)
		}
		return nil, nil, store.ErrKeyNotFound
	}
	// iterator buffers are reused after Release
	return append([]byte(nil), it.Key()...), append([]byte(nil), it.Value()...), nil
}

func (t *readTxn) Scan(dir store.Direction, fn store.VisitFunc) error {
	if t.done {
		return store.ErrTxnClosed
	}
	it := t.snap.NewIterator(nil, nil)
	defer it.Release()
	return scan(it, dir, fn)
}

func scan(it iterator.Iterator, dir store.Direction, fn store.VisitFunc) error {
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
	t.snap.Release()
}
