package badger

import (
	"errors"
	"sync"

	"github.com/ValentinKolb/kvbench/lib/common"
	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/lni/dragonboat/v4/logger"
)

// prefetchSize is the number of values an iterator fetches ahead.
const prefetchSize = 128

// --------------------------------------------------------------------------
// Store
// --------------------------------------------------------------------------

type badgerStore struct {
	db  *badger.DB
	dir string

	mu      sync.Mutex
	writing bool

	closeOnce sync.Once
	closeErr  error
}

// NewBadgerStore opens a badger database in opts.Dir with compression
// disabled.
func NewBadgerStore(opts store.Options) (store.Store, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	bopts := badger.DefaultOptions(opts.Dir).
		WithLogger(common.NewEngineLogger(logger.GetLogger("store"))).
		WithSyncWrites(opts.Sync).
		WithCompression(options.None).
		WithMetricsEnabled(false)

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, store.EngineError("open database", err)
	}
	return &badgerStore{db: db, dir: opts.Dir}, nil
}

func (s *badgerStore) WriteTxn() (store.WriteTxn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writing {
		return nil, store.NewError(store.RetCEngine, "write transaction already open")
	}
	s.writing = true
	return &writeTxn{s: s, wb: s.db.NewWriteBatch()}, nil
}

func (s *badgerStore) ReadTxn() (store.ReadTxn, error) {
	return &readTxn{txn: s.db.NewTransaction(false)}, nil
}

func (s *badgerStore) Features() store.Feature {
	return store.FeaturePut | store.FeatureGet | store.FeatureOrdered | store.FeatureDurable
}

func (s *badgerStore) Info() store.Info {
	return store.Info{
		Name:              store.ImplBadger,
		Engine:            "dgraph-io/badger",
		Dir:               s.dir,
		SupportedFeatures: s.Features().List(),
	}
}

func (s *badgerStore) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = store.EngineError("close database", s.db.Close())
	})
	return s.closeErr
}

// --------------------------------------------------------------------------
// Transactions
// --------------------------------------------------------------------------

// writeTxn batches puts through a WriteBatch, which splits them into as many
// badger transactions as needed and commits them on Flush.
type writeTxn struct {
	s    *badgerStore
	wb   *badger.WriteBatch
	done bool
}

func (t *writeTxn) Put(key, value []byte) error {
	if t.done {
		return store.ErrTxnClosed
	}
	return store.EngineError("put", t.wb.Set(key, value))
}

func (t *writeTxn) Commit() error {
	if t.done {
		return store.ErrTxnClosed
	}
	t.done = true
	defer t.release()
	return store.EngineError("flush write batch", t.wb.Flush())
}

func (t *writeTxn) Abort() {
	if t.done {
		return
	}
	t.done = true
	t.wb.Cancel()
	t.release()
}

func (t *writeTxn) release() {
	t.s.mu.Lock()
	t.s.writing = false
	t.s.mu.Unlock()
}

type readTxn struct {
	txn  *badger.Txn
	done bool
}

func (t *readTxn) Get(key []byte) ([]byte, error) {
	if t.done {
		return nil, store.ErrTxnClosed
	}
	item, err := t.txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrKeyNotFound
	}
	if err != nil {
		return nil, store.EngineError("get", err)
	}
	value, err := item.ValueCopy(nil)
	if err != nil {
		return nil, store.EngineError("read value", err)
	}
	return value, nil
}

func (t *readTxn) iterator(reverse bool) *badger.Iterator {
	return t.txn.NewIterator(badger.IteratorOptions{
		PrefetchValues: true,
		PrefetchSize:   prefetchSize,
		Reverse:        reverse,
	})
}

func (t *readTxn) First() ([]byte, []byte, error) {
	if t.done {
		return nil, nil, store.ErrTxnClosed
	}
	it := t.iterator(false)
	defer it.Close()

	it.Rewind()
	if !it.Valid() {
		return nil, nil, store.ErrKeyNotFound
	}
	item := it.Item()
	value, err := item.ValueCopy(nil)
	if err != nil {
		return nil, nil, store.EngineError("read value", err)
	}
	return item.KeyCopy(nil), value, nil
}

func (t *readTxn) Scan(dir store.Direction, fn store.VisitFunc) error {
	if t.done {
		return store.ErrTxnClosed
	}
	it := t.iterator(dir == store.Reverse)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		var visitErr error
		err := item.Value(func(value []byte) error {
			visitErr = fn(item.Key(), value)
			return visitErr
		})
		if visitErr != nil {
			return visitErr
		}
		if err != nil {
			return store.EngineError("read value", err)
		}
	}
	return nil
}

func (t *readTxn) Close() {
	if t.done {
		return
	}
	t.done = true
	t.txn.Discard()
}
