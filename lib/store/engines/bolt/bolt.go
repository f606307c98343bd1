package bolt

import (
	"path/filepath"
	"sync"

	"github.com/ValentinKolb/kvbench/lib/store"
	bolt "go.etcd.io/bbolt"
)

const (
	fileName = "data.db"
	// sequential inserts fill pages completely instead of splitting them in half
	appendFillPercent = 1.0
)

var bucketName = []byte("kvbench")

// --------------------------------------------------------------------------
// Store
// --------------------------------------------------------------------------

type boltStore struct {
	db          *bolt.DB
	dir         string
	fillPercent float64

	closeOnce sync.Once
	closeErr  error
}

// NewBoltStore opens a bbolt database file in opts.Dir.
func NewBoltStore(opts store.Options) (_ store.Store, err error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	db, err := bolt.Open(filepath.Join(opts.Dir, fileName), 0o600, &bolt.Options{
		NoSync:          !opts.Sync,
		NoGrowSync:      !opts.Sync,
		NoFreelistSync:  true,
		FreelistType:    bolt.FreelistMapType,
		InitialMmapSize: int(opts.EffectiveMapSize()),
	})
	if err != nil {
		return nil, store.EngineError("open database", err)
	}
	defer func() {
		if err != nil {
			_ = db.Close()
		}
	}()

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		return nil, store.EngineError("create bucket", err)
	}

	s := &boltStore{db: db, dir: opts.Dir, fillPercent: bolt.DefaultFillPercent}
	if opts.Sequential {
		s.fillPercent = appendFillPercent
	}
	return s, nil
}

func (s *boltStore) WriteTxn() (store.WriteTxn, error) {
	tx, err := s.db.Begin(true)
	if err != nil {
		return nil, store.EngineError("begin write transaction", err)
	}
	b := tx.Bucket(bucketName)
	b.FillPercent = s.fillPercent
	return &writeTxn{tx: tx, b: b}, nil
}

func (s *boltStore) ReadTxn() (store.ReadTxn, error) {
	tx, err := s.db.Begin(false)
	if err != nil {
		return nil, store.EngineError("begin read transaction", err)
	}
	return &readTxn{tx: tx, b: tx.Bucket(bucketName)}, nil
}

func (s *boltStore) Features() store.Feature {
	return store.FeaturePut | store.FeatureGet | store.FeatureOrdered |
		store.FeatureAppend | store.FeatureDurable
}

func (s *boltStore) Info() store.Info {
	return store.Info{
		Name:              store.ImplBolt,
		Engine:            "bbolt",
		Dir:               s.dir,
		SupportedFeatures: s.Features().List(),
	}
}

func (s *boltStore) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = store.EngineError("close database", s.db.Close())
	})
	return s.closeErr
}

// --------------------------------------------------------------------------
// Transactions
// --------------------------------------------------------------------------

type writeTxn struct {
	tx   *bolt.Tx
	b    *bolt.Bucket
	done bool
}

func (t *writeTxn) Put(key, value []byte) error {
	if t.done {
		return store.ErrTxnClosed
	}
	return store.EngineError("put", t.b.Put(key, value))
}

func (t *writeTxn) Commit() error {
	if t.done {
		return store.ErrTxnClosed
	}
	t.done = true
	return store.EngineError("commit", t.tx.Commit())
}

func (t *writeTxn) Abort() {
	if t.done {
		return
	}
	t.done = true
	_ = t.tx.Rollback()
}

type readTxn struct {
	tx   *bolt.Tx
	b    *bolt.Bucket
	done bool
}

func (t *readTxn) Get(key []byte) ([]byte, error) {
	if t.done {
		return nil, store.ErrTxnClosed
	}
	value := t.b.Get(key)
	if value == nil {
		return nil, store.ErrKeyNotFound
	}
	return value, nil
}

func (t *readTxn) First() ([]byte, []byte, error) {
	if t.done {
		return nil, nil, store.ErrTxnClosed
	}
	key, value := t.b.Cursor().First()
	if key == nil {
		return nil, nil, store.ErrKeyNotFound
	}
	return key, value, nil
}

func (t *readTxn) Scan(dir store.Direction, fn store.VisitFunc) error {
	if t.done {
		return store.ErrTxnClosed
	}
	c := t.b.Cursor()
	first, next := c.First, c.Next
	if dir == store.Reverse {
		first, next = c.Last, c.Prev
	}
	for k, v := first(); k != nil; k, v = next() {
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return nil
}

func (t *readTxn) Close() {
	if t.done {
		return
	}
	t.done = true
	_ = t.tx.Rollback()
}
