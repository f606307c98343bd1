package hashmap

import (
	"bytes"
	"sync"

	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/cespare/xxhash/v2"
	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Store
// --------------------------------------------------------------------------

// hashStore is a concurrent hash map without ordered iteration. Puts are
// buffered by the write transaction and applied on commit. Read transactions
// see the live map.
type hashStore struct {
	data *xsync.MapOf[string, []byte]

	mu      sync.Mutex
	writing bool
	closed  bool
	dir     string
}

// NewHashMapStore creates an empty hash map store presized for opts.Entries.
func NewHashMapStore(opts store.Options) (store.Store, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	hasher := func(key string, seed uint64) uint64 {
		return xxhash.Sum64String(key) ^ seed
	}
	return &hashStore{
		data: xsync.NewMapOfWithHasher[string, []byte](hasher, xsync.WithPresize(opts.Entries)),
		dir:  opts.Dir,
	}, nil
}

func (s *hashStore) WriteTxn() (store.WriteTxn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, store.ErrTxnClosed
	}
	if s.writing {
		return nil, store.NewError(store.RetCEngine, "write transaction already open")
	}
	s.writing = true
	return &writeTxn{s: s}, nil
}

func (s *hashStore) ReadTxn() (store.ReadTxn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, store.ErrTxnClosed
	}
	return &readTxn{data: s.data}, nil
}

func (s *hashStore) Features() store.Feature {
	return store.FeaturePut | store.FeatureGet
}

func (s *hashStore) Info() store.Info {
	return store.Info{
		Name:              store.ImplHashMap,
		Engine:            "puzpuzpuz/xsync MapOf",
		Dir:               s.dir,
		SupportedFeatures: s.Features().List(),
	}
}

func (s *hashStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		s.data.Clear()
	}
	return nil
}

// --------------------------------------------------------------------------
// Transactions
// --------------------------------------------------------------------------

type entry struct {
	key   string
	value []byte
}

type writeTxn struct {
	s       *hashStore
	pending []entry
	done    bool
}

func (t *writeTxn) Put(key, value []byte) error {
	if t.done {
		return store.ErrTxnClosed
	}
	t.pending = append(t.pending, entry{key: string(key), value: bytes.Clone(value)})
	return nil
}

func (t *writeTxn) Commit() error {
	if t.done {
		return store.ErrTxnClosed
	}
	t.done = true
	for _, e := range t.pending {
		t.s.data.Store(e.key, e.value)
	}
	t.pending = nil
	t.s.mu.Lock()
	t.s.writing = false
	t.s.mu.Unlock()
	return nil
}

func (t *writeTxn) Abort() {
	if t.done {
		return
	}
	t.done = true
	t.pending = nil
	t.s.mu.Lock()
	t.s.writing = false
	t.s.mu.Unlock()
}

type readTxn struct {
	data *xsync.MapOf[string, []byte]
}

func (t *readTxn) Get(key []byte) ([]byte, error) {
	if t.data == nil {
		return nil, store.ErrTxnClosed
	}
	value, ok := t.data.Load(string(key))
	if !ok {
		return nil, store.ErrKeyNotFound
	}
	return value, nil
}

func (t *readTxn) First() ([]byte, []byte, error) {
	return nil, nil, store.ErrUnsupported
}

func (t *readTxn) Scan(store.Direction, store.VisitFunc) error {
	return store.ErrUnsupported
}

func (t *readTxn) Close() {
	t.data = nil
}
