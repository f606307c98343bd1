package btree

import (
	"bytes"
	"sync"

	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/google/btree"
)

// degree of the in-memory B-tree nodes
const degree = 32

type item struct {
	key   []byte
	value []byte
}

func less(a, b item) bool {
	return bytes.Compare(a.key, b.key) < 0
}

// --------------------------------------------------------------------------
// Store
// --------------------------------------------------------------------------

// btreeStore is an in-process ordered map. Write transactions work on a
// copy-on-write clone of the tree that replaces the live tree on commit, so
// readers always see a consistent snapshot.
type btreeStore struct {
	mu      sync.Mutex
	tree    *btree.BTreeG[item]
	writing bool
	closed  bool
	dir     string
}

// NewBTreeStore creates an empty in-memory B-tree store.
func NewBTreeStore(opts store.Options) (store.Store, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &btreeStore{
		tree: btree.NewG[item](degree, less),
		dir:  opts.Dir,
	}, nil
}

func (s *btreeStore) WriteTxn() (store.WriteTxn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, store.ErrTxnClosed
	}
	if s.writing {
		return nil, store.NewError(store.RetCEngine, "write transaction already open")
	}
	s.writing = true
	return &writeTxn{s: s, tree: s.tree.Clone()}, nil
}

func (s *btreeStore) ReadTxn() (store.ReadTxn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, store.ErrTxnClosed
	}
	return &readTxn{tree: s.tree.Clone()}, nil
}

func (s *btreeStore) Features() store.Feature {
	return store.FeaturePut | store.FeatureGet | store.FeatureOrdered
}

func (s *btreeStore) Info() store.Info {
	return store.Info{
		Name:              store.ImplBTree,
		Engine:            "google/btree",
		Dir:               s.dir,
		SupportedFeatures: s.Features().List(),
	}
}

func (s *btreeStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.tree = btree.NewG[item](degree, less)
	return nil
}

// --------------------------------------------------------------------------
// Transactions
// --------------------------------------------------------------------------

type writeTxn struct {
	s    *btreeStore
	tree *btree.BTreeG[item]
	done bool
}

func (t *writeTxn) Put(key, value []byte) error {
	if t.done {
		return store.ErrTxnClosed
	}
	t.tree.ReplaceOrInsert(item{key: bytes.Clone(key), value: bytes.Clone(value)})
	return nil
}

func (t *writeTxn) Commit() error {
	if t.done {
		return store.ErrTxnClosed
	}
	t.done = true
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.writing = false
	if t.s.closed {
		return store.ErrTxnClosed
	}
	t.s.tree = t.tree
	return nil
}

func (t *writeTxn) Abort() {
	if t.done {
		return
	}
	t.done = true
	t.s.mu.Lock()
	t.s.writing = false
	t.s.mu.Unlock()
}

type readTxn struct {
	tree *btree.BTreeG[item]
}

func (t *readTxn) Get(key []byte) ([]byte, error) {
	if t.tree == nil {
		return nil, store.ErrTxnClosed
	}
	it, ok := t.tree.Get(item{key: key})
	if !ok {
		return nil, store.ErrKeyNotFound
	}
	return it.value, nil
}

func (t *readTxn) First() ([]byte, []byte, error) {
	if t.tree == nil {
		return nil, nil, store.ErrTxnClosed
	}
	it, ok := t.tree.Min()
	if !ok {
		return nil, nil, store.ErrKeyNotFound
	}
	return it.key, it.value, nil
}

func (t *readTxn) Scan(dir store.Direction, fn store.VisitFunc) error {
	if t.tree == nil {
		return store.ErrTxnClosed
	}
	var err error
	visit := func(it item) bool {
		err = fn(it.key, it.value)
		return err == nil
	}
	if dir == store.Reverse {
		t.tree.Descend(visit)
	} else {
		t.tree.Ascend(visit)
	}
	return err
}

func (t *readTxn) Close() {
	t.tree = nil
}
