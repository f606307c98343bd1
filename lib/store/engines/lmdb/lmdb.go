package lmdb

import (
	"runtime"
	"sync"

	"github.com/PowerDNS/lmdb-go/lmdb"
	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("store")

// dbName is the named database inside the environment.
const dbName = "kvbench"

// --------------------------------------------------------------------------
// Store
// --------------------------------------------------------------------------

// lmdbStore wraps one LMDB environment with a single named database.
type lmdbStore struct {
	env  *lmdb.Env
	dbi  lmdb.DBI
	name store.Implementation
	dir  string
	// raw selects zero-copy reads that alias the memory map
	raw bool
	// putFlags are passed to every Put (MDB_APPEND for sequential runs)
	putFlags uint

	closeOnce sync.Once
	closeErr  error
}

// NewLMDBStore opens an LMDB store whose reads copy keys and values out of
// the memory map.
func NewLMDBStore(opts store.Options) (store.Store, error) {
	return open(opts, store.ImplLMDB, false)
}

// NewLMDBRawStore opens an LMDB store whose reads return slices of the memory
// map. The slices are valid until the read transaction is closed.
func NewLMDBRawStore(opts store.Options) (store.Store, error) {
	return open(opts, store.ImplLMDBRaw, true)
}

func open(opts store.Options, name store.Implementation, raw bool) (_ store.Store, err error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	env, err := lmdb.NewEnv()
	if err != nil {
		return nil, store.EngineError("create environment", err)
	}
	defer func() {
		if err != nil {
			_ = env.Close()
		}
	}()

	if err := env.SetMaxDBs(1); err != nil {
		return nil, store.EngineError("set max dbs", err)
	}
	if err := env.SetMapSize(opts.EffectiveMapSize()); err != nil {
		return nil, store.EngineError("set map size", err)
	}

	// read transactions are not bound to an OS thread
	flags := uint(lmdb.NoTLS)
	if opts.WriteMap {
		flags |= lmdb.WriteMap
	}
	if !opts.Sync {
		flags |= lmdb.NoSync
	}
	if !opts.MetaSync {
		flags |= lmdb.NoMetaSync
	}
	if err := env.Open(opts.Dir, flags, 0o664); err != nil {
		return nil, store.EngineError("open environment", err)
	}

	dbFlags := uint(lmdb.Create)
	if opts.IntegerKey {
		dbFlags |= lmdb.IntegerKey
	}
	var dbi lmdb.DBI
	err = env.Update(func(txn *lmdb.Txn) (err error) {
		dbi, err = txn.OpenDBI(dbName, dbFlags)
		return err
	})
	if err != nil {
		return nil, store.EngineError("open database", err)
	}

	s := &lmdbStore{
		env:  env,
		dbi:  dbi,
		name: name,
		dir:  opts.Dir,
		raw:  raw,
	}
	if opts.Sequential {
		s.putFlags = lmdb.Append
	}
	log.Debugf("opened %s in %s (map size %d, flags %#x)", name, opts.Dir, opts.EffectiveMapSize(), flags)
	return s, nil
}

func (s *lmdbStore) WriteTxn() (store.WriteTxn, error) {
	// LMDB write transactions must begin and end on the same OS thread
	runtime.LockOSThread()
	txn, err := s.env.BeginTxn(nil, 0)
	if err != nil {
		runtime.UnlockOSThread()
		return nil, store.EngineError("begin write transaction", err)
	}
	return &writeTxn{txn: txn, dbi: s.dbi, flags: s.putFlags}, nil
}

func (s *lmdbStore) ReadTxn() (store.ReadTxn, error) {
	txn, err := s.env.BeginTxn(nil, lmdb.Readonly)
	if err != nil {
		return nil, store.EngineError("begin read transaction", err)
	}
	txn.RawRead = s.raw
	return &readTxn{txn: txn, dbi: s.dbi}, nil
}

func (s *lmdbStore) Features() store.Feature {
	return store.FeaturePut | store.FeatureGet | store.FeatureOrdered |
		store.FeatureAppend | store.FeatureIntegerKey | store.FeatureDurable
}

func (s *lmdbStore) Info() store.Info {
	engine := "LMDB " + lmdb.VersionString()
	if s.raw {
		engine += " (raw reads)"
	}
	return store.Info{
		Name:              s.name,
		Engine:            engine,
		Dir:               s.dir,
		SupportedFeatures: s.Features().List(),
	}
}

func (s *lmdbStore) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = store.EngineError("close environment", s.env.Close())
	})
	return s.closeErr
}

// --------------------------------------------------------------------------
// Transactions
// --------------------------------------------------------------------------

type writeTxn struct {
	txn   *lmdb.Txn
	dbi   lmdb.DBI
	flags uint
	done  bool
}

func (t *writeTxn) Put(key, value []byte) error {
	if t.done {
		return store.ErrTxnClosed
	}
	return store.EngineError("put", t.txn.Put(t.dbi, key, value, t.flags))
}

func (t *writeTxn) Commit() error {
	if t.done {
		return store.ErrTxnClosed
	}
	t.done = true
	defer runtime.UnlockOSThread()
	return store.EngineError("commit", t.txn.Commit())
}

func (t *writeTxn) Abort() {
	if t.done {
		return
	}
	t.done = true
	t.txn.Abort()
	runtime.UnlockOSThread()
}

type readTxn struct {
	txn  *lmdb.Txn
	dbi  lmdb.DBI
	done bool
}

func (t *readTxn) Get(key []byte) ([]byte, error) {
	if t.done {
		return nil, store.ErrTxnClosed
	}
	value, err := t.txn.Get(t.dbi, key)
	if lmdb.IsNotFound(err) {
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
	cur, err := t.txn.OpenCursor(t.dbi)
	if err != nil {
		return nil, nil, store.EngineError("open cursor", err)
	}
	defer cur.Close()

	key, value, err := cur.Get(nil, nil, lmdb.First)
	if lmdb.IsNotFound(err) {
		return nil, nil, store.ErrKeyNotFound
	}
	if err != nil {
		return nil, nil, store.EngineError("cursor first", err)
	}
	return key, value, nil
}

func (t *readTxn) Scan(dir store.Direction, fn store.VisitFunc) error {
	if t.done {
		return store.ErrTxnClosed
	}
	cur, err := t.txn.OpenCursor(t.dbi)
	if err != nil {
		return store.EngineError("open cursor", err)
	}
	defer cur.Close()

	op, next := uint(lmdb.First), uint(lmdb.Next)
	if dir == store.Reverse {
		op, next = lmdb.Last, lmdb.Prev
	}
	for {
		key, value, err := cur.Get(nil, nil, op)
		if lmdb.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return store.EngineError("cursor "+dir.String(), err)
		}
		if err := fn(key, value); err != nil {
			return err
		}
		op = next
	}
}

func (t *readTxn) Close() {
	if t.done {
		return
	}
	t.done = true
	t.txn.Abort()
}
