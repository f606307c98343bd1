package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"sync"

	"github.com/ValentinKolb/kvbench/lib/store"
	_ "modernc.org/sqlite"
)

const fileName = "data.sqlite"

const (
	createTable = `CREATE TABLE IF NOT EXISTS kv (k BLOB PRIMARY KEY, v BLOB NOT NULL) WITHOUT ROWID`
	insertEntry = `INSERT OR REPLACE INTO kv (k, v) VALUES (?, ?)`
	selectEntry = `SELECT v FROM kv WHERE k = ?`
	selectFirst = `SELECT k, v FROM kv ORDER BY k ASC LIMIT 1`
	scanForward = `SELECT k, v FROM kv ORDER BY k ASC`
	scanReverse = `SELECT k, v FROM kv ORDER BY k DESC`
)

// --------------------------------------------------------------------------
// Store
// --------------------------------------------------------------------------

// sqliteStore keeps all entries in one WITHOUT ROWID table, which SQLite
// stores as a clustered B-tree ordered by the blob key.
type sqliteStore struct {
	db      *sql.DB
	dir     string
	version string

	closeOnce sync.Once
	closeErr  error
}

// NewSQLiteStore opens a SQLite database file in opts.Dir in WAL mode.
func NewSQLiteStore(opts store.Options) (_ store.Store, err error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	synchronous := "OFF"
	if opts.Sync {
		synchronous = "FULL"
	}
	query := url.Values{}
	query.Add("_pragma", "journal_mode(WAL)")
	query.Add("_pragma", fmt.Sprintf("synchronous(%s)", synchronous))
	dsn := fmt.Sprintf("file:%s?%s", filepath.Join(opts.Dir, fileName), query.Encode())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, store.EngineError("open database", err)
	}
	defer func() {
		if err != nil {
			_ = db.Close()
		}
	}()

	if _, err := db.Exec(createTable); err != nil {
		return nil, store.EngineError("create table", err)
	}
	var version string
	if err := db.QueryRow(`SELECT sqlite_version()`).Scan(&version); err != nil {
		return nil, store.EngineError("query version", err)
	}
	return &sqliteStore{db: db, dir: opts.Dir, version: version}, nil
}

func (s *sqliteStore) WriteTxn() (store.WriteTxn, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, store.EngineError("begin write transaction", err)
	}
	stmt, err := tx.Prepare(insertEntry)
	if err != nil {
		_ = tx.Rollback()
		return nil, store.EngineError("prepare insert", err)
	}
	return &writeTxn{tx: tx, stmt: stmt}, nil
}

func (s *sqliteStore) ReadTxn() (store.ReadTxn, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, store.EngineError("begin read transaction", err)
	}
	stmt, err := tx.Prepare(selectEntry)
	if err != nil {
		_ = tx.Rollback()
		return nil, store.EngineError("prepare select", err)
	}
	return &readTxn{tx: tx, get: stmt}, nil
}

func (s *sqliteStore) Features() store.Feature {
	return store.FeaturePut | store.FeatureGet | store.FeatureOrdered | store.FeatureDurable
}

func (s *sqliteStore) Info() store.Info {
	return store.Info{
		Name:              store.ImplSQLite,
		Engine:            "SQLite " + s.version,
		Dir:               s.dir,
		SupportedFeatures: s.Features().List(),
	}
}

func (s *sqliteStore) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = store.EngineError("close database", s.db.Close())
	})
	return s.closeErr
}

// --------------------------------------------------------------------------
// Transactions
// --------------------------------------------------------------------------

type writeTxn struct {
	tx   *sql.Tx
	stmt *sql.Stmt
	done bool
}

func (t *writeTxn) Put(key, value []byte) error {
	if t.done {
		return store.ErrTxnClosed
	}
	_, err := t.stmt.Exec(key, value)
	return store.EngineError("insert", err)
}

func (t *writeTxn) Commit() error {
	if t.done {
		return store.ErrTxnClosed
	}
	t.done = true
	_ = t.stmt.Close()
	return store.EngineError("commit", t.tx.Commit())
}

func (t *writeTxn) Abort() {
	if t.done {
		return
	}
	t.done = true
	_ = t.stmt.Close()
	_ = t.tx.Rollback()
}

type readTxn struct {
	tx   *sql.Tx
	get  *sql.Stmt
	done bool
}

func (t *readTxn) Get(key []byte) ([]byte, error) {
	if t.done {
		return nil, store.ErrTxnClosed
	}
	var value []byte
	err := t.get.QueryRow(key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrKeyNotFound
	}
	if err != nil {
		return nil, store.EngineError("select", err)
	}
	return value, nil
}

func (t *readTxn) First() ([]byte, []byte, error) {
	if t.done {
		return nil, nil, store.ErrTxnClosed
	}
	var key, value []byte
	err := t.tx.QueryRow(selectFirst).Scan(&key, &value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, store.ErrKeyNotFound
	}
	if err != nil {
		return nil, nil, store.EngineError("select first", err)
	}
	return key, value, nil
}

func (t *readTxn) Scan(dir store.Direction, fn store.VisitFunc) error {
	if t.done {
		return store.ErrTxnClosed
	}
	query := scanForward
	if dir == store.Reverse {
		query = scanReverse
	}
	rows, err := t.tx.Query(query)
	if err != nil {
		return store.EngineError("scan "+dir.String(), err)
	}
	defer rows.Close()

	// RawBytes are only valid until the next call to Next
	var key, value sql.RawBytes
	for rows.Next() {
		if err := rows.Scan(&key, &value); err != nil {
			return store.EngineError("scan row", err)
		}
		if err := fn(key, value); err != nil {
			return err
		}
	}
	return store.EngineError("scan "+dir.String(), rows.Err())
}

func (t *readTxn) Close() {
	if t.done {
		return
	}
	t.done = true
	_ = t.get.Close()
	_ = t.tx.Rollback()
}
