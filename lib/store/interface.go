package store

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

// Implementation names an engine adapter.
type Implementation string

const (
	ImplLMDB    Implementation = "lmdb"
	ImplLMDBRaw Implementation = "lmdbjava"
	ImplBolt    Implementation = "bbolt"
	ImplLevelDB Implementation = "leveldb"
	ImplPebble  Implementation = "pebble"
	ImplBadger  Implementation = "badger"
	ImplSQLite  Implementation = "sqlite"
	ImplBTree   Implementation = "btree"
	ImplHashMap Implementation = "hashmap"
	implLMDBJNI Implementation = "lmdbjni"
	implRocksDB Implementation = "rocksdb"
)

// Aliases maps alternative adapter names to the implementation they select.
var Aliases = map[Implementation]Implementation{
	implLMDBJNI: ImplLMDB,
	implRocksDB: ImplPebble,
}

// Feature represents store capabilities as bit flags
type Feature uint64

const (
	FeaturePut         Feature = 1 << iota // Support for Put inside a write transaction
	FeatureGet                             // Support for point lookups
	FeatureFirst                           // Support for positioning a cursor on the first entry
	FeatureScan                            // Support for ascending ordered iteration
	FeatureReverseScan                     // Support for descending ordered iteration
	FeatureAppend                          // Sequential inserts use an append fast path
	FeatureIntegerKey                      // Keys may be compared as native integers
	FeatureDurable                         // Data is persisted to the workspace directory
)

// FeatureOrdered is the set of features needed for cursor based phases.
const FeatureOrdered = FeatureFirst | FeatureScan | FeatureReverseScan

func (f Feature) String() string {
	switch f {
	case FeaturePut:
		return "Put"
	case FeatureGet:
		return "Get"
	case FeatureFirst:
		return "First"
	case FeatureScan:
		return "Scan"
	case FeatureReverseScan:
		return "ReverseScan"
	case FeatureAppend:
		return "Append"
	case FeatureIntegerKey:
		return "IntegerKey"
	case FeatureDurable:
		return "Durable"
	default:
		return "Unknown"
	}
}

// Has reports whether all bits of other are set in f.
func (f Feature) Has(other Feature) bool {
	return f&other == other
}

// List splits a feature set into its single flags.
func (f Feature) List() []Feature {
	var out []Feature
	for bit := FeaturePut; bit <= FeatureDurable; bit <<= 1 {
		if f&bit != 0 {
			out = append(out, bit)
		}
	}
	return out
}

// Info describes an opened store.
type Info struct {
	Name              Implementation `json:"name" yaml:"name"`
	Engine            string         `json:"engine" yaml:"engine"`
	Dir               string         `json:"dir" yaml:"dir"`
	SupportedFeatures []Feature      `json:"supported_features" yaml:"supported_features"`
}

// Direction selects the order of a cursor scan.
type Direction int

const (
	Forward Direction = iota
	Reverse
)

func (d Direction) String() string {
	if d == Reverse {
		return "reverse"
	}
	return "forward"
}

// VisitFunc is called for every entry of a scan. The key and value slices are
// only valid until the function returns; returning an error stops the scan
// and the error is passed through.
type VisitFunc func(key, value []byte) error

// --------------------------------------------------------------------------
// Store Interface
// --------------------------------------------------------------------------

// Store is the uniform capability surface every engine adapter implements.
// A store supports repeated write, read and verification cycles; every cycle
// uses its own transactions, which are scoped acquisitions that callers
// release with defer.
type Store interface {
	// WriteTxn starts the write phase. Only one write transaction may be open
	// at a time.
	WriteTxn() (txn WriteTxn, err error)

	// ReadTxn starts a read phase on a consistent view of the committed data.
	ReadTxn() (txn ReadTxn, err error)

	// Features returns the capabilities of the adapter.
	Features() (features Feature)

	// Info returns information about the store.
	Info() (info Info)

	// Close releases every engine resource. Close is idempotent.
	Close() (err error)
}

// WriteTxn is a write transaction (or write batch, for engines without
// transactions).
type WriteTxn interface {
	// Put stores the pair. The benchmark presents each key exactly once per
	// run and never mutates key or value slices afterwards, so adapters may
	// keep references until Commit.
	Put(key, value []byte) (err error)

	// Commit makes all puts visible. The transaction is finished afterwards.
	Commit() (err error)

	// Abort discards the transaction. Abort after Commit is a no-op.
	Abort()
}

// ReadTxn is a read transaction or snapshot.
type ReadTxn interface {
	// Get returns the value for a previously stored key. The returned slice is
	// valid until the transaction is closed. Absent keys return an error
	// matching ErrKeyNotFound.
	Get(key []byte) (value []byte, err error)

	// First positions a cursor on the smallest key. Stores without ordered
	// iteration return ErrUnsupported.
	First() (key, value []byte, err error)

	// Scan visits every entry in ascending (Forward) or descending (Reverse)
	// key order. Stores without ordered iteration return ErrUnsupported.
	Scan(dir Direction, fn VisitFunc) (err error)

	// Close releases the transaction. Close is idempotent.
	Close()
}

// Factory creates a store from options.
type Factory func(opts Options) (Store, error)
