package engines

import (
	"sort"
	"strings"

	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/ValentinKolb/kvbench/lib/store/engines/badger"
	"github.com/ValentinKolb/kvbench/lib/store/engines/bolt"
	"github.com/ValentinKolb/kvbench/lib/store/engines/btree"
	"github.com/ValentinKolb/kvbench/lib/store/engines/hashmap"
	"github.com/ValentinKolb/kvbench/lib/store/engines/leveldb"
	"github.com/ValentinKolb/kvbench/lib/store/engines/lmdb"
	"github.com/ValentinKolb/kvbench/lib/store/engines/pebble"
	"github.com/ValentinKolb/kvbench/lib/store/engines/sqlite"
)

// Resolve maps an adapter name or alias to its implementation.
func Resolve(name string) (store.Implementation, error) {
	impl := store.Implementation(strings.ToLower(strings.TrimSpace(name)))
	if target, ok := store.Aliases[impl]; ok {
		impl = target
	}
	if _, err := Factory(impl); err != nil {
		return "", err
	}
	return impl, nil
}

// Factory returns the constructor of an implementation.
func Factory(impl store.Implementation) (store.Factory, error) {
	switch impl {
	case store.ImplLMDB:
		return lmdb.NewLMDBStore, nil
	case store.ImplLMDBRaw:
		return lmdb.NewLMDBRawStore, nil
	case store.ImplBolt:
		return bolt.NewBoltStore, nil
	case store.ImplLevelDB:
		return leveldb.NewLevelDBStore, nil
	case store.ImplPebble:
		return pebble.NewPebbleStore, nil
	case store.ImplBadger:
		return badger.NewBadgerStore, nil
	case store.ImplSQLite:
		return sqlite.NewSQLiteStore, nil
	case store.ImplBTree:
		return btree.NewBTreeStore, nil
	case store.ImplHashMap:
		return hashmap.NewHashMapStore, nil
	default:
		return nil, store.ConfigError("unknown store %q (available: %s)", impl, strings.Join(Names(), ", "))
	}
}

// New opens the adapter selected by name.
func New(name string, opts store.Options) (store.Store, error) {
	impl, err := Resolve(name)
	if err != nil {
		return nil, err
	}
	factory, err := Factory(impl)
	if err != nil {
		return nil, err
	}
	return factory(opts)
}

// Implementations lists every adapter in benchmark order.
func Implementations() []store.Implementation {
	return []store.Implementation{
		store.ImplLMDB,
		store.ImplLMDBRaw,
		store.ImplBolt,
		store.ImplLevelDB,
		store.ImplPebble,
		store.ImplBadger,
		store.ImplSQLite,
		store.ImplBTree,
		store.ImplHashMap,
	}
}

// Names lists every adapter name, aliases excluded.
func Names() []string {
	impls := Implementations()
	names := make([]string, len(impls))
	for i, impl := range impls {
		names[i] = string(impl)
	}
	return names
}

// AliasNames lists the alternative names in alphabetical order.
func AliasNames() []string {
	names := make([]string, 0, len(store.Aliases))
	for alias := range store.Aliases {
		names = append(names, string(alias))
	}
	sort.Strings(names)
	return names
}

// ParseList resolves a comma separated list of adapter names. "all" selects
// every adapter; duplicates are removed while keeping the first occurrence.
func ParseList(list string) ([]store.Implementation, error) {
	if strings.TrimSpace(strings.ToLower(list)) == "all" {
		return Implementations(), nil
	}
	var out []store.Implementation
	seen := make(map[store.Implementation]bool)
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		impl, err := Resolve(part)
		if err != nil {
			return nil, err
		}
		if !seen[impl] {
			seen[impl] = true
			out = append(out, impl)
		}
	}
	if len(out) == 0 {
		return nil, store.ConfigError("no store selected")
	}
	return out, nil
}
