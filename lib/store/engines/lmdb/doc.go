// Package lmdb implements two store adapters on top of LMDB through the
// PowerDNS/lmdb-go binding.
//
// NewLMDBStore copies keys and values out of the memory map on every read.
// NewLMDBRawStore returns slices of the memory map directly, which is only
// safe until the read transaction ends.
//
// Both open the environment with the run's tuning options:
//   - WriteMap maps the data file writable (MDB_WRITEMAP)
//   - Sync and MetaSync clear MDB_NOSYNC and MDB_NOMETASYNC
//   - IntegerKey compares native order integer keys numerically (MDB_INTEGERKEY)
//   - Sequential runs insert with MDB_APPEND
//
// The map size defaults to entries * value size * store.DefaultMapSizeFactor.
// Write transactions lock the calling goroutine to its OS thread until they
// are committed or aborted.
package lmdb
