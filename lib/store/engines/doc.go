// Package engines selects store adapters by name.
//
// Every adapter lives in its own sub package and is constructed through a
// store.Factory. The names accepted here are the store.Impl* constants plus
// the aliases in store.Aliases ("lmdbjni" for lmdb, "rocksdb" for pebble).
// Unknown names yield a ConfigurationError.
package engines
