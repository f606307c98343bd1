// Package badger implements a store adapter on top of dgraph-io/badger, an
// LSM engine that separates large values into a value log.
//
// Writes use a badger.WriteBatch. Read transactions are read-only badger
// transactions, so they see a consistent snapshot; iterators prefetch values
// and support reverse iteration natively.
package badger
