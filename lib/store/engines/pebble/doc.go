// Package pebble implements a store adapter on top of cockroachdb/pebble, the
// RocksDB compatible LSM engine. It is also selectable under the name
// "rocksdb".
//
// Puts go into a batch that is committed with or without fsync
// depending on the Sync option. Read transactions are snapshots. Compression
// is disabled on every level.
package pebble
