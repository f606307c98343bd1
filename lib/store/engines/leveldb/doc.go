// Package leveldb implements a store adapter on top of syndtr/goleveldb.
//
// A write transaction collects puts in a leveldb.Batch and writes it on
// commit. Read transactions are snapshots. Compression is disabled so block
// sizes are comparable with the other engines.
package leveldb
