// Package bolt implements a store adapter on top of go.etcd.io/bbolt, the
// pure Go memory mapped B+tree in the LMDB tradition.
//
// All entries live in one bucket of a single database file. Sequential runs
// fill pages completely; runs without Sync skip fsync on commit and on file
// growth.
package bolt
