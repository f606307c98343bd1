// Package btree implements a store adapter on top of google/btree.
//
// The adapter keeps every entry in process memory. Write transactions insert
// into a copy-on-write clone of the live tree and publish it on commit; read
// transactions hold their own clone, which makes them snapshots. The store
// writes nothing to its directory.
package btree
