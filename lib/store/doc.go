// Package store defines the uniform capability surface that every benchmarked
// key-value engine is wrapped in.
//
// The package focuses on:
//   - A single Store interface with scoped write and read transactions
//   - Feature discovery through capability flags
//   - A shared error taxonomy (configuration, not found, integrity, engine)
//
// Key Components:
//
//   - Store Interface: opens WriteTxn and ReadTxn handles. A write transaction
//     receives every Put of one write phase and is committed once; a read
//     transaction serves the point lookups, the cursor positioning and the
//     ordered scans of one read phase. Both are released with defer on every
//     exit path: Abort after Commit and repeated Close are no-ops.
//
//   - Feature Flags: engines without ordered iteration (for example the
//     hashmap adapter) do not advertise FeatureScan; the workload driver
//     skips the scan and verify phases for them.
//
//   - Options: the run parameters an adapter needs (directory, key and value
//     width, durability flags, map size hint).
//
//   - Error: a code carrying error type. errors.Is(err, ErrKeyNotFound) and
//     IsCode(err, RetCIntegrity) work through any wrapping.
//
// Related Packages:
//
// The engines package (github.com/ValentinKolb/kvbench/lib/store/engines)
// selects an adapter by name. Every adapter lives in its own sub package
// (lmdb, bolt, leveldb, pebble, badger, sqlite, btree, hashmap).
//
// The testing package (github.com/ValentinKolb/kvbench/lib/store/testing)
// provides the conformance suite and the benchmark suite every adapter runs.
package store
