// Package testing provides standardised tests and benchmarks for store
// adapters that satisfy the store.Store interface.
//
// The package contains:
//   - testing: A conformance suite for the transaction, lookup and cursor contract
//   - benchmark: The write, readKey, readSeq, readRev, readCrc and readXxh64 benchmarks
//
// Tests for capabilities an adapter does not advertise in its feature set are
// skipped.
//
// Example usage:
//
//	// Creating a factory function for your adapter
//	factory := func(opts store.Options) (store.Store, error) {
//		return NewMyStore(opts)
//	}
//
//	// Running the standard test suite
//	storetesting.RunStoreTests(t, "MyStore", factory)
//
//	// Running performance benchmarks
//	storetesting.RunStoreBenchmarks(b, "MyStore", factory)
package testing
