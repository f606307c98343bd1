// Package hashmap implements a store adapter on top of xsync.MapOf.
//
// It stands in for engines that offer point lookups but no ordered
// iteration: First and Scan return store.ErrUnsupported and the benchmark
// skips the cursor phases.
package hashmap
