// Package cmd implements the command-line interface of kvbench. It provides a
// small command tree for benchmarking and checking embedded key-value stores.
//
// The package is organized into several subpackages:
//
//   - bench: Runs warmup and measured iterations per store and exports the results
//   - verify: Runs a single integrity cycle per store
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See kvbench -help for a list of all commands.
package cmd
