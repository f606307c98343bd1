// Package workload generates benchmark datasets and drives them through a
// store adapter.
//
// A run consists of the phases Setup, Write, Read, Scan, Verify and Teardown:
//   - Setup: generate keys (sequential or random without replacement), open the store in a fresh workspace directory
//   - Write: put every pair inside one write transaction
//   - Read: look up every key in insertion order
//   - Scan: position on the first entry, then iterate forwards and backwards
//   - Verify: compare CRC32 and XXH64 digests of the cursor against the write phase
//   - Teardown: close the store, measure its disk usage and remove the directory
//
// Phases that need a capability the adapter lacks are skipped and reported in
// RunResult.Skipped. Teardown always runs.
//
// Example usage:
//
//	cfg := workload.DefaultConfig()
//	cfg.Entries = 100_000
//	driver, err := workload.NewDriver(cfg, nil, lmdb.NewLMDBStore, nil)
//	if err != nil {
//		return err
//	}
//	res, err := driver.Run(ctx)
package workload
