// Package report aggregates benchmark iterations and exports the results.
//
// A Collector receives one workload.RunResult per measured iteration and
// keeps the phase durations in a go-metrics registry. Its summaries can be
// printed as a console table, exported as CSV, JSON or YAML (selected by file
// extension) or written in the Prometheus text format.
package report
