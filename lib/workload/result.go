package workload

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/ValentinKolb/kvbench/lib/store"
)

// Phase names a timed section of a run.
type Phase string

const (
	PhaseWrite       Phase = "write"
	PhaseRead        Phase = "read"
	PhaseFirst       Phase = "first"
	PhaseScan        Phase = "scan"
	PhaseScanReverse Phase = "scan-reverse"
	PhaseVerify      Phase = "verify"
)

// Phases lists every phase in execution order.
var Phases = []Phase{PhaseWrite, PhaseRead, PhaseFirst, PhaseScan, PhaseScanReverse, PhaseVerify}

// Histogram bounds: 1ns up to 10s with 3 significant digits.
const (
	histogramMin     = 1
	histogramMax     = int64(10 * time.Second)
	histogramSigFigs = 3
)

// NewLatencyHistogram returns an empty histogram with the bounds used for
// per-operation latencies.
func NewLatencyHistogram() *hdrhistogram.Histogram {
	return hdrhistogram.New(histogramMin, histogramMax, histogramSigFigs)
}

// PhaseResult is the measurement of one phase.
type PhaseResult struct {
	Phase    Phase
	Ops      int
	Duration time.Duration
	// Latency holds per-operation latencies in nanoseconds. It is nil unless
	// latency tracking was enabled.
	Latency *hdrhistogram.Histogram
}

// OpsPerSec returns the phase throughput.
func (p PhaseResult) OpsPerSec() float64 {
	if p.Duration <= 0 {
		return 0
	}
	return float64(p.Ops) / p.Duration.Seconds()
}

// NsPerOp returns the mean time per operation.
func (p PhaseResult) NsPerOp() float64 {
	if p.Ops == 0 {
		return 0
	}
	return float64(p.Duration.Nanoseconds()) / float64(p.Ops)
}

// Checksums are the digests computed by a run. Cursor digests are zero when
// the verify phase did not run.
type Checksums struct {
	WriteCRC    uint64
	ReadCRC     uint64
	CursorCRC   uint64
	WriteXXH64  uint64
	ReadXXH64   uint64
	CursorXXH64 uint64
}

// RunResult is the outcome of one run.
type RunResult struct {
	Store     store.Info
	Entries   int
	Phases    []PhaseResult
	Checksums Checksums
	// DiskBytes is the space allocated in the run directory before removal.
	DiskBytes int64
	// Skipped lists phases that were not run because the store lacks a
	// required feature.
	Skipped []Phase
}

// Phase returns the result of phase p.
func (r *RunResult) Phase(p Phase) (PhaseResult, bool) {
	for _, pr := range r.Phases {
		if pr.Phase == p {
			return pr, true
		}
	}
	return PhaseResult{}, false
}
