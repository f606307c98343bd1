package report

import (
	"fmt"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/ValentinKolb/kvbench/lib/workload"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/rcrowley/go-metrics"
)

var log = logger.GetLogger("report")

// reservoirSize bounds the number of iterations kept per series.
const reservoirSize = 1028

// --------------------------------------------------------------------------
// Summary
// --------------------------------------------------------------------------

// Summary aggregates the measured iterations of one store and phase.
type Summary struct {
	Store      string         `json:"store" yaml:"store"`
	Engine     string         `json:"engine" yaml:"engine"`
	Phase      workload.Phase `json:"phase" yaml:"phase"`
	Iterations int            `json:"iterations" yaml:"iterations"`
	Ops        int            `json:"ops" yaml:"ops"`

	// Time per operation in nanoseconds over all iterations
	MeanNsPerOp   float64 `json:"mean_ns_per_op" yaml:"mean_ns_per_op"`
	MinNsPerOp    float64 `json:"min_ns_per_op" yaml:"min_ns_per_op"`
	MaxNsPerOp    float64 `json:"max_ns_per_op" yaml:"max_ns_per_op"`
	StdDevNsPerOp float64 `json:"stddev_ns_per_op" yaml:"stddev_ns_per_op"`
	OpsPerSec     float64 `json:"ops_per_sec" yaml:"ops_per_sec"`

	// Latency percentiles in nanoseconds, zero without latency tracking
	P50 int64 `json:"p50_ns,omitempty" yaml:"p50_ns,omitempty"`
	P99 int64 `json:"p99_ns,omitempty" yaml:"p99_ns,omitempty"`
	Max int64 `json:"max_ns,omitempty" yaml:"max_ns,omitempty"`

	// Mean disk usage of the store after a run
	DiskBytes int64 `json:"disk_bytes" yaml:"disk_bytes"`
}

// --------------------------------------------------------------------------
// Collector
// --------------------------------------------------------------------------

type seriesKey struct {
	store string
	phase workload.Phase
}

type series struct {
	engine    string
	ops       int
	durations metrics.Histogram
	latency   *hdrhistogram.Histogram
}

// Collector gathers run results across iterations and stores. Phase
// durations are kept in a go-metrics registry under "<store>.<phase>", disk
// usage under "<store>.disk". A Collector is safe for concurrent use.
type Collector struct {
	mu       sync.Mutex
	registry metrics.Registry
	order    []seriesKey
	series   map[seriesKey]*series
	skipped  map[string][]workload.Phase
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{
		registry: metrics.NewRegistry(),
		series:   make(map[seriesKey]*series),
		skipped:  make(map[string][]workload.Phase),
	}
}

func newSample() metrics.Histogram {
	return metrics.NewHistogram(metrics.NewUniformSample(reservoirSize))
}

// Add records one measured iteration of store.
func (c *Collector) Add(store string, res *workload.RunResult) {
	if res == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, pr := range res.Phases {
		key := seriesKey{store: store, phase: pr.Phase}
		s, ok := c.series[key]
		if !ok {
			name := fmt.Sprintf("%s.%s", store, pr.Phase)
			s = &series{
				engine:    res.Store.Engine,
				ops:       pr.Ops,
				durations: c.registry.GetOrRegister(name, newSample).(metrics.Histogram),
			}
			c.series[key] = s
			c.order = append(c.order, key)
		}
		if s.ops != pr.Ops {
			log.Warningf("%s: %s phase changed from %d to %d ops between iterations", store, pr.Phase, s.ops, pr.Ops)
			s.ops = pr.Ops
		}
		s.durations.Update(pr.Duration.Nanoseconds())
		if pr.Latency != nil {
			if s.latency == nil {
				s.latency = workload.NewLatencyHistogram()
			}
			if dropped := s.latency.Merge(pr.Latency); dropped > 0 {
				log.Warningf("%s: %d latency samples out of range", store, dropped)
			}
		}
	}
	c.disk(store).Update(res.DiskBytes)
	if _, ok := c.skipped[store]; !ok && len(res.Skipped) > 0 {
		c.skipped[store] = append([]workload.Phase(nil), res.Skipped...)
	}
}

// Skipped returns the phases store could not run.
func (c *Collector) Skipped(store string) []workload.Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.skipped[store]
}

func (c *Collector) disk(store string) metrics.Histogram {
	return c.registry.GetOrRegister(store+".disk", newSample).(metrics.Histogram)
}

// Summaries returns one summary per store and phase, in the order they were
// first recorded.
func (c *Collector) Summaries() []Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Summary, 0, len(c.order))
	for _, key := range c.order {
		s := c.series[key]
		snap := s.durations.Snapshot()
		sum := Summary{
			Store:      key.store,
			Engine:     s.engine,
			Phase:      key.phase,
			Iterations: int(snap.Count()),
			Ops:        s.ops,
			DiskBytes:  int64(c.disk(key.store).Snapshot().Mean()),
		}
		if s.ops > 0 {
			ops := float64(s.ops)
			sum.MeanNsPerOp = snap.Mean() / ops
			sum.MinNsPerOp = float64(snap.Min()) / ops
			sum.MaxNsPerOp = float64(snap.Max()) / ops
			sum.StdDevNsPerOp = snap.StdDev() / ops
		}
		if sum.MeanNsPerOp > 0 {
			sum.OpsPerSec = float64(time.Second) / sum.MeanNsPerOp
		}
		if s.latency != nil {
			sum.P50 = s.latency.ValueAtQuantile(50)
			sum.P99 = s.latency.ValueAtQuantile(99)
			sum.Max = s.latency.Max()
		}
		out = append(out, sum)
	}
	return out
}

// Stores returns the store names in the order they were first recorded.
func (c *Collector) Stores() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var stores []string
	seen := make(map[string]bool)
	for _, key := range c.order {
		if !seen[key.store] {
			seen[key.store] = true
			stores = append(stores, key.store)
		}
	}
	return stores
}
