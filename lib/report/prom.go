package report

import (
	"fmt"
	"io"

	"github.com/VictoriaMetrics/metrics"
)

// --------------------------------------------------------------------------
// Prometheus export
// --------------------------------------------------------------------------

// Metric names of the Prometheus text export.
const (
	MetricNsPerOp    = "kvbench_ns_per_op"
	MetricOpsPerSec  = "kvbench_ops_per_sec"
	MetricLatencyP99 = "kvbench_latency_p99_ns"
	MetricIterations = "kvbench_iterations_total"
	MetricDiskBytes  = "kvbench_disk_bytes"
)

// WritePrometheus writes the summaries in the Prometheus text exposition
// format. Every metric carries store and phase labels, disk usage only the
// store label.
func WritePrometheus(w io.Writer, sums []Summary) {
	set := metrics.NewSet()
	disk := make(map[string]bool)

	for _, s := range sums {
		labels := fmt.Sprintf(`{store=%q,phase=%q}`, s.Store, s.Phase)
		set.NewGauge(MetricNsPerOp+labels, func() float64 { return s.MeanNsPerOp })
		set.NewGauge(MetricOpsPerSec+labels, func() float64 { return s.OpsPerSec })
		set.NewCounter(MetricIterations + labels).Set(uint64(s.Iterations))
		if s.P99 > 0 {
			set.NewGauge(MetricLatencyP99+labels, func() float64 { return float64(s.P99) })
		}

		if !disk[s.Store] {
			disk[s.Store] = true
			bytes := float64(s.DiskBytes)
			set.NewGauge(fmt.Sprintf(`%s{store=%q}`, MetricDiskBytes, s.Store), func() float64 { return bytes })
		}
	}

	set.WritePrometheus(w)
}
