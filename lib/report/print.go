package report

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
)

// PrintSummary prints the result of one store and phase in a formatted way
func PrintSummary(w io.Writer, s Summary) {
	name := fmt.Sprintf("%s/%s", s.Store, s.Phase)
	if s.Iterations == 0 || s.MeanNsPerOp == 0 {
		fmt.Fprintf(w, "%-28sskipped\n", name)
		return
	}

	fmt.Fprintf(w, "%-28s%12.1fns/op (%s/op)\t%s ops/sec\t±%.1f%%",
		name, s.MeanNsPerOp, time.Duration(s.MeanNsPerOp), humanize.Comma(int64(s.OpsPerSec)), relStdDev(s))
	if s.P99 > 0 {
		fmt.Fprintf(w, "\tp50 %s p99 %s", time.Duration(s.P50), time.Duration(s.P99))
	}
	fmt.Fprintln(w)
}

// PrintCollector prints every summary of c followed by the disk usage and the
// skipped phases of each store.
func PrintCollector(w io.Writer, c *Collector) {
	sums := c.Summaries()
	for _, s := range sums {
		PrintSummary(w, s)
	}

	disk := make(map[string]int64)
	for _, s := range sums {
		disk[s.Store] = s.DiskBytes
	}
	stores := c.Stores()
	if len(stores) > 0 {
		fmt.Fprintln(w)
	}
	for _, store := range stores {
		fmt.Fprintf(w, "%-28s%s on disk", store, humanize.IBytes(uint64(disk[store])))
		if skipped := c.Skipped(store); len(skipped) > 0 {
			fmt.Fprintf(w, ", skipped %v", skipped)
		}
		fmt.Fprintln(w)
	}
}

func relStdDev(s Summary) float64 {
	if s.MeanNsPerOp == 0 {
		return 0
	}
	return s.StdDevNsPerOp / s.MeanNsPerOp * 100
}
