package verify

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/ValentinKolb/kvbench/cmd/util"
	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/ValentinKolb/kvbench/lib/store/engines"
	"github.com/ValentinKolb/kvbench/lib/workload"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// QuickEntries is the default entry count of a verification cycle
const QuickEntries = 10_000

// VerifyCmd runs one integrity cycle per selected store
var VerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that every selected store returns exactly what was written",
	Long: `Run a single write, read, scan and verify cycle against every selected store and compare the CRC32 and XXH64 checksums of all phases.
Exits with a non-zero status if any store fails.`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return util.BindCommandFlags(cmd)
	},
	RunE: run,
}

func init() {
	cobra.OnInitialize(util.InitConfig)

	// a quick check does not need the benchmark dataset size
	def := workload.DefaultConfig()
	def.Entries = QuickEntries
	util.SetupRunFlags(VerifyCmd, def)
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := util.GetRunConfig()
	if err != nil {
		return err
	}
	stores, err := util.GetStores()
	if err != nil {
		return err
	}
	// the checksum comparison is the point of this command
	cfg.Scan = true
	cfg.Verify = true

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if failed := Check(ctx, os.Stdout, cfg, stores, nil); failed > 0 {
		return fmt.Errorf("%d of %d stores failed verification", failed, len(stores))
	}
	return nil
}

// Check runs one cycle per store, prints one line per store to w and returns
// the number of failed stores.
func Check(ctx context.Context, w io.Writer, cfg workload.Config, stores []store.Implementation, ws *workload.Workspace) int {
	failed := 0
	for _, impl := range stores {
		c := cfg
		c.Store = string(impl)
		res, err := checkStore(ctx, c, impl, ws)
		if err != nil {
			failed++
			fmt.Fprintf(w, "%-20sFAIL %v\n", impl, err)
			continue
		}

		sums := res.Checksums
		status := "OK"
		if len(res.Skipped) > 0 {
			status = fmt.Sprintf("OK (skipped %v)", res.Skipped)
		}
		fmt.Fprintf(w, "%-20s%s\t%s entries\tcrc %08x\txxh64 %016x\t%s on disk\n",
			impl, status, humanize.Comma(int64(res.Entries)), sums.WriteCRC, sums.WriteXXH64, humanize.IBytes(uint64(res.DiskBytes)))
	}
	return failed
}

func checkStore(ctx context.Context, cfg workload.Config, impl store.Implementation, ws *workload.Workspace) (*workload.RunResult, error) {
	factory, err := engines.Factory(impl)
	if err != nil {
		return nil, err
	}
	driver, err := workload.NewDriver(cfg, nil, factory, ws)
	if err != nil {
		return nil, err
	}
	return driver.Run(ctx)
}
