package bench

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/ValentinKolb/kvbench/cmd/util"
	"github.com/ValentinKolb/kvbench/lib/report"
	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/ValentinKolb/kvbench/lib/store/engines"
	"github.com/ValentinKolb/kvbench/lib/workload"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	log = logger.GetLogger("cmd")

	// BenchCmd runs the benchmark over the selected stores
	BenchCmd = &cobra.Command{
		Use:   "bench",
		Short: "Benchmark embedded key-value stores",
		Long: `Write, read, scan and verify a generated dataset in every selected store and report the time per operation.
The configuration can be set via command line flags, environment variables (KVBENCH_<flag>, e.g. KVBENCH_VAL_SIZE=1024) or a YAML file passed with --config.`,
		PreRunE: processBenchConfig,
		RunE:    run,
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)
	util.SetupRunFlags(BenchCmd, workload.DefaultConfig())

	// add flags
	key := "warmup"
	BenchCmd.Flags().Int(key, 1, util.WrapString("Number of unmeasured warmup runs per store"))
	key = "iterations"
	BenchCmd.Flags().Int(key, 3, util.WrapString("Number of measured runs per store"))
	key = "out"
	BenchCmd.Flags().String(key, "", util.WrapString("Optional path to save the results (.csv, .json or .yaml)"))
	key = "prom-out"
	BenchCmd.Flags().String(key, "", util.WrapString("Optional path to save the results in the Prometheus text format"))
	key = "profile"
	BenchCmd.Flags().String(key, "", util.WrapString("Write a profile of the benchmark (cpu, mem, block, mutex, trace)"))
	key = "profile-dir"
	BenchCmd.Flags().String(key, ".", util.WrapString("Directory for the profile written by --profile"))
}

// Options configures RunBenchmarks.
type Options struct {
	Config     workload.Config
	Stores     []store.Implementation
	Warmup     int
	Iterations int
	Workspace  *workload.Workspace
}

// processBenchConfig binds the flags to viper and validates the run counts
func processBenchConfig(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	if viper.GetInt("warmup") < 0 {
		return fmt.Errorf("warmup must not be negative")
	}
	if viper.GetInt("iterations") < 1 {
		return fmt.Errorf("iterations must be at least 1")
	}
	return nil
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

	if mode := viper.GetString("profile"); mode != "" {
		opt, err := profileMode(mode)
		if err != nil {
			return err
		}
		defer profile.Start(opt, profile.ProfilePath(viper.GetString("profile-dir")), profile.NoShutdownHook, profile.Quiet).Stop()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	fmt.Println("Configuration:")
	fmt.Println(cfg.String())
	fmt.Printf("Stores: %s\n\n", joinStores(stores))

	collector, err := RunBenchmarks(ctx, Options{
		Config:     cfg,
		Stores:     stores,
		Warmup:     viper.GetInt("warmup"),
		Iterations: viper.GetInt("iterations"),
	})
	if err != nil {
		return err
	}

	fmt.Println()
	report.PrintCollector(os.Stdout, collector)

	// Write results if specified
	if path := viper.GetString("out"); path != "" {
		fmt.Printf("\nExporting results: %s\n", path)
		doc := report.Document{
			Version:   util.Version,
			Timestamp: time.Now().UTC(),
			Config:    cfg,
			Stores:    collector.Stores(),
			Warmup:    viper.GetInt("warmup"),
			Results:   collector.Summaries(),
		}
		if err := report.Export(path, doc); err != nil {
			return fmt.Errorf("failed to export results: %v", err)
		}
	}
	if path := viper.GetString("prom-out"); path != "" {
		fmt.Printf("Exporting metrics: %s\n", path)
		if err := writePrometheus(path, collector); err != nil {
			return fmt.Errorf("failed to export metrics: %v", err)
		}
	}
	return nil
}

// RunBenchmarks runs warmup and measured iterations for every store and
// collects the measured ones. The first failing run aborts the benchmark.
func RunBenchmarks(ctx context.Context, opts Options) (*report.Collector, error) {
	var pool *workload.Pool
	if opts.Config.RandomVals {
		var err error
		if pool, err = workload.NewPool(workload.DefaultPoolSize, opts.Config.Seed); err != nil {
			return nil, err
		}
	}

	collector := report.NewCollector()
	for _, impl := range opts.Stores {
		factory, err := engines.Factory(impl)
		if err != nil {
			return nil, err
		}
		cfg := opts.Config
		cfg.Store = string(impl)
		driver, err := workload.NewDriver(cfg, pool, factory, opts.Workspace)
		if err != nil {
			return nil, err
		}

		for i := 0; i < opts.Warmup+opts.Iterations; i++ {
			warmup := i < opts.Warmup
			res, err := driver.Run(ctx)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", impl, err)
			}
			if warmup {
				log.Infof("%s: warmup %d/%d done", impl, i+1, opts.Warmup)
				continue
			}
			log.Infof("%s: iteration %d/%d done", impl, i-opts.Warmup+1, opts.Iterations)
			collector.Add(string(impl), res)
		}
		fmt.Printf("%-20sdone (%d iterations)\n", impl, opts.Iterations)
	}
	return collector, nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func profileMode(mode string) (func(*profile.Profile), error) {
	switch strings.ToLower(mode) {
	case "cpu":
		return profile.CPUProfile, nil
	case "mem":
		return profile.MemProfile, nil
	case "block":
		return profile.BlockProfile, nil
	case "mutex":
		return profile.MutexProfile, nil
	case "trace":
		return profile.TraceProfile, nil
	default:
		return nil, fmt.Errorf("invalid profile %s (expected cpu, mem, block, mutex, trace)", mode)
	}
}

func writePrometheus(path string, collector *report.Collector) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	report.WritePrometheus(file, collector.Summaries())
	return file.Close()
}

func joinStores(stores []store.Implementation) string {
	names := make([]string, len(stores))
	for i, s := range stores {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
