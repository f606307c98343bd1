package util

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/kvbench/lib/common"
	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/ValentinKolb/kvbench/lib/store/engines"
	"github.com/ValentinKolb/kvbench/lib/workload"
	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Version of kvbench
	Version = "1.0.0"

	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50

	// EnvPrefix is the prefix of all environment variables (KVBENCH_NUM, ...)
	EnvPrefix = "kvbench"
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupRunFlags adds the workload and store flags shared by bench and verify,
// using def for the default values
func SetupRunFlags(cmd *cobra.Command, def workload.Config) {

	key := "store"
	cmd.PersistentFlags().String(key, def.Store, WrapString(fmt.Sprintf("Comma-separated list of stores to run or 'all'. Available: %s (aliases: %s)", strings.Join(engines.Names(), ", "), strings.Join(engines.AliasNames(), ", "))))

	key = "num"
	cmd.PersistentFlags().Int(key, def.Entries, WrapString("Number of entries written and read per run"))

	key = "key-kind"
	cmd.PersistentFlags().String(key, string(def.KeyKind), WrapString("Key encoding: int (fixed width binary) or string (16 byte zero-padded decimal)"))

	key = "key-width"
	cmd.PersistentFlags().Int(key, def.KeyWidth, WrapString("Width of integer keys in bytes (4 or 8)"))

	key = "key-order"
	cmd.PersistentFlags().String(key, string(def.KeyOrder), WrapString("Byte order of integer keys: big (sorts like the integers) or native (for integer key comparators)"))

	key = "val-size"
	cmd.PersistentFlags().Int(key, def.ValueSize, WrapString("Size of each value in bytes"))

	key = "val-random"
	cmd.PersistentFlags().Bool(key, def.RandomVals, WrapString("Take values from a seeded random pool instead of deriving them from the key"))

	key = "sequential"
	cmd.PersistentFlags().Bool(key, def.Sequential, WrapString("Insert keys in ascending order instead of a random permutation"))

	key = "seed"
	cmd.PersistentFlags().Uint64(key, def.Seed, WrapString("Seed of the key and value generators (0 picks a random seed per run)"))

	key = "sync"
	cmd.PersistentFlags().Bool(key, def.Sync, WrapString("Flush to disk on every commit"))

	key = "meta-sync"
	cmd.PersistentFlags().Bool(key, def.MetaSync, WrapString("Flush engine metadata on every commit (LMDB only)"))

	key = "write-map"
	cmd.PersistentFlags().Bool(key, def.WriteMap, WrapString("Use a writable memory map (LMDB only)"))

	key = "map-size"
	cmd.PersistentFlags().String(key, "auto", WrapString("Memory map size hint, e.g. 4GiB. 'auto' derives it from num * val-size * 128"))

	key = "scan"
	cmd.PersistentFlags().Bool(key, def.Scan, WrapString("Run the forward and reverse cursor scans"))

	key = "verify"
	cmd.PersistentFlags().Bool(key, def.Verify, WrapString("Verify the stored data against the write checksums after each run"))

	key = "latency"
	cmd.PersistentFlags().Bool(key, def.TrackLatency, WrapString("Record per-operation latency histograms (adds timer overhead)"))

	key = "tmp-dir"
	cmd.PersistentFlags().String(key, "", WrapString("Directory for the temporary store files (default: system temp directory)"))

	key = "log-level"
	cmd.PersistentFlags().String(key, "warn", WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	key = "config"
	cmd.PersistentFlags().String(key, "", WrapString("Optional YAML file with default values for all flags (keys are the flag names)"))
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's flags to viper, reads the optional
// config file and initializes the loggers
func BindCommandFlags(cmd *cobra.Command) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if path := viper.GetString("config"); path != "" {
		viper.SetConfigFile(path)
		viper.SetConfigType("yaml")
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	return common.InitLoggers(viper.GetString("log-level"))
}

// GetRunConfig reads the workload configuration from viper
func GetRunConfig() (workload.Config, error) {
	cfg := workload.Config{
		Entries:      viper.GetInt("num"),
		KeyKind:      workload.KeyKind(strings.ToLower(viper.GetString("key-kind"))),
		KeyWidth:     viper.GetInt("key-width"),
		KeyOrder:     workload.KeyOrder(strings.ToLower(viper.GetString("key-order"))),
		ValueSize:    viper.GetInt("val-size"),
		RandomVals:   viper.GetBool("val-random"),
		Sequential:   viper.GetBool("sequential"),
		Seed:         viper.GetUint64("seed"),
		Sync:         viper.GetBool("sync"),
		MetaSync:     viper.GetBool("meta-sync"),
		WriteMap:     viper.GetBool("write-map"),
		Scan:         viper.GetBool("scan"),
		Verify:       viper.GetBool("verify"),
		TrackLatency: viper.GetBool("latency"),
		TmpDir:       viper.GetString("tmp-dir"),
	}

	// parse map size
	if mapSize := strings.TrimSpace(viper.GetString("map-size")); mapSize != "" && mapSize != "auto" {
		size, err := humanize.ParseBytes(mapSize)
		if err != nil {
			return cfg, store.ConfigError("invalid map size %q: %v", mapSize, err)
		}
		cfg.MapSize = int64(size)
	}

	// the store is set per run, validate with the first selected one
	stores, err := GetStores()
	if err != nil {
		return cfg, err
	}
	cfg.Store = string(stores[0])
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// GetStores resolves the configured store list
func GetStores() ([]store.Implementation, error) {
	return engines.ParseList(viper.GetString("store"))
}
