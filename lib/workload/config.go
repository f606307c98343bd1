package workload

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/dustin/go-humanize"
)

// --------------------------------------------------------------------------
// Run configuration
// --------------------------------------------------------------------------

// Config holds the parameters of one benchmark run. A Config is immutable once
// a driver has been created from it.
type Config struct {
	// Store is the adapter name, see engines.Names
	Store string `json:"store" yaml:"store"`

	// Workload shape
	Entries    int      `json:"entries" yaml:"entries"`
	KeyKind    KeyKind  `json:"key_kind" yaml:"key_kind"`
	KeyWidth   int      `json:"key_width" yaml:"key_width"`
	KeyOrder   KeyOrder `json:"key_order" yaml:"key_order"`
	ValueSize  int      `json:"value_size" yaml:"value_size"`
	RandomVals bool     `json:"random_values" yaml:"random_values"`
	Sequential bool     `json:"sequential" yaml:"sequential"`
	Seed       uint64   `json:"seed" yaml:"seed"`

	// Engine tuning
	Sync     bool  `json:"sync" yaml:"sync"`
	MetaSync bool  `json:"meta_sync" yaml:"meta_sync"`
	WriteMap bool  `json:"write_map" yaml:"write_map"`
	MapSize  int64 `json:"map_size" yaml:"map_size"`

	// Phases
	Scan         bool `json:"scan" yaml:"scan"`
	Verify       bool `json:"verify" yaml:"verify"`
	TrackLatency bool `json:"latency" yaml:"latency"`

	// Workspace root, one sub directory is created per run
	TmpDir string `json:"tmp_dir,omitempty" yaml:"tmp_dir,omitempty"`
}

// DefaultConfig returns the parameters of the default run.
func DefaultConfig() Config {
	return Config{
		Store:      string(store.ImplLMDB),
		Entries:    1_000_000,
		KeyKind:    KeyInt,
		KeyWidth:   4,
		KeyOrder:   OrderBig,
		ValueSize:  100,
		RandomVals: false,
		Sequential: true,
		Sync:       false,
		MetaSync:   false,
		WriteMap:   true,
		Scan:       true,
		Verify:     true,
	}
}

// Codec returns the key codec described by the configuration.
func (c *Config) Codec() (KeyCodec, error) {
	return NewKeyCodec(c.KeyKind, c.KeyWidth, c.KeyOrder)
}

// Validate checks every parameter and returns a ConfigurationError for the
// first invalid one.
func (c *Config) Validate() error {
	if c.Store == "" {
		return store.ConfigError("store must be set")
	}
	if c.Entries < 0 {
		return store.ConfigError("entry count must not be negative, got %d", c.Entries)
	}
	if c.ValueSize <= 0 {
		return store.ConfigError("value size must be positive, got %d", c.ValueSize)
	}
	if c.RandomVals && c.ValueSize > DefaultPoolSize {
		return store.ConfigError("value size %d exceeds pool size %d", c.ValueSize, DefaultPoolSize)
	}
	if c.MapSize < 0 {
		return store.ConfigError("map size must not be negative, got %d", c.MapSize)
	}
	codec, err := c.Codec()
	if err != nil {
		return err
	}
	if uint64(c.Entries) > codec.Space() {
		return store.ConfigError("entry count %d exceeds the key space of %d keys", c.Entries, codec.Space())
	}
	return nil
}

// Options converts the configuration into adapter options for dir.
func (c *Config) Options(dir string, codec KeyCodec) store.Options {
	return store.Options{
		Dir:        dir,
		Entries:    c.Entries,
		KeySize:    codec.Size(),
		ValueSize:  c.ValueSize,
		IntegerKey: codec.NativeInteger(),
		// append paths need ascending keys in engine order
		Sequential: c.Sequential && (codec.OrderPreserving() || codec.NativeInteger()),
		Sync:       c.Sync,
		MetaSync:   c.MetaSync,
		WriteMap:   c.WriteMap,
		MapSize:    c.MapSize,
	}
}

// String returns a formatted string representation of the configuration
func (c *Config) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Store")
	addField("Adapter", c.Store)
	addField("Sync", fmt.Sprintf("%t", c.Sync))
	addField("Meta Sync", fmt.Sprintf("%t", c.MetaSync))
	addField("Write Map", fmt.Sprintf("%t", c.WriteMap))
	if c.MapSize > 0 {
		addField("Map Size", humanize.IBytes(uint64(c.MapSize)))
	} else {
		addField("Map Size", "auto")
	}

	addSection("Workload")
	addField("Entries", humanize.Comma(int64(c.Entries)))
	if c.KeyKind == KeyString {
		addField("Keys", fmt.Sprintf("string (%d bytes)", StringKeyLength))
	} else {
		addField("Keys", fmt.Sprintf("int (%d bytes, %s endian)", c.KeyWidth, c.KeyOrder))
	}
	addField("Value Size", fmt.Sprintf("%d bytes", c.ValueSize))
	addField("Random Values", fmt.Sprintf("%t", c.RandomVals))
	addField("Sequential", fmt.Sprintf("%t", c.Sequential))
	if c.Seed != 0 {
		addField("Seed", fmt.Sprintf("%d", c.Seed))
	} else {
		addField("Seed", "random")
	}

	addSection("Phases")
	addField("Scan", fmt.Sprintf("%t", c.Scan))
	addField("Verify", fmt.Sprintf("%t", c.Verify))
	addField("Latency Histograms", fmt.Sprintf("%t", c.TrackLatency))
	if c.TmpDir != "" {
		addField("Workspace", c.TmpDir)
	}

	return sb.String()
}
