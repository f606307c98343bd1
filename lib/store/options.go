package store

import (
	"fmt"
	"strings"
)

// DefaultMapSizeFactor multiplies entries*valueSize into a memory map size
// hint when no explicit map size is given.
const DefaultMapSizeFactor = 128

// Options carries the run parameters an adapter needs to open its engine.
// They are fixed for the lifetime of the store.
type Options struct {
	// Dir is the workspace directory owned by the store. Adapters create
	// their files inside it and never outside.
	Dir string

	// Entries is the number of entries the run will write.
	Entries int
	// KeySize is the encoded key width in bytes.
	KeySize int
	// ValueSize is the value width in bytes.
	ValueSize int

	// IntegerKey tells the adapter that keys are native-order integers so
	// engines with an integer comparator can use it.
	IntegerKey bool
	// Sequential tells the adapter that keys arrive in ascending engine order
	// so append fast paths are safe.
	Sequential bool

	// Sync forces a durable flush on commit.
	Sync bool
	// MetaSync forces a flush of engine metadata on commit (LMDB only).
	MetaSync bool
	// WriteMap uses a writable memory map where supported (LMDB only).
	WriteMap bool
	// MapSize is the memory map or preallocation size hint in bytes. Zero
	// selects Entries*ValueSize*DefaultMapSizeFactor.
	MapSize int64
}

// EffectiveMapSize returns MapSize or the derived default.
func (o Options) EffectiveMapSize() int64 {
	if o.MapSize > 0 {
		return o.MapSize
	}
	size := int64(o.Entries) * int64(o.ValueSize) * DefaultMapSizeFactor
	// tiny runs still need room for the engine's own pages
	if size < 1<<20 {
		size = 1 << 20
	}
	return size
}

// Validate checks the options every adapter relies on.
func (o Options) Validate() error {
	if o.Dir == "" {
		return ConfigError("store directory must be set")
	}
	if o.KeySize <= 0 {
		return ConfigError("key size must be positive, got %d", o.KeySize)
	}
	if o.ValueSize < 0 {
		return ConfigError("value size must not be negative, got %d", o.ValueSize)
	}
	if o.Entries < 0 {
		return ConfigError("entry count must not be negative, got %d", o.Entries)
	}
	return nil
}

// String returns a formatted string representation of the options
func (o Options) String() string {
	var sb strings.Builder
	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}
	addField("Dir", o.Dir)
	addField("Entries", fmt.Sprintf("%d", o.Entries))
	addField("Key size", fmt.Sprintf("%d bytes", o.KeySize))
	addField("Value size", fmt.Sprintf("%d bytes", o.ValueSize))
	addField("Integer key", fmt.Sprintf("%t", o.IntegerKey))
	addField("Sequential", fmt.Sprintf("%t", o.Sequential))
	addField("Sync", fmt.Sprintf("%t", o.Sync))
	addField("Meta sync", fmt.Sprintf("%t", o.MetaSync))
	addField("Write map", fmt.Sprintf("%t", o.WriteMap))
	addField("Map size", fmt.Sprintf("%d bytes", o.EffectiveMapSize()))
	return sb.String()
}
