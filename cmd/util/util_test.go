package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ValentinKolb/kvbench/lib/store"
	"github.com/ValentinKolb/kvbench/lib/workload"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newCommand returns a command with the run flags bound to a fresh viper.
func newCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	cmd := &cobra.Command{Use: "test"}
	SetupRunFlags(cmd, workload.DefaultConfig())
	require.NoError(t, cmd.ParseFlags(args))
	InitConfig()
	require.NoError(t, BindCommandFlags(cmd))
	return cmd
}

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 40)
	for _, line := range strings.Split(WrapString(text), "\n") {
		assert.LessOrEqual(t, len(line), Wrap)
	}
	assert.Equal(t, "short text", WrapString("  short   text "))
	assert.Empty(t, WrapString(""))
}

func TestGetRunConfigDefaults(t *testing.T) {
	newCommand(t)

	cfg, err := GetRunConfig()
	require.NoError(t, err)
	assert.Equal(t, workload.DefaultConfig(), cfg)
}

func TestGetRunConfigFlags(t *testing.T) {
	newCommand(t,
		"--store", "rocksdb,bbolt",
		"--num", "5000",
		"--key-kind", "INT",
		"--key-width", "8",
		"--key-order", "native",
		"--val-size", "2048",
		"--val-random",
		"--sequential=false",
		"--seed", "42",
		"--sync",
		"--map-size", "2GiB",
		"--latency",
	)

	cfg, err := GetRunConfig()
	require.NoError(t, err)
	assert.Equal(t, string(store.ImplPebble), cfg.Store)
	assert.Equal(t, 5000, cfg.Entries)
	assert.Equal(t, workload.KeyInt, cfg.KeyKind)
	assert.Equal(t, 8, cfg.KeyWidth)
	assert.Equal(t, workload.OrderNative, cfg.KeyOrder)
	assert.Equal(t, 2048, cfg.ValueSize)
	assert.True(t, cfg.RandomVals)
	assert.False(t, cfg.Sequential)
	assert.Equal(t, uint64(42), cfg.Seed)
	assert.True(t, cfg.Sync)
	assert.Equal(t, int64(2<<30), cfg.MapSize)
	assert.True(t, cfg.TrackLatency)

	stores, err := GetStores()
	require.NoError(t, err)
	assert.Equal(t, []store.Implementation{store.ImplPebble, store.ImplBolt}, stores)
}

func TestGetRunConfigEnv(t *testing.T) {
	t.Setenv("KVBENCH_VAL_SIZE", "512")
	t.Setenv("KVBENCH_STORE", "all")
	newCommand(t)

	cfg, err := GetRunConfig()
	require.NoError(t, err)
	assert.Equal(t, 512, cfg.ValueSize)

	stores, err := GetStores()
	require.NoError(t, err)
	assert.Len(t, stores, 9)
}

func TestGetRunConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kvbench.yaml")
	require.NoError(t, os.WriteFile(path, []byte("num: 123\nkey-kind: string\nstore: btree\n"), 0o644))

	// flags win over the config file
	newCommand(t, "--config", path, "--val-size", "16")

	cfg, err := GetRunConfig()
	require.NoError(t, err)
	assert.Equal(t, 123, cfg.Entries)
	assert.Equal(t, workload.KeyString, cfg.KeyKind)
	assert.Equal(t, 16, cfg.ValueSize)
	assert.Equal(t, string(store.ImplBTree), cfg.Store)
}

func TestGetRunConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown store", []string{"--store", "mongodb"}},
		{"bad map size", []string{"--map-size", "lots"}},
		{"bad key width", []string{"--key-width", "3"}},
		{"bad value size", []string{"--val-size", "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			newCommand(t, tt.args...)
			_, err := GetRunConfig()
			require.Error(t, err)
			assert.True(t, store.IsCode(err, store.RetCConfiguration), "got %v", err)
		})
	}
}
