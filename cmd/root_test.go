package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ValentinKolb/kvbench/lib/store/engines"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListStores(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ListStores(&buf, t.TempDir()))
	out := buf.String()

	for _, name := range engines.Names() {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "lmdbjni     alias of lmdb")
	assert.Contains(t, out, "rocksdb     alias of pebble")

	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "hashmap") {
			assert.Contains(t, line, "Put, Get")
			assert.NotContains(t, line, "Scan")
		}
	}
}

func TestCommandTree(t *testing.T) {
	names := make([]string, 0)
	for _, c := range RootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"bench", "verify", "stores", "version"})
}
