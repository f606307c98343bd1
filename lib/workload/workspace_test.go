package workload

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkspaceLifecycle(t *testing.T) {
	fs := afero.NewMemMapFs()
	ws := NewWorkspace(fs, "/bench")

	dir, err := ws.Create("lmdb")
	require.NoError(t, err)
	assert.Equal(t, "/bench", filepath.Dir(dir))
	assert.True(t, strings.HasPrefix(filepath.Base(dir), "lmdb-"))

	other, err := ws.Create("lmdb")
	require.NoError(t, err)
	assert.NotEqual(t, dir, other)

	require.NoError(t, afero.WriteFile(fs, filepath.Join(dir, "data.mdb"), make([]byte, 1000), 0o644))
	require.NoError(t, fs.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, afero.WriteFile(fs, filepath.Join(dir, "sub", "lock.mdb"), make([]byte, 24), 0o644))

	usage, err := ws.Usage(dir)
	require.NoError(t, err)
	assert.Equal(t, int64(1024), usage)

	require.NoError(t, ws.Remove(dir))
	exists, err := afero.DirExists(fs, dir)
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = afero.DirExists(fs, other)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestWorkspaceOsUsage(t *testing.T) {
	ws := NewWorkspace(afero.NewOsFs(), t.TempDir())
	dir, err := ws.Create("bolt")
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(ws.Fs(), filepath.Join(dir, "data.db"), make([]byte, 10_000), 0o644))

	usage, err := ws.Usage(dir)
	require.NoError(t, err)
	assert.Positive(t, usage)

	require.NoError(t, ws.Remove(dir))
}

func TestWorkspaceUsageMissingDir(t *testing.T) {
	ws := NewWorkspace(afero.NewMemMapFs(), "/bench")
	_, err := ws.Usage("/bench/nope")
	assert.Error(t, err)
}

func TestWorkspaceDefaultRoot(t *testing.T) {
	ws := NewWorkspace(nil, "")
	assert.NotEmpty(t, ws.Root())
	assert.NotNil(t, ws.Fs())
}
