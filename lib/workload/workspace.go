package workload

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// --------------------------------------------------------------------------
// Workspace
// --------------------------------------------------------------------------

// Workspace owns the temporary directories of benchmark runs. Engines open
// their files through the operating system, so production workspaces use
// afero.NewOsFs; tests may pass an in-memory filesystem.
type Workspace struct {
	fs   afero.Fs
	root string
}

// NewWorkspace returns a workspace rooted at root, or at the system temp
// directory when root is empty.
func NewWorkspace(fs afero.Fs, root string) *Workspace {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if root == "" {
		root = os.TempDir()
	}
	return &Workspace{fs: fs, root: root}
}

// Root returns the workspace root.
func (w *Workspace) Root() string { return w.root }

// Fs returns the filesystem the workspace operates on.
func (w *Workspace) Fs() afero.Fs { return w.fs }

// Create makes a fresh run directory named <name>-<uuid>.
func (w *Workspace) Create(name string) (string, error) {
	if err := w.fs.MkdirAll(w.root, 0o755); err != nil {
		return "", fmt.Errorf("failed to create workspace root %s: %w", w.root, err)
	}
	dir := filepath.Join(w.root, fmt.Sprintf("%s-%s", name, uuid.NewString()))
	if err := w.fs.Mkdir(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create run directory %s: %w", dir, err)
	}
	return dir, nil
}

// Usage returns the bytes allocated on disk by all files below dir. On
// filesystems that report block counts this is blocks*512, otherwise the
// logical file size.
func (w *Workspace) Usage(dir string) (int64, error) {
	var total int64
	err := afero.Walk(w.fs, dir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		total += allocatedBytes(info)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to measure %s: %w", dir, err)
	}
	return total, nil
}

// Remove deletes dir and everything below it.
func (w *Workspace) Remove(dir string) error {
	if err := w.fs.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove run directory %s: %w", dir, err)
	}
	return nil
}
