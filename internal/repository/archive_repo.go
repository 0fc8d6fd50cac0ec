package repository

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// ArchiveFS appends immutable telemetry objects to a filesystem tree. The
// hierarchical key (year=/month=/day= prefixes) becomes the directory layout,
// so external batch jobs can scan a single day by prefix.
type ArchiveFS struct {
	fs   afero.Fs
	root string
}

func NewArchiveFS(fs afero.Fs, root string) *ArchiveFS {
	return &ArchiveFS{fs: fs, root: root}
}

var _ ArchiveRepo = (*ArchiveFS)(nil)

// Put creates the object at key. The call is create-only (O_EXCL): keys are
// unique per event, so an existing file means a key collision and the write
// fails rather than overwriting history.
func (a *ArchiveFS) Put(ctx context.Context, key string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return newStoreError(StoreArchive, err)
	}

	full := filepath.Join(a.root, filepath.FromSlash(key))
	if err := a.fs.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return newStoreError(StoreArchive, err)
	}

	f, err := a.fs.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return newStoreError(StoreArchive, err)
	}
	if _, err := f.Write(body); err != nil {
		_ = f.Close()
		return newStoreError(StoreArchive, err)
	}
	if err := f.Close(); err != nil {
		return newStoreError(StoreArchive, err)
	}
	return nil
}
