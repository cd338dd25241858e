package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mars-etl/ethetl/internal/errs"
)

// FsStorage writes blobs under a local directory root.
type FsStorage struct {
	root string
}

// NewFsStorage constructs an FsStorage rooted at dataPath.
func NewFsStorage(dataPath string) *FsStorage {
	return &FsStorage{root: dataPath}
}

func (s *FsStorage) Put(ctx context.Context, path string, data []byte) error {
	const op = "storage.FsStorage.Put"
	full := filepath.Join(s.root, path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return errs.Storage(op, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return errs.Storage(op, err)
	}
	return nil
}

// Get reads back a previously written blob. A missing file is not an
// error; it reports found=false so callers can distinguish "no
// checkpoint yet" from a real read failure.
func (s *FsStorage) Get(ctx context.Context, path string) ([]byte, bool, error) {
	const op = "storage.FsStorage.Get"
	data, err := os.ReadFile(filepath.Join(s.root, path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, errs.Storage(op, err)
	}
	return data, true, nil
}

// PutAtomic writes data to a temp file in the same directory, then
// renames it into place, satisfying spec §4.F's checkpoint-commit
// atomicity requirement.
func (s *FsStorage) PutAtomic(ctx context.Context, path string, data []byte) error {
	const op = "storage.FsStorage.PutAtomic"
	full := filepath.Join(s.root, path)
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errs.Checkpoint(op, err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return errs.Checkpoint(op, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errs.Checkpoint(op, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errs.Checkpoint(op, err)
	}
	if err := os.Rename(tmpName, full); err != nil {
		os.Remove(tmpName)
		return errs.Checkpoint(op, fmt.Errorf("rename %s -> %s: %w", tmpName, full, err))
	}
	return nil
}
