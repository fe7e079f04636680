package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// FileBlob stores the payload in a single JSON file. Writes go through a
// temp file in the same directory followed by a rename, so readers never
// observe a half-written payload.
type FileBlob struct {
	path string
}

// NewFileBlob returns a blob backed by path. The parent directory is
// created on first write.
func NewFileBlob(path string) *FileBlob {
	return &FileBlob{path: path}
}

// Path returns the backing file path.
func (f *FileBlob) Path() string {
	return f.path
}

func (f *FileBlob) Read(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

func (f *FileBlob) Write(_ context.Context, data []byte) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".deskcal-events-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, f.path)
}

func (f *FileBlob) Remove(_ context.Context) error {
	err := os.Remove(f.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Ping creates and deletes a scratch file next to the payload.
func (f *FileBlob) Ping(_ context.Context) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	scratch, err := os.CreateTemp(dir, ".deskcal-ping-*")
	if err != nil {
		return err
	}
	name := scratch.Name()
	scratch.Close()
	return os.Remove(name)
}
