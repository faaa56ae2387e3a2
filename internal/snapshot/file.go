package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/starford/filecat/internal/models"
)

// File implements Store as one JSON document holding {scans, files}.
type File struct {
	path string // absolute path of the canonical snapshot
}

// NewFile creates a file-backed store. The parent directory is created if
// it does not exist.
func NewFile(path string) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: resolve path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("snapshot: mkdir: %w", err)
	}
	return &File{path: abs}, nil
}

// Path returns the canonical snapshot location.
func (f *File) Path() string { return f.path }

// Load reads and decodes the snapshot.
func (f *File) Load(_ context.Context) (*models.Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("snapshot: read: %w", err)
	}
	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("snapshot: decode %s: %w", f.path, err)
	}
	return &snap, nil
}

// Save atomically writes the snapshot: tmp file → fsync → rename.
func (f *File) Save(ctx context.Context, snap *models.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(nonNil(snap))
	if err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".filecat-tmp-*")
	if err != nil {
		return fmt.Errorf("snapshot: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("snapshot: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("snapshot: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("snapshot: close temp: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("snapshot: rename: %w", err)
	}
	success = true
	return nil
}

// Size returns the byte size of the snapshot file, 0 if absent.
func (f *File) Size() (int64, error) {
	info, err := os.Stat(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("snapshot: stat: %w", err)
	}
	return info.Size(), nil
}

// Close is a no-op for the file backend.
func (f *File) Close() error { return nil }

// nonNil keeps empty collections encoded as [] rather than null.
func nonNil(snap *models.Snapshot) *models.Snapshot {
	out := *snap
	if out.Scans == nil {
		out.Scans = []models.Scan{}
	}
	if out.Files == nil {
		out.Files = []models.FileRecord{}
	}
	return &out
}
