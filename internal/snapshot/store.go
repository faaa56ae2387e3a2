// Package snapshot persists the whole catalog as a single replaceable unit.
package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/starford/filecat/internal/models"
)

// Backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// ErrNotExist is returned by Load when no snapshot has been written yet.
var ErrNotExist = errors.New("snapshot: not found")

// Store is the interface for snapshot persistence. Save replaces the
// previous snapshot atomically: a concurrent Load sees either the old or
// the new state, never a mix.
type Store interface {
	// Load returns the last saved snapshot, or ErrNotExist.
	Load(ctx context.Context) (*models.Snapshot, error)
	// Save atomically replaces the stored snapshot.
	Save(ctx context.Context, snap *models.Snapshot) error
	// Size returns the on-disk size of the snapshot in bytes.
	Size() (int64, error)
	// Close releases backend resources.
	Close() error
}

// Open returns the Store for backend rooted at path.
func Open(backend, path string) (Store, error) {
	switch backend {
	case BackendFile, "":
		return NewFile(path)
	case BackendSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("snapshot: unknown backend %q", backend)
	}
}
