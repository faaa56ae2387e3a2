// Package walker produces the flat file listing a scan ingests.
package walker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/filecat/internal/apperr"
	"github.com/starford/filecat/internal/models"
)

// Options controls which entries a walk reports.
type Options struct {
	// SkipHidden omits dot-files and does not descend into dot-directories.
	SkipHidden bool
}

// Walker lists a directory tree.
type Walker struct {
	opts   Options
	logger *slog.Logger
}

// New creates a Walker.
func New(opts Options, logger *slog.Logger) *Walker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Walker{opts: opts, logger: logger.With(slog.String("component", "walker"))}
}

// Walk returns every file and directory below root, root itself excluded.
// Unreadable subdirectories are logged and skipped.
func (w *Walker) Walk(ctx context.Context, root string) ([]models.RawFile, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("walker: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("walker: %s: %w", abs, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("walker: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("walker: %s is not a directory: %w", abs, apperr.ErrInvalidArgument)
	}

	var out []models.RawFile
	err = filepath.WalkDir(abs, func(p string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if p == abs {
				return walkErr
			}
			w.logger.Warn("skipping unreadable entry", slog.String("path", p), slog.String("error", walkErr.Error()))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if p == abs {
			return nil
		}
		if w.opts.SkipHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			w.logger.Warn("skipping entry", slog.String("path", p), slog.String("error", err.Error()))
			return nil
		}
		out = append(out, models.RawFile{
			Name:         d.Name(),
			Path:         p,
			IsDirectory:  d.IsDir(),
			Size:         sizeOf(fi),
			ModifiedTime: fi.ModTime(),
			CreatedTime:  createdTime(p, fi),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walker: walk %s: %w", abs, err)
	}
	w.logger.Debug("walk finished", slog.String("root", abs), slog.Int("entries", len(out)))
	return out, nil
}

func sizeOf(fi fs.FileInfo) int64 {
	if fi.IsDir() {
		return 0
	}
	return fi.Size()
}
