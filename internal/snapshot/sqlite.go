package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/filecat/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS snapshot_meta (
	id       INTEGER PRIMARY KEY CHECK (id = 1),
	saved_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS scans (
	ord                  INTEGER PRIMARY KEY,
	id                   INTEGER NOT NULL UNIQUE,
	root_path            TEXT    NOT NULL,
	scan_date            TEXT    NOT NULL,
	total_files          INTEGER NOT NULL DEFAULT 0,
	total_folders        INTEGER NOT NULL DEFAULT 0,
	total_size           INTEGER NOT NULL DEFAULT 0,
	extractable_files    INTEGER NOT NULL DEFAULT 0,
	total_content_length INTEGER NOT NULL DEFAULT 0,
	duration_seconds     REAL    NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS files (
	ord               INTEGER PRIMARY KEY,
	name              TEXT    NOT NULL,
	path              TEXT    NOT NULL,
	is_directory      INTEGER NOT NULL DEFAULT 0,
	size              INTEGER NOT NULL DEFAULT 0,
	modified_time     TEXT    NOT NULL,
	created_time      TEXT    NOT NULL,
	extension         TEXT    NOT NULL DEFAULT '',
	scan_id           INTEGER NOT NULL,
	title             TEXT    NOT NULL DEFAULT '',
	content           TEXT    NOT NULL DEFAULT '',
	extractable       INTEGER NOT NULL DEFAULT 0,
	content_length    INTEGER NOT NULL DEFAULT 0,
	word_count        INTEGER NOT NULL DEFAULT 0,
	extraction_reason TEXT    NOT NULL DEFAULT '',
	added_at          TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_files_scan ON files(scan_id);
`

// SQLite implements Store on a SQLite database. A save rewrites every row
// inside one transaction, so readers see whole snapshots only.
type SQLite struct {
	path string
	conn *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("snapshot: mkdir: %w", err)
	}
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("snapshot: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("snapshot: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("snapshot: apply schema: %w", err)
	}
	return &SQLite{path: path, conn: conn}, nil
}

// Load reads the snapshot in stored order.
func (s *SQLite) Load(ctx context.Context) (*models.Snapshot, error) {
	var savedAt string
	err := s.conn.QueryRowContext(ctx, `SELECT saved_at FROM snapshot_meta WHERE id = 1`).Scan(&savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot: read meta: %w", err)
	}

	snap := &models.Snapshot{Scans: []models.Scan{}, Files: []models.FileRecord{}}
	if err := s.loadScans(ctx, snap); err != nil {
		return nil, err
	}
	if err := s.loadFiles(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *SQLite) loadScans(ctx context.Context, snap *models.Snapshot) error {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, root_path, scan_date, total_files, total_folders, total_size,
		       extractable_files, total_content_length, duration_seconds
		FROM scans ORDER BY ord
	`)
	if err != nil {
		return fmt.Errorf("snapshot: load scans: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sc models.Scan
		var date string
		if err := rows.Scan(&sc.ID, &sc.RootPath, &date, &sc.TotalFiles, &sc.TotalFolders, &sc.TotalSize,
			&sc.ExtractableFiles, &sc.TotalContentLength, &sc.DurationSeconds); err != nil {
			return fmt.Errorf("snapshot: scan row: %w", err)
		}
		if sc.ScanDate, err = parseTime(date); err != nil {
			return err
		}
		snap.Scans = append(snap.Scans, sc)
	}
	return rows.Err()
}

func (s *SQLite) loadFiles(ctx context.Context, snap *models.Snapshot) error {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT name, path, is_directory, size, modified_time, created_time, extension,
		       scan_id, title, content, extractable, content_length, word_count,
		       extraction_reason, added_at
		FROM files ORDER BY ord
	`)
	if err != nil {
		return fmt.Errorf("snapshot: load files: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var f models.FileRecord
		var modified, created, added string
		if err := rows.Scan(&f.Name, &f.Path, &f.IsDirectory, &f.Size, &modified, &created, &f.Extension,
			&f.ScanID, &f.Title, &f.Content, &f.Extractable, &f.ContentLength, &f.WordCount,
			&f.ExtractionReason, &added); err != nil {
			return fmt.Errorf("snapshot: file row: %w", err)
		}
		if f.ModifiedTime, err = parseTime(modified); err != nil {
			return err
		}
		if f.CreatedTime, err = parseTime(created); err != nil {
			return err
		}
		if f.AddedAt, err = parseTime(added); err != nil {
			return err
		}
		snap.Files = append(snap.Files, f)
	}
	return rows.Err()
}

// Save replaces all rows within a transaction.
func (s *SQLite) Save(ctx context.Context, snap *models.Snapshot) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("snapshot: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.ExecContext(ctx, `DELETE FROM files`); err != nil {
		return fmt.Errorf("snapshot: clear files: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM scans`); err != nil {
		return fmt.Errorf("snapshot: clear scans: %w", err)
	}

	scanStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO scans (ord, id, root_path, scan_date, total_files, total_folders, total_size,
		                   extractable_files, total_content_length, duration_seconds)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("snapshot: prepare scan insert: %w", err)
	}
	defer scanStmt.Close()
	for i, sc := range snap.Scans {
		if _, err := scanStmt.ExecContext(ctx, i, sc.ID, sc.RootPath, formatTime(sc.ScanDate),
			sc.TotalFiles, sc.TotalFolders, sc.TotalSize, sc.ExtractableFiles,
			sc.TotalContentLength, sc.DurationSeconds); err != nil {
			return fmt.Errorf("snapshot: insert scan %d: %w", sc.ID, err)
		}
	}

	fileStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO files (ord, name, path, is_directory, size, modified_time, created_time,
		                   extension, scan_id, title, content, extractable, content_length,
		                   word_count, extraction_reason, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("snapshot: prepare file insert: %w", err)
	}
	defer fileStmt.Close()
	for i, f := range snap.Files {
		if _, err := fileStmt.ExecContext(ctx, i, f.Name, f.Path, f.IsDirectory, f.Size,
			formatTime(f.ModifiedTime), formatTime(f.CreatedTime), f.Extension, f.ScanID,
			f.Title, f.Content, f.Extractable, f.ContentLength, f.WordCount,
			f.ExtractionReason, formatTime(f.AddedAt)); err != nil {
			return fmt.Errorf("snapshot: insert file %s: %w", f.Path, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO snapshot_meta (id, saved_at) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET saved_at = excluded.saved_at
	`, formatTime(time.Now())); err != nil {
		return fmt.Errorf("snapshot: write meta: %w", err)
	}

	return tx.Commit()
}

// Size returns the database file size including its write-ahead log.
func (s *SQLite) Size() (int64, error) {
	var total int64
	for _, p := range []string{s.path, s.path + "-wal"} {
		info, err := os.Stat(p)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return 0, fmt.Errorf("snapshot: stat: %w", err)
		}
		total += info.Size()
	}
	return total, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("snapshot: parse time %q: %w", s, err)
	}
	return t, nil
}
