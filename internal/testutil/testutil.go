// Package testutil provides shared test helpers for building directory
// trees and loaded catalogs.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/filecat/internal/catalog"
	"github.com/starford/filecat/internal/snapshot"
)

// GreetingDocs is a three-file tree where two files mention "hello".
var GreetingDocs = map[string]string{
	"readme.md": "# Hello",
	"notes.txt": "hello world",
	"photo.png": "\x89PNG\r\n\x1a\n",
}

// WriteTree creates files (relative path to content) under a new directory
// named name inside a test temp dir and returns its path.
func WriteTree(t *testing.T, name string, files map[string]string) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), name)
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

// TestStore creates a file snapshot store in a temp dir.
func TestStore(t *testing.T) *snapshot.File {
	t.Helper()
	store, err := snapshot.NewFile(filepath.Join(t.TempDir(), "catalog.json"))
	if err != nil {
		t.Fatal(err)
	}
	return store
}

// TestCatalog opens a catalog on a fresh store and closes it on cleanup.
func TestCatalog(t *testing.T, opts ...catalog.Option) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Open(context.Background(), TestStore(t), opts...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = cat.Close() })
	return cat
}
