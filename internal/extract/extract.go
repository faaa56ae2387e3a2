// Package extract classifies files by extension and pulls lightweight
// searchable text and a display title out of them.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/starford/filecat/internal/models"
)

// Default limits.
const (
	DefaultMaxFileSize      = 5 << 20
	DefaultMaxContentLength = 100 << 10
)

// Failure reasons recorded on non-extractable records.
const (
	ReasonTooLarge    = "file too large"
	ReasonDocument    = "document parsing not implemented"
	ReasonUnsupported = "unsupported file type"
	ReasonDirectory   = "directory"
	ReasonBinary      = "binary or encoding issue"
	ReasonFailed      = "extraction failed"
)

const truncatedSuffix = "\n... [truncated]"

var textExtensions = toSet(
	// plain text and logs
	".txt", ".text", ".log", ".csv", ".tsv",
	// markup
	".md", ".markdown", ".rst", ".adoc", ".html", ".htm", ".xml", ".svg", ".tex",
	// config
	".json", ".yaml", ".yml", ".toml", ".ini", ".cfg", ".conf", ".env", ".properties",
	// source code
	".go", ".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx", ".py", ".rb", ".php",
	".java", ".kt", ".kts", ".scala", ".c", ".h", ".cc", ".cpp", ".hpp", ".cs",
	".rs", ".swift", ".m", ".lua", ".pl", ".r", ".dart", ".vue", ".svelte",
	".css", ".scss", ".sass", ".less", ".sql", ".sh", ".bash", ".zsh", ".fish",
	".ps1", ".bat", ".cmd", ".gradle", ".makefile", ".dockerfile", ".proto",
)

var documentExtensions = toSet(
	".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx",
	".odt", ".ods", ".odp", ".rtf", ".pages", ".numbers", ".key", ".epub",
)

func toSet(items ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, it := range items {
		out[it] = struct{}{}
	}
	return out
}

// Result is the outcome of extracting one file. Extraction never fails:
// problems are reported through Extractable=false and Reason.
type Result struct {
	Title         string
	Content       string
	Extractable   bool
	ContentLength int
	WordCount     int
	Reason        string
}

// Options tunes the size ceilings.
type Options struct {
	MaxFileSize      int64
	MaxContentLength int
}

// Extractor reads files from the local filesystem.
type Extractor struct {
	maxFileSize      int64
	maxContentLength int
	readFile         func(string) ([]byte, error)
}

// New returns an Extractor. Zero option values fall back to the defaults.
func New(opts Options) *Extractor {
	e := &Extractor{
		maxFileSize:      opts.MaxFileSize,
		maxContentLength: opts.MaxContentLength,
		readFile:         os.ReadFile,
	}
	if e.maxFileSize <= 0 {
		e.maxFileSize = DefaultMaxFileSize
	}
	if e.maxContentLength <= 0 {
		e.maxContentLength = DefaultMaxContentLength
	}
	return e
}

// Extension returns the lower-cased extension of name including the dot,
// or "" when there is none.
func Extension(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// IsText reports whether ext belongs to the text allow-list.
func IsText(ext string) bool {
	_, ok := textExtensions[ext]
	return ok
}

// IsDocument reports whether ext is a document format reduced to metadata.
func IsDocument(ext string) bool {
	_, ok := documentExtensions[ext]
	return ok
}

// Extract classifies f and, for text files, reads and summarises its content.
func (e *Extractor) Extract(ctx context.Context, f models.RawFile) Result {
	if err := ctx.Err(); err != nil {
		return failed(f.Name, err.Error())
	}
	if f.IsDirectory {
		return failed(f.Name, ReasonDirectory)
	}
	if f.Size > e.maxFileSize {
		return failed(f.Name, ReasonTooLarge)
	}

	ext := Extension(f.Name)
	switch {
	case IsText(ext):
		return e.extractText(f, ext)
	case IsDocument(ext):
		return Result{
			Title:   strings.TrimSuffix(f.Name, filepath.Ext(f.Name)),
			Content: documentSummary(f),
			Reason:  ReasonDocument,
		}
	default:
		return failed(f.Name, ReasonUnsupported)
	}
}

func (e *Extractor) extractText(f models.RawFile, ext string) Result {
	data, err := e.readFile(f.Path)
	if err != nil {
		if isDirErr(err) {
			return failed(f.Name, ReasonDirectory)
		}
		return failed(f.Name, ReasonBinary)
	}
	if !utf8.Valid(data) || bytes.IndexByte(data, 0) >= 0 {
		return failed(f.Name, ReasonBinary)
	}

	text := string(data)
	length := utf8.RuneCountInString(text)
	content := text
	if length > e.maxContentLength {
		content = truncateRunes(text, e.maxContentLength) + truncatedSuffix
	}

	return Result{
		Title:         DeriveTitle(text, ext, f.Name),
		Content:       content,
		Extractable:   true,
		ContentLength: length,
		WordCount:     len(strings.Fields(text)),
	}
}

func failed(name, reason string) Result {
	return Result{Title: name, Reason: reason}
}

func documentSummary(f models.RawFile) string {
	return fmt.Sprintf("Document: %s (%d bytes, modified %s)",
		f.Name, f.Size, f.ModifiedTime.UTC().Format(time.RFC3339))
}

func isDirErr(err error) bool {
	if errors.Is(err, syscall.EISDIR) {
		return true
	}
	var pe *os.PathError
	if errors.As(err, &pe) {
		if info, statErr := os.Stat(pe.Path); statErr == nil && info.IsDir() {
			return true
		}
	}
	return false
}

func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
