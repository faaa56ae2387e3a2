// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the file catalog to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/filecat/internal/apperr"
	"github.com/starford/filecat/internal/models"
	"github.com/starford/filecat/internal/search"
)

const (
	defaultSearchLimit = 20
	defaultScanLimit   = 10
	querySyntaxURI     = "filecat://query-syntax"
)

// Catalog is the subset of the catalog the tools use.
type Catalog interface {
	Search(query string, limit int) ([]search.Hit, error)
	GetFileDetails(path string) (*models.FileRecord, error)
	GetRecentScans(limit int) ([]models.Scan, error)
	GetStats() (*models.Stats, error)
	AddScan(ctx context.Context, rootPath string, files []models.RawFile) (int64, error)
}

// Walker lists the directory handed to scan_directory.
type Walker interface {
	Walk(ctx context.Context, root string) ([]models.RawFile, error)
}

// Server wraps the MCP server with catalog tools.
type Server struct {
	mcp    *server.MCPServer
	cat    Catalog
	walker Walker
}

// searchResult trims a hit for LLM consumption; full content is available
// through get_file_details.
type searchResult struct {
	Path        string `json:"path"`
	Name        string `json:"name"`
	Title       string `json:"title"`
	IsDirectory bool   `json:"is_directory"`
	Size        int64  `json:"size"`
	Score       int    `json:"score"`
}

// New creates a new MCP server with all catalog tools registered.
func New(cat Catalog, walker Walker) *Server {
	s := &Server{cat: cat, walker: walker}

	s.mcp = server.NewMCPServer(
		"filecat",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_files",
		mcp.WithDescription("Search catalogued files by name, title, content or path. "+
			"Prefix the query with a dot (e.g. .pdf) to filter by extension. "+
			"See the "+querySyntaxURI+" resource for scoring."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query, at least 2 characters")),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default 20)")),
	), s.searchFiles)

	s.mcp.AddTool(mcp.NewTool("get_file_details",
		mcp.WithDescription("Return the full catalog record of one file, including extracted content."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Absolute path of the file")),
	), s.getFileDetails)

	s.mcp.AddTool(mcp.NewTool("list_recent_scans",
		mcp.WithDescription("List the most recent scans, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum scans (default 10)")),
	), s.listRecentScans)

	s.mcp.AddTool(mcp.NewTool("get_catalog_stats",
		mcp.WithDescription("Report catalog totals, extraction coverage and index sizes."),
	), s.getCatalogStats)

	s.mcp.AddTool(mcp.NewTool("scan_directory",
		mcp.WithDescription("Walk a directory on the server host and ingest it as a new scan. "+
			"Earlier scans of the same directory or its subdirectories are replaced."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Directory to scan")),
	), s.scanDirectory)

	s.mcp.AddResource(
		mcp.NewResource(querySyntaxURI, "Query Syntax",
			mcp.WithResourceDescription("How search_files matches and ranks files."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readQuerySyntax,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func toolError(err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotReady) {
		return mcp.NewToolResultError("catalog is not ready, retry shortly")
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchFiles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	hits, err := s.cat.Search(query, req.GetInt("limit", defaultSearchLimit))
	if err != nil {
		return toolError(err), nil
	}
	if len(hits) == 0 {
		return mcp.NewToolResultText("no files found"), nil
	}
	out := make([]searchResult, len(hits))
	for i, h := range hits {
		out[i] = searchResult{
			Path:        h.Path,
			Name:        h.Name,
			Title:       h.Title,
			IsDirectory: h.IsDirectory,
			Size:        h.Size,
			Score:       h.Score,
		}
	}
	return jsonResult(out)
}

func (s *Server) getFileDetails(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.cat.GetFileDetails(path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return toolError(err), nil
	}
	return jsonResult(rec)
}

func (s *Server) listRecentScans(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scans, err := s.cat.GetRecentScans(req.GetInt("limit", defaultScanLimit))
	if err != nil {
		return toolError(err), nil
	}
	if len(scans) == 0 {
		return mcp.NewToolResultText("no scans recorded"), nil
	}
	var b strings.Builder
	for _, sc := range scans {
		fmt.Fprintf(&b, "%d\t%s\t%s\t%d files, %d folders, %d extractable\n",
			sc.ID, sc.ScanDate.Format("2006-01-02 15:04:05"), sc.RootPath,
			sc.TotalFiles, sc.TotalFolders, sc.ExtractableFiles)
	}
	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}

func (s *Server) getCatalogStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.cat.GetStats()
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(st)
}

func (s *Server) scanDirectory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if s.walker == nil {
		return mcp.NewToolResultError("scanning is disabled"), nil
	}
	files, err := s.walker.Walk(ctx, path)
	if err != nil {
		return toolError(err), nil
	}
	id, err := s.cat.AddScan(ctx, path, files)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("scan %d: %d entries from %s", id, len(files), path)), nil
}

func (s *Server) readQuerySyntax(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      querySyntaxURI,
			MIMEType: "text/markdown",
			Text:     QuerySyntax,
		},
	}, nil
}
