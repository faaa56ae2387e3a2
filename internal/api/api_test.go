package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/filecat/internal/catalog"
	"github.com/starford/filecat/internal/models"
	"github.com/starford/filecat/internal/testutil"
	"github.com/starford/filecat/internal/walker"
)

// testEnv builds a loaded catalog and the router. An empty authToken
// means disabled mode.
func testEnv(t *testing.T, authToken string) (*catalog.Catalog, http.Handler) {
	t.Helper()
	cat := testutil.TestCatalog(t)
	router := NewRouter(cat, walker.New(walker.Options{}, nil), authToken != "", authToken, nil)
	return cat, router
}

func writeDocs(t *testing.T) string {
	t.Helper()
	return testutil.WriteTree(t, "docs", testutil.GreetingDocs)
}

func do(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func addScan(t *testing.T, router http.Handler, root string) AddScanResponse {
	t.Helper()
	w := do(t, router, http.MethodPost, "/scans", AddScanRequest{RootPath: root})
	if w.Code != http.StatusCreated {
		t.Fatalf("add scan status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp AddScanResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func TestAddScanAndSearch(t *testing.T) {
	_, router := testEnv(t, "")
	resp := addScan(t, router, writeDocs(t))
	if resp.ScanID == 0 || resp.Files != 3 {
		t.Fatalf("response = %+v", resp)
	}

	w := do(t, router, http.MethodGet, "/search?q=hello", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search status = %d", w.Code)
	}
	var sr SearchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &sr)
	if sr.Total != 2 {
		t.Fatalf("results = %+v", sr.Results)
	}
	for _, h := range sr.Results {
		if h.Name == "photo.png" || h.Score < 10 {
			t.Errorf("unexpected hit %s (%d)", h.Name, h.Score)
		}
	}
}

func TestAddScan_ExplicitFiles(t *testing.T) {
	cat, router := testEnv(t, "")
	files := []models.RawFile{{Name: "a.bin", Path: "/virtual/a.bin", Size: 4, ModifiedTime: time.Now()}}
	w := do(t, router, http.MethodPost, "/scans", AddScanRequest{RootPath: "/virtual", Files: files})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if rec, err := cat.GetFileDetails("/virtual/a.bin"); err != nil || rec.ExtractionReason != "unsupported file type" {
		t.Errorf("record = %+v, %v", rec, err)
	}
}

func TestAddScan_BadRequests(t *testing.T) {
	_, router := testEnv(t, "")
	if w := do(t, router, http.MethodPost, "/scans", AddScanRequest{}); w.Code != http.StatusBadRequest {
		t.Errorf("missing root = %d, want 400", w.Code)
	}
	req := httptest.NewRequest(http.MethodPost, "/scans", bytes.NewReader([]byte("{")))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid JSON = %d, want 400", w.Code)
	}
	missing := filepath.Join(t.TempDir(), "nope")
	if w := do(t, router, http.MethodPost, "/scans", AddScanRequest{RootPath: missing}); w.Code != http.StatusNotFound {
		t.Errorf("missing dir = %d, want 404", w.Code)
	}
}

func TestScanListing(t *testing.T) {
	_, router := testEnv(t, "")
	first := addScan(t, router, writeDocs(t))
	second := addScan(t, router, writeDocs(t))

	w := do(t, router, http.MethodGet, "/scans?limit=1", nil)
	var sl ScanListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &sl)
	if len(sl.Scans) != 1 || sl.Scans[0].ID != second.ScanID {
		t.Errorf("scans = %+v, want only %d", sl.Scans, second.ScanID)
	}

	w = do(t, router, http.MethodGet, "/scans/latest/files", nil)
	var fl FileListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &fl)
	if fl.Total != 3 || fl.Files[0].ScanID != second.ScanID {
		t.Errorf("latest files = %+v", fl)
	}

	w = do(t, router, http.MethodGet, fmt.Sprintf("/scans/%d/files", first.ScanID), nil)
	_ = json.Unmarshal(w.Body.Bytes(), &fl)
	if w.Code != http.StatusOK || fl.Total != 3 {
		t.Errorf("scan files = %d, %+v", w.Code, fl)
	}

	if w := do(t, router, http.MethodGet, "/scans/abc/files", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad id = %d, want 400", w.Code)
	}
}

func TestGetFile(t *testing.T) {
	_, router := testEnv(t, "")
	root := writeDocs(t)
	addScan(t, router, root)

	target := "/files?path=" + filepath.Join(root, "notes.txt")
	w := do(t, router, http.MethodGet, target, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var rec models.FileRecord
	_ = json.Unmarshal(w.Body.Bytes(), &rec)
	if rec.Title != "hello world" || !rec.Extractable || rec.WordCount != 2 {
		t.Errorf("record = %+v", rec)
	}

	if w := do(t, router, http.MethodGet, "/files?path=/nowhere", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing = %d, want 404", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/files", nil); w.Code != http.StatusBadRequest {
		t.Errorf("no path = %d, want 400", w.Code)
	}
}

func TestDeleteScan(t *testing.T) {
	_, router := testEnv(t, "")
	resp := addScan(t, router, writeDocs(t))

	w := do(t, router, http.MethodDelete, fmt.Sprintf("/scans/%d", resp.ScanID), nil)
	var rr RemovedResponse
	_ = json.Unmarshal(w.Body.Bytes(), &rr)
	if w.Code != http.StatusOK || rr.Removed != 3 {
		t.Errorf("delete = %d, %+v", w.Code, rr)
	}
	w = do(t, router, http.MethodDelete, fmt.Sprintf("/scans/%d", resp.ScanID), nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", w.Code)
	}
}

func TestCleanupAndClear(t *testing.T) {
	_, router := testEnv(t, "")
	for i := 0; i < 3; i++ {
		addScan(t, router, writeDocs(t))
	}

	if w := do(t, router, http.MethodPost, "/scans/cleanup", map[string]int{"keep": -1}); w.Code != http.StatusBadRequest {
		t.Errorf("negative keep = %d, want 400", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/scans/cleanup", map[string]any{}); w.Code != http.StatusBadRequest {
		t.Errorf("missing keep = %d, want 400", w.Code)
	}

	w := do(t, router, http.MethodPost, "/scans/cleanup", map[string]int{"keep": 1})
	var rr RemovedResponse
	_ = json.Unmarshal(w.Body.Bytes(), &rr)
	if w.Code != http.StatusOK || rr.Removed != 6 {
		t.Errorf("cleanup = %d, %+v", w.Code, rr)
	}

	w = do(t, router, http.MethodDelete, "/catalog", nil)
	var cr models.ClearResult
	_ = json.Unmarshal(w.Body.Bytes(), &cr)
	if w.Code != http.StatusOK || cr.RemovedFiles != 3 || cr.RemovedScans != 1 {
		t.Errorf("clear = %d, %+v", w.Code, cr)
	}

	w = do(t, router, http.MethodGet, "/stats", nil)
	var st models.Stats
	_ = json.Unmarshal(w.Body.Bytes(), &st)
	if w.Code != http.StatusOK || st.TotalRecords != 0 || st.TotalScans != 0 {
		t.Errorf("stats = %d, %+v", w.Code, st)
	}
}

func TestSearchMissingQuery(t *testing.T) {
	_, router := testEnv(t, "")
	if w := do(t, router, http.MethodGet, "/search", nil); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSearchShortQueryEmpty(t *testing.T) {
	_, router := testEnv(t, "")
	addScan(t, router, writeDocs(t))
	w := do(t, router, http.MethodGet, "/search?q=h", nil)
	var sr SearchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &sr)
	if w.Code != http.StatusOK || sr.Total != 0 || sr.Results == nil {
		t.Errorf("short query = %d, %+v", w.Code, sr)
	}
}

func TestNotReadyCatalog(t *testing.T) {
	router := NewRouter(catalog.New(testutil.TestStore(t)), nil, false, "", nil)
	if w := do(t, router, http.MethodGet, "/stats", nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret123")
	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret123")
	if w := do(t, router, http.MethodGet, "/stats", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret123")
	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestSSEEvents_AuthProtected(t *testing.T) {
	sse := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	router := NewRouter(catalog.New(testutil.TestStore(t)), nil, true, "tok", sse)

	if w := do(t, router, http.MethodGet, "/events", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("no auth = %d, want 401", w.Code)
	}
	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid token = %d, want 200", w.Code)
	}
}

func TestSSEEvents_QueryToken(t *testing.T) {
	sse := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	router := NewRouter(catalog.New(testutil.TestStore(t)), nil, true, "tok", sse)

	if w := do(t, router, http.MethodGet, "/events?access_token=tok", nil); w.Code != http.StatusOK {
		t.Errorf("query token on events = %d, want 200", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/events?access_token=bad", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("bad query token = %d, want 401", w.Code)
	}
	w := do(t, router, http.MethodGet, "/stats?access_token=tok", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("query token outside events = %d, want 401", w.Code)
	}
	if w.Header().Get("WWW-Authenticate") == "" {
		t.Error("missing WWW-Authenticate header")
	}
}
