package index

import (
	"reflect"
	"sort"
	"testing"

	"github.com/starford/filecat/internal/models"
)

func testRecords() []models.FileRecord {
	return []models.FileRecord{
		{Name: "readme.md", Path: "/data/project/readme.md", Extension: ".md", ScanID: 1, Title: "Hello", Content: "# Hello"},
		{Name: "notes.txt", Path: "/data/project/notes.txt", Extension: ".txt", ScanID: 1, Title: "hello world", Content: "hello world"},
		{Name: "photo.png", Path: "/data/pics/photo.png", Extension: ".png", ScanID: 2, Title: "photo.png"},
	}
}

func matched(idx *Index, f Field, q string) []int {
	into := make(map[int]struct{})
	idx.Match(f, q, into)
	return sortedKeys(into)
}

func sortedKeys(m map[int]struct{}) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func TestTokenize(t *testing.T) {
	got := Tokenize("Hello, wörld! a b2 x_y Привет 42")
	want := []string{"hello", "wörld", "b2", "привет", "42"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize = %v, want %v", got, want)
	}
}

func TestKeys(t *testing.T) {
	if got := Keys("ab"); !reflect.DeepEqual(got, []string{"ab"}) {
		t.Errorf("Keys(ab) = %v", got)
	}
	if got := Keys("abc"); !reflect.DeepEqual(got, []string{"abc"}) {
		t.Errorf("Keys(abc) = %v", got)
	}
	want := []string{"hello", "hel", "ell", "llo"}
	if got := Keys("hello"); !reflect.DeepEqual(got, want) {
		t.Errorf("Keys(hello) = %v, want %v", got, want)
	}
}

func TestPathSegments(t *testing.T) {
	got := PathSegments("/Data/ab/Project//notes.txt")
	want := []string{"data", "project", "notes.txt"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PathSegments = %v, want %v", got, want)
	}
}

func TestBuild_NameAndSubstring(t *testing.T) {
	idx := Build(testRecords())

	if got := matched(idx, FieldName, "notes"); !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("name notes = %v", got)
	}
	// "ead" is a trigram of "readme".
	if got := matched(idx, FieldName, "ead"); !reflect.DeepEqual(got, []int{0}) {
		t.Errorf("name ead = %v", got)
	}
	// "eadm" is contained in the full token "readme".
	if got := matched(idx, FieldName, "eadm"); !reflect.DeepEqual(got, []int{0}) {
		t.Errorf("name eadm = %v", got)
	}
}

func TestBuild_TitleSkippedWhenEqualToName(t *testing.T) {
	idx := Build(testRecords())
	if got := matched(idx, FieldTitle, "photo"); len(got) != 0 {
		t.Errorf("title index should skip title==name, got %v", got)
	}
	if got := matched(idx, FieldTitle, "hello"); !reflect.DeepEqual(got, []int{0, 1}) {
		t.Errorf("title hello = %v", got)
	}
}

func TestBuild_ContentAndPostingsDeduplicated(t *testing.T) {
	recs := []models.FileRecord{{Name: "a.txt", Path: "/a.txt", Content: "hello hello hello"}}
	idx := Build(recs)
	if post := idx.tokens[FieldContent]["hello"]; !reflect.DeepEqual(post, []int{0}) {
		t.Errorf("postings = %v, want [0]", post)
	}
}

func TestBuild_ExtensionPathScan(t *testing.T) {
	idx := Build(testRecords())

	if got := idx.ByExtension(".txt"); !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("ext .txt = %v", got)
	}
	if got := idx.ByScan(1); !reflect.DeepEqual(got, []int{0, 1}) {
		t.Errorf("scan 1 = %v", got)
	}

	into := make(map[int]struct{})
	idx.MatchPath("proj", into)
	if got := sortedKeys(into); !reflect.DeepEqual(got, []int{0, 1}) {
		t.Errorf("path proj = %v", got)
	}
}

func TestBuild_Stats(t *testing.T) {
	st := Build(testRecords()).Stats()
	if st.Extensions != 3 || st.Scans != 2 {
		t.Errorf("stats = %+v", st)
	}
	if st.NameKeys == 0 || st.ContentKeys == 0 || st.PathSegments == 0 {
		t.Errorf("expected non-empty indexes: %+v", st)
	}
}

func TestBuild_Empty(t *testing.T) {
	idx := Build(nil)
	if got := matched(idx, FieldName, "anything"); len(got) != 0 {
		t.Errorf("empty index matched %v", got)
	}
	if idx.Stats() != (models.IndexStats{}) {
		t.Errorf("stats = %+v", idx.Stats())
	}
}
