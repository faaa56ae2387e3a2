// Package index builds the in-memory inverted indexes over a catalog's
// record sequence. Postings are record ordinals; an Index is immutable once
// built and is replaced wholesale whenever the record sequence changes.
package index

import (
	"strings"

	"github.com/starford/filecat/internal/models"
)

// Field selects one of the token indexes.
type Field int

const (
	FieldName Field = iota
	FieldTitle
	FieldContent
)

// Index holds the name, title, content, extension, path-segment and scan
// mappings for one generation of the record sequence.
type Index struct {
	tokens     [3]map[string][]int
	extensions map[string][]int
	segments   map[string]map[int]struct{}
	scans      map[int64][]int
}

// Build derives all indexes from records. records[i] is indexed under ordinal i.
func Build(records []models.FileRecord) *Index {
	idx := &Index{
		extensions: make(map[string][]int),
		segments:   make(map[string]map[int]struct{}),
		scans:      make(map[int64][]int),
	}
	for f := range idx.tokens {
		idx.tokens[f] = make(map[string][]int)
	}

	for i := range records {
		r := &records[i]
		idx.addText(FieldName, r.Name, i)
		if r.Title != r.Name {
			idx.addText(FieldTitle, r.Title, i)
		}
		if r.Content != "" {
			idx.addText(FieldContent, r.Content, i)
		}
		idx.extensions[r.Extension] = append(idx.extensions[r.Extension], i)
		for _, seg := range PathSegments(r.Path) {
			set, ok := idx.segments[seg]
			if !ok {
				set = make(map[int]struct{})
				idx.segments[seg] = set
			}
			set[i] = struct{}{}
		}
		idx.scans[r.ScanID] = append(idx.scans[r.ScanID], i)
	}
	return idx
}

func (idx *Index) addText(f Field, text string, ord int) {
	m := idx.tokens[f]
	for _, tok := range Tokenize(text) {
		for _, key := range Keys(tok) {
			// Ordinals arrive in ascending order, so a repeat is always the tail.
			post := m[key]
			if n := len(post); n > 0 && post[n-1] == ord {
				continue
			}
			m[key] = append(post, ord)
		}
	}
}

// Match adds to into the ordinals whose field has a key equal to or
// containing q. q must already be lower-cased.
func (idx *Index) Match(f Field, q string, into map[int]struct{}) {
	for key, post := range idx.tokens[f] {
		if !strings.Contains(key, q) {
			continue
		}
		for _, o := range post {
			into[o] = struct{}{}
		}
	}
}

// MatchPath adds the ordinals of every path segment containing q.
func (idx *Index) MatchPath(q string, into map[int]struct{}) {
	for seg, set := range idx.segments {
		if !strings.Contains(seg, q) {
			continue
		}
		for o := range set {
			into[o] = struct{}{}
		}
	}
}

// ByExtension returns the ordinals of records with extension ext.
func (idx *Index) ByExtension(ext string) []int {
	return idx.extensions[ext]
}

// ByScan returns the ordinals of records owned by scan id, in record order.
func (idx *Index) ByScan(id int64) []int {
	return idx.scans[id]
}

// Stats reports the number of keys in each mapping.
func (idx *Index) Stats() models.IndexStats {
	return models.IndexStats{
		NameKeys:     len(idx.tokens[FieldName]),
		TitleKeys:    len(idx.tokens[FieldTitle]),
		ContentKeys:  len(idx.tokens[FieldContent]),
		Extensions:   len(idx.extensions),
		PathSegments: len(idx.segments),
		Scans:        len(idx.scans),
	}
}
