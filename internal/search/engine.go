// Package search evaluates queries against the inverted indexes and ranks
// the matching records. It never mutates the index or the record sequence.
package search

import (
	"cmp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/starford/filecat/internal/index"
	"github.com/starford/filecat/internal/models"
)

// Scoring weights.
const (
	ScoreNameExact    = 100
	ScoreNameContains = 50
	ScoreTitle        = 30
	ScoreContent      = 10
)

// DefaultLimit caps a result list when the caller passes no limit.
const DefaultLimit = 1000

const minQueryLen = 2

var (
	searchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "filecat_search_total",
		Help: "Searches evaluated, by query kind.",
	}, []string{"kind"})
	searchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "filecat_search_duration_seconds",
		Help:    "Time spent evaluating a search.",
		Buckets: prometheus.DefBuckets,
	})
)

// Hit is one ranked result.
type Hit struct {
	models.FileRecord
	Score int `json:"score"`
}

// Engine ranks matches. It is safe for concurrent use as long as the index
// and records it is handed are not mutated during the call.
type Engine struct {
	locale       language.Tag
	defaultLimit int
}

// New creates an engine that orders equal-score names using locale.
func New(locale language.Tag, defaultLimit int) *Engine {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	return &Engine{locale: locale, defaultLimit: defaultLimit}
}

// Search returns at most limit records matching query, best first.
// A query starting with "." is an extension filter.
func (e *Engine) Search(idx *index.Index, records []models.FileRecord, query string, limit int) []Hit {
	q := strings.ToLower(strings.TrimSpace(query))
	if utf8.RuneCountInString(q) < minQueryLen || idx == nil {
		return nil
	}
	if limit <= 0 {
		limit = e.defaultLimit
	}

	start := time.Now()
	defer func() { searchDuration.Observe(time.Since(start).Seconds()) }()

	var hits []Hit
	if strings.HasPrefix(q, ".") {
		searchTotal.WithLabelValues("extension").Inc()
		for _, o := range idx.ByExtension(q) {
			hits = append(hits, Hit{FileRecord: records[o]})
		}
	} else {
		searchTotal.WithLabelValues("text").Inc()
		candidates := make(map[int]struct{})
		idx.Match(index.FieldName, q, candidates)
		idx.Match(index.FieldTitle, q, candidates)
		idx.Match(index.FieldContent, q, candidates)
		idx.MatchPath(q, candidates)

		hits = make([]Hit, 0, len(candidates))
		for o := range candidates {
			hits = append(hits, Hit{FileRecord: records[o], Score: Score(&records[o], q)})
		}
	}

	e.rank(hits)
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// Score sums the independent match signals of r for the lower-cased query q.
func Score(r *models.FileRecord, q string) int {
	score := 0
	name := strings.ToLower(r.Name)
	switch {
	case name == q:
		score += ScoreNameExact
	case strings.Contains(name, q):
		score += ScoreNameContains
	}
	if strings.Contains(strings.ToLower(r.Title), q) {
		score += ScoreTitle
	}
	if r.Content != "" && strings.Contains(strings.ToLower(r.Content), q) {
		score += ScoreContent
	}
	return score
}

// rank orders by score, then directories before files, then name under the
// engine's collation, then path so the order is total.
func (e *Engine) rank(hits []Hit) {
	coll := collate.New(e.locale, collate.IgnoreCase)
	slices.SortFunc(hits, func(a, b Hit) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if a.IsDirectory != b.IsDirectory {
			if a.IsDirectory {
				return -1
			}
			return 1
		}
		if c := coll.CompareString(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Path, b.Path)
	})
}
