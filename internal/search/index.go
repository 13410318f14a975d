// Package search ranks review texts against a free-text query. An Index is
// built per request from the public projection and is read-only afterwards,
// so it is safe for concurrent use.
//
// A document scores by the share of query terms it contains; ties fall back
// to Jaccard similarity, then to shorter text, then to insertion order.
// Terms are Unicode words, case-folded with golang.org/x/text/cases.
package search

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Doc is one searchable record.
type Doc struct {
	ID   string
	Text string
}

// Result is a ranked document id with its score in (0, 1].
type Result struct {
	ID    string
	Score float64
}

// Index ranks documents for a query.
type Index interface {
	TopK(query string, k int) []Result
}

// Option customizes index construction.
type Option func(*config)

type config struct {
	stopwords   map[string]struct{}
	minCoverage float64
}

func defaultConfig() config {
	return config{stopwords: foldSet(defaultStopwords), minCoverage: 0}
}

// WithStopwords replaces the default English stop-word list. An empty list
// disables stop-word removal.
func WithStopwords(words []string) Option {
	return func(c *config) {
		c.stopwords = foldSet(words)
	}
}

// WithMinCoverage drops documents matching less than the given share of the
// query terms. 1 requires every term.
func WithMinCoverage(f float64) Option {
	return func(c *config) {
		if f >= 0 && f <= 1 {
			c.minCoverage = f
		}
	}
}

var defaultStopwords = []string{
	"a", "an", "and", "are", "as", "at", "be", "but", "by", "for", "from",
	"i", "in", "is", "it", "its", "me", "my", "of", "on", "or", "our", "so",
	"that", "the", "their", "they", "this", "to", "was", "we", "were", "with",
	"you", "your",
}

type doc struct {
	id     string
	tokens map[string]struct{}
	runes  int
}

type index struct {
	cfg  config
	docs []doc
}

// New builds an Index over docs. Documents without any searchable term are
// skipped.
func New(docs []Doc, opts ...Option) Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	out := make([]doc, 0, len(docs))
	for _, d := range docs {
		toks := tokenize(d.Text, cfg.stopwords)
		if len(toks) == 0 {
			continue
		}
		out = append(out, doc{id: d.ID, tokens: toks, runes: utf8.RuneCountInString(d.Text)})
	}
	return &index{cfg: cfg, docs: out}
}

// TopK returns up to k matching documents, best first. k <= 0 returns all
// matches.
func (i *index) TopK(q string, k int) []Result {
	if len(i.docs) == 0 || strings.TrimSpace(q) == "" {
		return nil
	}
	qTokens := tokenize(q, i.cfg.stopwords)
	if len(qTokens) == 0 {
		return nil
	}
	qLen := float64(len(qTokens))

	type scored struct {
		id       string
		coverage float64
		jaccard  float64
		runes    int
		pos      int
	}
	buf := make([]scored, 0, len(i.docs))
	for pos, d := range i.docs {
		over := overlap(qTokens, d.tokens)
		if over == 0 {
			continue
		}
		coverage := float64(over) / qLen
		if coverage < i.cfg.minCoverage {
			continue
		}
		union := float64(len(qTokens) + len(d.tokens) - over)
		buf = append(buf, scored{
			id:       d.id,
			coverage: coverage,
			jaccard:  float64(over) / union,
			runes:    d.runes,
			pos:      pos,
		})
	}
	if len(buf) == 0 {
		return nil
	}

	sort.Slice(buf, func(a, b int) bool {
		if buf[a].coverage != buf[b].coverage {
			return buf[a].coverage > buf[b].coverage
		}
		if buf[a].jaccard != buf[b].jaccard {
			return buf[a].jaccard > buf[b].jaccard
		}
		if buf[a].runes != buf[b].runes {
			return buf[a].runes < buf[b].runes
		}
		return buf[a].pos < buf[b].pos
	})

	if k <= 0 || k > len(buf) {
		k = len(buf)
	}
	out := make([]Result, k)
	for n := 0; n < k; n++ {
		out[n] = Result{ID: buf[n].id, Score: buf[n].coverage}
	}
	return out
}

// ----------------------------------------------------------------------------
// Helpers

var wordRE = regexp.MustCompile(`[\p{L}\p{N}]+`)

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	words := wordRE.FindAllString(cases.Fold().String(s), -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if _, skip := stop[w]; skip {
			continue
		}
		out[w] = struct{}{}
	}
	return out
}

func foldSet(words []string) map[string]struct{} {
	fold := cases.Fold()
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = fold.String(strings.TrimSpace(w))
		if w != "" {
			m[w] = struct{}{}
		}
	}
	return m
}

func overlap(a, b map[string]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}
