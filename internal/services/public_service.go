// Package services – PublicService
//
// PublicService builds the public projection of the review collection: only
// records with consent and without privateSubmit are ever returned.
package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"

	"github.com/tbourn/go-review-wall/internal/domain"
	"github.com/tbourn/go-review-wall/internal/repo"
	"github.com/tbourn/go-review-wall/internal/search"
)

// SortRecent orders the public listing by descending timestamp.
const SortRecent = "recent"

// ListOptions narrows the public listing. Zero values keep store order,
// apply no tag or text filter, and return everything.
type ListOptions struct {
	Sort string
	Tag  string
	// Query keeps only reviews matching at least one of its terms. Results
	// are ordered by relevance unless Sort asks for recency.
	Query string
	Limit int
}

// PublicService serves the public review wall.
type PublicService struct {
	Store *repo.ReviewStore
}

// ListPublic returns public reviews filtered and ordered per opts.
func (s *PublicService) ListPublic(ctx context.Context, opts ListOptions) ([]domain.Review, error) {
	tr := otel.Tracer("services/PublicService")
	ctx, span := tr.Start(ctx, "ListPublic",
		trace.WithAttributes(
			attribute.String("sort", opts.Sort),
			attribute.String("tag", opts.Tag),
			attribute.Bool("query", opts.Query != ""),
			attribute.Int("limit", opts.Limit),
		),
	)
	defer span.End()

	all, err := s.Store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	tag := strings.TrimSpace(opts.Tag)
	out := make([]domain.Review, 0, len(all))
	for i := range all {
		r := &all[i]
		if !r.IsPublic() {
			continue
		}
		if tag != "" && !r.HasTag(tag) {
			continue
		}
		out = append(out, *r)
	}

	if q := strings.TrimSpace(opts.Query); q != "" {
		out = rankByQuery(out, q)
	}
	if opts.Sort == SortRecent {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Timestamp.After(out[j].Timestamp)
		})
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	span.SetAttributes(attribute.Int("result.count", len(out)))
	return out, nil
}

// Tags returns the sorted set of tags used by public reviews. Tags that only
// differ in case are reported once, with the first spelling seen.
func (s *PublicService) Tags(ctx context.Context) ([]string, error) {
	tr := otel.Tracer("services/PublicService")
	ctx, span := tr.Start(ctx, "Tags")
	defer span.End()

	all, err := s.Store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	fold := cases.Fold()
	seen := map[string]struct{}{}
	tags := []string{}
	for i := range all {
		if !all[i].IsPublic() {
			continue
		}
		for _, t := range all[i].Tags {
			k := fold.String(t)
			if _, ok := seen[k]; ok || strings.TrimSpace(t) == "" {
				continue
			}
			seen[k] = struct{}{}
			tags = append(tags, t)
		}
	}
	sort.Slice(tags, func(i, j int) bool { return fold.String(tags[i]) < fold.String(tags[j]) })
	return tags, nil
}

// Version returns an opaque token that changes whenever the store does.
// Handlers use it as an ETag component.
func (s *PublicService) Version(ctx context.Context) (string, error) {
	st, err := s.Store.Stats()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d:%d:%d", st.Generation, st.Size, st.ModTime.UnixNano()), nil
}

// rankByQuery keeps the reviews matching q, best match first.
func rankByQuery(reviews []domain.Review, q string) []domain.Review {
	docs := make([]search.Doc, len(reviews))
	byID := make(map[string]int, len(reviews))
	for i := range reviews {
		r := &reviews[i]
		docs[i] = search.Doc{ID: r.ID, Text: searchText(r)}
		byID[r.ID] = i
	}
	hits := search.New(docs).TopK(q, 0)
	out := make([]domain.Review, 0, len(hits))
	for _, h := range hits {
		out = append(out, reviews[byID[h.ID]])
	}
	return out
}

func searchText(r *domain.Review) string {
	parts := []string{r.Name, r.Review}
	for _, p := range []*string{r.JobTitle, r.Organization, r.Location, r.Summary} {
		if p != nil {
			parts = append(parts, *p)
		}
	}
	parts = append(parts, r.Tags...)
	return strings.Join(parts, " ")
}
