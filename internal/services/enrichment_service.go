// Package services – EnrichmentService
//
// EnrichmentService mutates existing reviews in place: likes and AI
// summaries. Every change goes through ReviewStore.UpdateFields, so
// concurrent mutations of the same record are serialized and none is lost.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-review-wall/internal/ai"
	"github.com/tbourn/go-review-wall/internal/domain"
	"github.com/tbourn/go-review-wall/internal/repo"
)

// AIClient is the subset of the AI client used by the services.
type AIClient interface {
	Configured() bool
	Complete(ctx context.Context, prompt string) (string, error)
	Transcribe(ctx context.Context, path string) (string, error)
}

// EnrichmentService applies likes and summaries to stored reviews.
type EnrichmentService struct {
	Store *repo.ReviewStore
	AI    AIClient
	Log   zerolog.Logger
}

// ApplyLike increments the like counter of id by one and returns the new
// count. Each call is a separate like; there is no de-duplication.
func (s *EnrichmentService) ApplyLike(ctx context.Context, id string) (int, error) {
	tr := otel.Tracer("services/EnrichmentService")
	ctx, span := tr.Start(ctx, "ApplyLike", trace.WithAttributes(attribute.String("review.id", id)))
	defer span.End()

	r, err := s.Store.UpdateFields(ctx, id, func(r *domain.Review) error {
		if r.Likes < 0 {
			r.Likes = 0
		}
		r.Likes++
		return nil
	})
	if err != nil {
		return 0, s.mapErr(span, err)
	}
	return r.Likes, nil
}

// ApplySummary overwrites summary and tags of id. The last write wins.
func (s *EnrichmentService) ApplySummary(ctx context.Context, id, summary string, tags []string) (*domain.Review, error) {
	tr := otel.Tracer("services/EnrichmentService")
	ctx, span := tr.Start(ctx, "ApplySummary", trace.WithAttributes(attribute.String("review.id", id)))
	defer span.End()

	r, err := s.Store.UpdateFields(ctx, id, func(r *domain.Review) error {
		r.Summary = &summary
		r.Tags = append([]string{}, tags...)
		return nil
	})
	if err != nil {
		return nil, s.mapErr(span, err)
	}
	return r, nil
}

// Summarize asks the AI provider for a summary of text. When reviewID is not
// empty the result is stored on that review, which must exist.
func (s *EnrichmentService) Summarize(ctx context.Context, text, reviewID string) (*ai.Summary, error) {
	tr := otel.Tracer("services/EnrichmentService")
	ctx, span := tr.Start(ctx, "Summarize", trace.WithAttributes(attribute.String("review.id", reviewID)))
	defer span.End()

	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if reviewID != "" {
		if _, err := s.Store.FindByID(ctx, reviewID); err != nil {
			return nil, s.mapErr(span, err)
		}
	}

	out, err := complete(ctx, s.AI, ai.SummaryPrompt(text))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion")
		return nil, err
	}
	sum := ai.ParseSummary(out)

	if reviewID != "" {
		if _, err := s.ApplySummary(ctx, reviewID, sum.Summary, sum.Tags); err != nil {
			return nil, err
		}
	}
	return &sum, nil
}

func (s *EnrichmentService) mapErr(span trace.Span, err error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return ErrReviewNotFound
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// complete calls the AI client and maps its errors to service errors.
func complete(ctx context.Context, c AIClient, prompt string) (string, error) {
	if c == nil || !c.Configured() {
		return "", ErrAIUnavailable
	}
	out, err := c.Complete(ctx, prompt)
	if err != nil {
		if errors.Is(err, ai.ErrNotConfigured) {
			return "", ErrAIUnavailable
		}
		return "", fmt.Errorf("%w: %v", ErrAIFailed, err)
	}
	return out, nil
}
