// Package services – ReviewService
//
// ReviewService owns the submission pipeline: normalize the form, validate,
// allocate an id, relocate an attached document, append to the aggregate
// store, and write the per-record audit file. Retries carrying the same
// Idempotency-Key are answered from an in-memory replay cache.
//
// Observability: Submit is OpenTelemetry-instrumented and logs partial
// failures (relocated file without record, missing audit file).
package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/tbourn/go-review-wall/internal/media"
	"github.com/tbourn/go-review-wall/internal/repo"
)

// Upload is an incoming file part.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// SubmitInput carries one multipart submission.
type SubmitInput struct {
	Form           map[string][]string
	Document       *Upload
	IdempotencyKey string
}

// SubmitResult is what the client receives for an accepted submission.
type SubmitResult struct {
	ID       string
	Filename string
	Replayed bool
}

// ReviewService accepts new submissions.
type ReviewService struct {
	Store      *repo.ReviewStore
	IDs        *IDAllocator
	Media      *media.Relocator
	Idem       *repo.IdempotencyCache
	RecordsDir string
	Log        zerolog.Logger

	// Now is the clock used for timestamps; nil means time.Now.
	Now func() time.Time

	// inflight collapses concurrent submissions sharing an Idempotency-Key.
	inflight singleflight.Group
}

// submitOutcome tags a result with the caller that produced it.
type submitOutcome struct {
	res   *SubmitResult
	owner *int
}

// Submit runs the submission pipeline and returns the new record's id and
// audit file name.
func (s *ReviewService) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	tr := otel.Tracer("services/ReviewService")
	ctx, span := tr.Start(ctx, "Submit",
		trace.WithAttributes(
			attribute.Bool("review.has_document", in.Document != nil),
			attribute.Bool("idempotency.key_present", in.IdempotencyKey != ""),
		),
	)
	defer span.End()

	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" || s.Idem == nil {
		return s.submit(ctx, span, in, "")
	}

	// Only the caller whose function runs stores a record; everyone else
	// sharing the flight, and everyone arriving later, gets a replay.
	token := new(int)
	v, err, _ := s.inflight.Do(key, func() (any, error) {
		if rec, err := s.Idem.GetIdempotency(key, s.now()); err == nil {
			return submitOutcome{res: &SubmitResult{ID: rec.ReviewID, Filename: rec.Filename, Replayed: true}, owner: token}, nil
		}
		res, err := s.submit(ctx, span, in, key)
		if err != nil {
			return nil, err
		}
		return submitOutcome{res: res, owner: token}, nil
	})
	if err != nil {
		return nil, err
	}
	out := v.(submitOutcome)
	res := *out.res
	if out.owner != token {
		res.Replayed = true
	}
	if res.Replayed {
		span.SetAttributes(attribute.Bool("idempotency.replayed", true))
	}
	return &res, nil
}

// submit stores one new review and, when key is set, its replay record.
func (s *ReviewService) submit(ctx context.Context, span trace.Span, in SubmitInput, key string) (*SubmitResult, error) {
	now := s.now()
	r := Normalize(in.Form, now)
	if strings.TrimSpace(r.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if strings.TrimSpace(r.Review) == "" {
		return nil, fmt.Errorf("%w: review is required", ErrValidation)
	}
	r.ID = s.IDs.Next()
	span.SetAttributes(attribute.String("review.id", r.ID))

	lg := s.Log.With().Str("review_id", r.ID).Logger()
	if multi := MultiValued(in.Form); len(multi) > 0 {
		lg.Warn().Strs("fields", multi).Msg("repeated form fields; first value kept")
	}

	if in.Document != nil {
		rel, err := s.relocate(in.Document, media.KindDocument)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "relocate document")
			return nil, err
		}
		r.Document = &rel.Name
		r.DocumentURL = &rel.URL
	}

	if err := s.Store.Append(ctx, r); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "append")
		if r.Document != nil {
			lg.Error().Err(err).Str("document", *r.Document).Msg("append failed after document relocation; file is orphaned")
		}
		return nil, fmt.Errorf("append review: %w", err)
	}

	filename := repo.RecordFileName(r)
	if s.RecordsDir != "" {
		if _, err := repo.WriteRecordFile(s.RecordsDir, r); err != nil {
			lg.Warn().Err(err).Msg("per-record file not written")
		}
	}

	if key != "" {
		if _, err := s.Idem.CreateIdempotency(key, r.ID, filename); err != nil {
			lg.Warn().Err(err).Msg("idempotency record not stored")
		}
	}

	lg.Info().Bool("public", r.IsPublic()).Msg("review saved")
	return &SubmitResult{ID: r.ID, Filename: filename}, nil
}

func (s *ReviewService) relocate(up *Upload, kind media.Kind) (*media.Relocated, error) {
	tmp, err := s.Media.Stage(up.Body)
	if err != nil {
		return nil, err
	}
	rel, err := s.Media.Relocate(tmp, up.Filename, kind)
	if err != nil {
		os.Remove(tmp)
		return nil, err
	}
	return rel, nil
}

func (s *ReviewService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
