package handlers

import (
	"context"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-review-wall/internal/ai"
	"github.com/tbourn/go-review-wall/internal/domain"
	"github.com/tbourn/go-review-wall/internal/services"
)

// ---- stubs to satisfy handlers.New() dependencies ----

type stubReviews struct {
	submit func(ctx context.Context, in services.SubmitInput) (*services.SubmitResult, error)
}

func (s stubReviews) Submit(ctx context.Context, in services.SubmitInput) (*services.SubmitResult, error) {
	if s.submit != nil {
		return s.submit(ctx, in)
	}
	return &services.SubmitResult{ID: "1", Filename: "1-anonymous.json"}, nil
}

type stubEnrich struct {
	like      func(ctx context.Context, id string) (int, error)
	summarize func(ctx context.Context, text, reviewID string) (*ai.Summary, error)
}

func (s stubEnrich) ApplyLike(ctx context.Context, id string) (int, error) {
	if s.like != nil {
		return s.like(ctx, id)
	}
	return 1, nil
}

func (s stubEnrich) Summarize(ctx context.Context, text, reviewID string) (*ai.Summary, error) {
	if s.summarize != nil {
		return s.summarize(ctx, text, reviewID)
	}
	return &ai.Summary{Tags: []string{}}, nil
}

type stubPublic struct {
	list    func(ctx context.Context, opts services.ListOptions) ([]domain.Review, error)
	tags    func(ctx context.Context) ([]string, error)
	version string
	verErr  error
}

func (s stubPublic) ListPublic(ctx context.Context, opts services.ListOptions) ([]domain.Review, error) {
	if s.list != nil {
		return s.list(ctx, opts)
	}
	return nil, nil
}

func (s stubPublic) Tags(ctx context.Context) ([]string, error) {
	if s.tags != nil {
		return s.tags(ctx)
	}
	return nil, nil
}

func (s stubPublic) Version(context.Context) (string, error) {
	if s.verErr != nil {
		return "", s.verErr
	}
	return s.version, nil
}

type stubUploads struct {
	upload func(ctx context.Context, in services.MediaUpload) (*services.UploadResult, error)
}

func (s stubUploads) Upload(ctx context.Context, in services.MediaUpload) (*services.UploadResult, error) {
	if s.upload != nil {
		return s.upload(ctx, in)
	}
	_, _ = io.Copy(io.Discard, in.File.Body)
	return &services.UploadResult{URL: "/uploads/x.webm", Name: "x.webm"}, nil
}

type stubAssist struct {
	fn func(ctx context.Context, in services.AssistInput) (*ai.Assist, error)
}

func (s stubAssist) Assist(ctx context.Context, in services.AssistInput) (*ai.Assist, error) {
	if s.fn != nil {
		return s.fn(ctx, in)
	}
	return &ai.Assist{}, nil
}

// newTestHandlers fills any nil dependency with a default stub.
func newTestHandlers(rv ReviewService, en EnrichmentService, pb PublicService, up UploadService, as AssistService) *Handlers {
	if rv == nil {
		rv = stubReviews{}
	}
	if en == nil {
		en = stubEnrich{}
	}
	if pb == nil {
		pb = stubPublic{}
	}
	if up == nil {
		up = stubUploads{}
	}
	if as == nil {
		as = stubAssist{}
	}
	return New(rv, en, pb, up, as)
}

func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}
