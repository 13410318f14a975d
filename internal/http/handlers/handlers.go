package handlers

import (
	"context"

	"github.com/tbourn/go-review-wall/internal/ai"
	"github.com/tbourn/go-review-wall/internal/domain"
	"github.com/tbourn/go-review-wall/internal/services"
)

//
// Service contracts (context-aware)
//

// ReviewService accepts new review submissions.
type ReviewService interface {
	Submit(ctx context.Context, in services.SubmitInput) (*services.SubmitResult, error)
}

// EnrichmentService mutates stored reviews.
type EnrichmentService interface {
	// ApplyLike adds one like and returns the new count.
	ApplyLike(ctx context.Context, id string) (int, error)
	// Summarize summarizes text and stores the result on reviewID when set.
	Summarize(ctx context.Context, text, reviewID string) (*ai.Summary, error)
}

// PublicService serves the public projection.
type PublicService interface {
	ListPublic(ctx context.Context, opts services.ListOptions) ([]domain.Review, error)
	Tags(ctx context.Context) ([]string, error)
	// Version changes whenever the underlying collection changes.
	Version(ctx context.Context) (string, error)
}

// UploadService stores recordings.
type UploadService interface {
	Upload(ctx context.Context, in services.MediaUpload) (*services.UploadResult, error)
}

// AssistService drafts reviews.
type AssistService interface {
	Assist(ctx context.Context, in services.AssistInput) (*ai.Assist, error)
}

// Handlers groups the review wall endpoints. Services are abstract so tests
// can substitute stubs.
type Handlers struct {
	reviews ReviewService
	enrich  EnrichmentService
	public  PublicService
	uploads UploadService
	assist  AssistService
}

// New constructs Handlers bound to the given services.
func New(reviews ReviewService, enrich EnrichmentService, public PublicService, uploads UploadService, assist AssistService) *Handlers {
	return &Handlers{reviews: reviews, enrich: enrich, public: public, uploads: uploads, assist: assist}
}
