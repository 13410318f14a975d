package services

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/tbourn/go-review-wall/internal/ai"
)

// AssistInput describes the person a review draft is written for.
type AssistInput struct {
	Name         string
	JobTitle     string
	Organization string
}

// AssistService drafts review headlines and bodies.
type AssistService struct {
	AI AIClient
}

// Assist asks the AI provider for a headline and a short draft.
func (s *AssistService) Assist(ctx context.Context, in AssistInput) (*ai.Assist, error) {
	ctx, span := otel.Tracer("services/AssistService").Start(ctx, "Assist")
	defer span.End()

	out, err := complete(ctx, s.AI, ai.AssistPrompt(in.Name, in.JobTitle, in.Organization))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion")
		return nil, err
	}
	res := ai.ParseAssist(out)
	return &res, nil
}
