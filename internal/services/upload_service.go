// Package services – UploadService
//
// UploadService stores recorded video or audio and optionally transcribes it.
// Transcription is best effort: a failed transcription never fails the upload.
package services

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-review-wall/internal/media"
)

// MediaUpload is one recording upload.
type MediaUpload struct {
	File       *Upload
	Transcribe bool
}

// UploadResult is returned for a stored recording. Transcript is empty when
// not requested or not available.
type UploadResult struct {
	URL        string
	Name       string
	Transcript string
}

// UploadService stores recordings under the public upload directory.
type UploadService struct {
	Media *media.Relocator
	AI    AIClient
	Log   zerolog.Logger
}

// Upload relocates the recording and, when asked and possible, transcribes it.
func (s *UploadService) Upload(ctx context.Context, in MediaUpload) (*UploadResult, error) {
	tr := otel.Tracer("services/UploadService")
	ctx, span := tr.Start(ctx, "Upload",
		trace.WithAttributes(attribute.Bool("transcribe", in.Transcribe)),
	)
	defer span.End()

	if in.File == nil || in.File.Body == nil {
		return nil, ErrUploadIncomplete
	}
	kind := media.KindFromContentType(in.File.ContentType)

	tmp, err := s.Media.Stage(in.File.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stage")
		return nil, err
	}
	rel, err := s.Media.Relocate(tmp, in.File.Filename, kind)
	if err != nil {
		os.Remove(tmp)
		span.RecordError(err)
		span.SetStatus(codes.Error, "relocate")
		return nil, err
	}
	span.SetAttributes(attribute.String("media.name", rel.Name), attribute.String("media.kind", string(kind)))

	res := &UploadResult{URL: rel.URL, Name: rel.Name}
	if in.Transcribe && s.AI != nil && s.AI.Configured() {
		text, err := s.AI.Transcribe(ctx, rel.Path)
		if err != nil {
			s.Log.Warn().Err(err).Str("file", rel.Name).Msg("transcription failed; upload kept")
		} else {
			res.Transcript = text
		}
	}
	return res, nil
}
