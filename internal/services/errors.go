// Package services defines the business logic for review submission,
// enrichment, publication, and media uploads.
// This file centralizes service-level error values so that handlers can map
// them to HTTP status codes with errors.Is.
package services

import (
	"errors"

	"github.com/tbourn/go-review-wall/internal/media"
	"github.com/tbourn/go-review-wall/internal/repo"
)

var (
	// ErrValidation is returned when a submission lacks a required field.
	ErrValidation = errors.New("validation failed")

	// ErrReviewNotFound indicates that no review with the given id exists.
	ErrReviewNotFound = errors.New("review not found")

	// ErrEmptyText is returned when a summarize request has no text.
	ErrEmptyText = errors.New("text is empty")

	// ErrAIUnavailable is returned when no AI provider is configured.
	ErrAIUnavailable = errors.New("ai provider not configured")

	// ErrAIFailed is returned when the AI provider call fails.
	ErrAIFailed = errors.New("ai provider failed")
)

// Storage and media errors are re-exported so handlers only depend on this
// package.
var (
	ErrUploadIncomplete = media.ErrUploadIncomplete
	ErrRelocationFailed = media.ErrRelocationFailed
	ErrStoreCorrupt     = repo.ErrStoreCorrupt
)
