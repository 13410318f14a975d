// Package handlers implements the HTTP endpoints of the review wall.
//
// This file holds the response helpers shared by all handlers. Errors always
// use ErrorResponse; 5xx errors are also logged with the request-scoped
// logger.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-review-wall/internal/http/middleware"
	"github.com/tbourn/go-review-wall/internal/services"
)

// ErrorResponse is the error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Error string `json:"error" example:"Review not found"`
}

// fail aborts the request with an ErrorResponse.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("error", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Error:     msg,
	})
}

// Fail is the exported variant of fail for router-level fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// failService maps service errors that several endpoints share. It returns
// false when err is not one of them.
func failService(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, services.ErrReviewNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "Review not found")
	case errors.Is(err, services.ErrAIUnavailable):
		fail(c, http.StatusServiceUnavailable, ErrCodeAIUnavailable, "AI provider is not configured")
	case errors.Is(err, services.ErrAIFailed):
		fail(c, http.StatusBadGateway, ErrCodeAIFailed, "AI error")
	case errors.Is(err, services.ErrStoreCorrupt):
		fail(c, http.StatusInternalServerError, ErrCodeStoreCorrupt, "review store is unreadable")
	default:
		return false
	}
	return true
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
