// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Every error response carries one of these codes next to a human-readable
// message, so clients can branch on the code without parsing text.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "not_found",
//	  "error": "Review not found"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeTooLarge         = "payload_too_large"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"

	// Domain-specific:
	ErrCodeValidation    = "validation_failed"
	ErrCodeSubmitFailed  = "submit_failed"
	ErrCodeUploadFailed  = "upload_failed"
	ErrCodeUpdateFailed  = "update_failed"
	ErrCodeListFailed    = "list_failed"
	ErrCodeStoreCorrupt  = "store_corrupt"
	ErrCodeAIUnavailable = "ai_unavailable"
	ErrCodeAIFailed      = "ai_failed"
)
