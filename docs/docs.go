// Package docs holds the OpenAPI description served at /swagger.
// Regenerate with: swag init -g cmd/server/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/review": {
            "post": {
                "description": "Accepts a multipart review submission with an optional document and appends it to the review collection. Sending the same Idempotency-Key again returns the first result without storing a duplicate.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["Reviews"],
                "summary": "Submit a review",
                "operationId": "submitReview",
                "parameters": [
                    {"type": "string", "example": "7b0c6a1e-submit", "description": "Retry key", "name": "Idempotency-Key", "in": "header"},
                    {"type": "string", "description": "Reviewer name", "name": "name", "in": "formData", "required": true},
                    {"type": "string", "description": "Review text", "name": "review", "in": "formData", "required": true},
                    {"type": "string", "description": "\"true\" to allow publication", "name": "consent", "in": "formData"},
                    {"type": "string", "description": "\"true\" to keep the review private", "name": "privateSubmit", "in": "formData"},
                    {"type": "string", "description": "URL returned by /upload-video", "name": "videoUrl", "in": "formData"},
                    {"type": "file", "description": "Supporting document", "name": "document", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SubmitReviewResponse"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "413": {"description": "Body too large", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Submission failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/like": {
            "post": {
                "description": "Adds one like to the review. Every call counts; likes are not de-duplicated.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Reviews"],
                "summary": "Like a review",
                "operationId": "likeReview",
                "parameters": [
                    {"description": "Review to like", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.LikeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.LikeResponse"}},
                    "400": {"description": "Missing or invalid reviewId", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Review not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/reviews": {
            "get": {
                "description": "Returns reviews that have consent and are not private. Responses carry a weak ETag; a matching If-None-Match yields 304.",
                "produces": ["application/json"],
                "tags": ["Reviews"],
                "summary": "List public reviews",
                "operationId": "listReviews",
                "parameters": [
                    {"enum": ["recent"], "type": "string", "description": "\"recent\" for newest first; store order otherwise", "name": "sort", "in": "query"},
                    {"type": "string", "description": "Only reviews carrying this tag (case-insensitive)", "name": "tag", "in": "query"},
                    {"type": "string", "description": "Free-text search over name, review, profile, summary and tags", "name": "q", "in": "query"},
                    {"maximum": 500, "minimum": 0, "type": "integer", "description": "Maximum number of reviews (0 = all)", "name": "limit", "in": "query"},
                    {"type": "string", "description": "ETag from a previous response", "name": "If-None-Match", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Review"}}},
                    "304": {"description": "Not modified"},
                    "500": {"description": "Failed to load reviews", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/reviews/tags": {
            "get": {
                "description": "Distinct tags across public reviews, de-duplicated case-insensitively.",
                "produces": ["application/json"],
                "tags": ["Reviews"],
                "summary": "List tags of public reviews",
                "operationId": "listReviewTags",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.TagsResponse"}},
                    "500": {"description": "Failed to load tags", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/upload-video": {
            "post": {
                "description": "Stores a recorded video or audio file under the public upload directory and returns its URL. With transcribe=true the recording is also transcribed when an AI provider is configured; a failed transcription does not fail the upload.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["Media"],
                "summary": "Upload a recording",
                "operationId": "uploadVideo",
                "parameters": [
                    {"type": "file", "description": "Recording", "name": "file", "in": "formData", "required": true},
                    {"type": "string", "description": "\"true\" to request a transcript", "name": "transcribe", "in": "formData"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.UploadVideoResponse"}},
                    "400": {"description": "No video file uploaded", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "413": {"description": "Body too large", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Upload failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/summarize": {
            "post": {
                "description": "Asks the AI provider for a one sentence summary and up to three tags. With reviewId the result is written to that review.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["AI"],
                "summary": "Summarize review text",
                "operationId": "summarizeReview",
                "parameters": [
                    {"description": "Text to summarize", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.SummarizeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SummarizeResponse"}},
                    "400": {"description": "Missing text", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Review not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "502": {"description": "AI error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "503": {"description": "AI provider is not configured", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/assist": {
            "post": {
                "description": "Suggests a headline and a short review draft for the given person.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["AI"],
                "summary": "Suggest a review draft",
                "operationId": "assistReview",
                "parameters": [
                    {"description": "Reviewer details", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/handlers.AssistRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.AssistResponse"}},
                    "400": {"description": "Invalid request body", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "502": {"description": "AI error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "503": {"description": "AI provider is not configured", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["System"],
                "summary": "Liveness probe",
                "operationId": "health",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.HealthResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.Review": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "review": {"type": "string"},
                "phone": {"type": "string"},
                "email": {"type": "string"},
                "location": {"type": "string"},
                "jobTitle": {"type": "string"},
                "organization": {"type": "string"},
                "social": {"type": "object", "additionalProperties": {"type": "string"}},
                "document": {"type": "string"},
                "documentUrl": {"type": "string"},
                "videoUrl": {"type": "string"},
                "consent": {"type": "boolean"},
                "privateSubmit": {"type": "boolean"},
                "timestamp": {"type": "string"},
                "userAgent": {"type": "string"},
                "timezone": {"type": "string"},
                "localTime": {"type": "string"},
                "screenSize": {"type": "string"},
                "referrer": {"type": "string"},
                "likes": {"type": "integer"},
                "summary": {"type": "string"},
                "tags": {"type": "array", "items": {"type": "string"}}
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "request_id": {"description": "Correlates server logs and client errors", "type": "string", "example": "123e4567-e89b-12d3-a456-426614174000"},
                "code": {"description": "Stable, machine-readable code (see errors.go constants)", "type": "string", "example": "not_found"},
                "error": {"description": "Human-readable message (safe to show to users)", "type": "string", "example": "Review not found"}
            }
        },
        "handlers.SubmitReviewResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string", "example": "Review saved"},
                "filename": {"type": "string", "example": "1717171717171-Ann-Lee.json"}
            }
        },
        "handlers.LikeRequest": {
            "type": "object",
            "properties": {
                "reviewId": {"type": "string", "example": "1717171717171"}
            }
        },
        "handlers.LikeResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": true},
                "likes": {"type": "integer", "example": 3}
            }
        },
        "handlers.TagsResponse": {
            "type": "object",
            "properties": {
                "tags": {"type": "array", "items": {"type": "string"}, "example": ["friendly", "fast"]}
            }
        },
        "handlers.UploadVideoResponse": {
            "type": "object",
            "properties": {
                "url": {"type": "string", "example": "/uploads/1717171717171-recording.webm"},
                "transcript": {"type": "string", "example": "Great service, would recommend."}
            }
        },
        "handlers.SummarizeRequest": {
            "type": "object",
            "properties": {
                "text": {"type": "string", "example": "The staff were quick and friendly."},
                "reviewId": {"type": "string", "example": "1717171717171"}
            }
        },
        "handlers.SummarizeResponse": {
            "type": "object",
            "properties": {
                "summary": {"type": "string", "example": "Quick, friendly staff."},
                "tags": {"type": "array", "items": {"type": "string"}, "example": ["friendly", "fast"]}
            }
        },
        "handlers.AssistRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "example": "Ann Lee"},
                "jobTitle": {"type": "string", "example": "Engineer"},
                "organization": {"type": "string", "example": "Acme"}
            }
        },
        "handlers.AssistResponse": {
            "type": "object",
            "properties": {
                "headlineSuggestion": {"type": "string", "example": "A team that delivers"},
                "reviewDraft": {"type": "string", "example": "Working with them was easy from day one."}
            }
        },
        "handlers.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "ok"},
                "time": {"type": "string", "example": "2024-06-01T12:00:00Z"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{"http", "https"},
	Title:            "Review Wall API",
	Description:      "Collects testimonials with optional media, keeps them in a single JSON collection, and serves the public wall.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
