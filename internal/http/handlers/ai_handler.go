// AI assisted endpoints:
//   - POST /summarize  (summary + tags, optionally stored on a review)
//   - POST /assist     (headline and draft suggestion)
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-review-wall/internal/services"
)

// SummarizeRequest carries the text to summarize. When ReviewID is set the
// result is also stored on that review.
type SummarizeRequest struct {
	Text     string `json:"text" example:"The staff were quick and friendly."`
	ReviewID any    `json:"reviewId,omitempty" swaggertype:"string" example:"1717171717171"`
}

// SummarizeResponse is the parsed completion.
type SummarizeResponse struct {
	Summary string   `json:"summary" example:"Quick, friendly staff."`
	Tags    []string `json:"tags" example:"friendly,fast"`
}

// AssistRequest describes who the draft is for. All fields are optional.
type AssistRequest struct {
	Name         string `json:"name" example:"Ann Lee"`
	JobTitle     string `json:"jobTitle" example:"Engineer"`
	Organization string `json:"organization" example:"Acme"`
}

// AssistResponse is a suggested headline and review draft.
type AssistResponse struct {
	HeadlineSuggestion string `json:"headlineSuggestion" example:"A team that delivers"`
	ReviewDraft        string `json:"reviewDraft" example:"Working with them was easy from day one."`
}

// Summarize godoc
// @ID          summarizeReview
// @Summary     Summarize review text
// @Description Asks the AI provider for a one sentence summary and up to three tags. With reviewId the result is written to that review.
// @Tags        AI
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.SummarizeRequest  true  "Text to summarize"
//
// @Success     200  {object}  handlers.SummarizeResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Missing text"
// @Failure     404  {object}  handlers.ErrorResponse  "Review not found"
// @Failure     502  {object}  handlers.ErrorResponse  "AI error"
// @Failure     503  {object}  handlers.ErrorResponse  "AI provider is not configured"
// @Router      /summarize [post]
func (h *Handlers) Summarize(c *gin.Context) {
	var req SummarizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		fail(c, http.StatusBadRequest, ErrCodeValidation, "Missing text")
		return
	}
	reviewID := ""
	if req.ReviewID != nil {
		id, valid := reviewIDString(req.ReviewID)
		if !valid {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Invalid reviewId")
			return
		}
		reviewID = id
	}

	res, err := h.enrich.Summarize(c.Request.Context(), req.Text, reviewID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyText):
			fail(c, http.StatusBadRequest, ErrCodeValidation, "Missing text")
		case failService(c, err):
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "Internal Server Error")
		}
		return
	}
	tags := res.Tags
	if tags == nil {
		tags = []string{}
	}
	ok(c, http.StatusOK, SummarizeResponse{Summary: res.Summary, Tags: tags})
}

// Assist godoc
// @ID          assistReview
// @Summary     Suggest a review draft
// @Description Suggests a headline and a short review draft for the given person.
// @Tags        AI
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.AssistRequest  false  "Reviewer details"
//
// @Success     200  {object}  handlers.AssistResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid request body"
// @Failure     502  {object}  handlers.ErrorResponse  "AI error"
// @Failure     503  {object}  handlers.ErrorResponse  "AI provider is not configured"
// @Router      /assist [post]
func (h *Handlers) Assist(c *gin.Context) {
	var req AssistRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Invalid request body")
			return
		}
	}

	res, err := h.assist.Assist(c.Request.Context(), services.AssistInput{
		Name:         strings.TrimSpace(req.Name),
		JobTitle:     strings.TrimSpace(req.JobTitle),
		Organization: strings.TrimSpace(req.Organization),
	})
	if err != nil {
		if !failService(c, err) {
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "Internal Server Error")
		}
		return
	}
	ok(c, http.StatusOK, AssistResponse{HeadlineSuggestion: res.Headline, ReviewDraft: res.Draft})
}
