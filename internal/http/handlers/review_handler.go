// Review submission and like endpoints:
//   - POST /review  (multipart submission, optional document)
//   - POST /like    (increment likes)
package handlers

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-review-wall/internal/http/middleware"
	"github.com/tbourn/go-review-wall/internal/services"
)

// maxFormMemory is the part of a multipart body kept in memory; the rest is
// spooled to temp files by net/http.
const maxFormMemory = 8 << 20

//
// DTOs
//

// SubmitReviewResponse is returned for an accepted submission.
type SubmitReviewResponse struct {
	Message  string `json:"message" example:"Review saved"`
	Filename string `json:"filename" example:"1717171717171-Ann-Lee.json"`
}

// LikeRequest identifies the review to like. ReviewID may be a JSON string
// or number.
type LikeRequest struct {
	ReviewID any `json:"reviewId" swaggertype:"string" example:"1717171717171"`
}

// LikeResponse carries the new like count.
type LikeResponse struct {
	Success bool `json:"success" example:"true"`
	Likes   int  `json:"likes" example:"3"`
}

//
// Handlers
//

// SubmitReview godoc
// @ID          submitReview
// @Summary     Submit a review
// @Description Accepts a multipart review submission with an optional document and appends it to the review collection. Sending the same Idempotency-Key again returns the first result without storing a duplicate.
// @Tags        Reviews
// @Accept      multipart/form-data
// @Produce     json
//
// @Param       Idempotency-Key  header    string  false  "Retry key"  example(7b0c6a1e-submit)
// @Param       name             formData  string  true   "Reviewer name"
// @Param       review           formData  string  true   "Review text"
// @Param       consent          formData  string  false  "\"true\" to allow publication"
// @Param       privateSubmit    formData  string  false  "\"true\" to keep the review private"
// @Param       videoUrl         formData  string  false  "URL returned by /upload-video"
// @Param       document         formData  file    false  "Supporting document"
//
// @Success     200  {object}  handlers.SubmitReviewResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     413  {object}  handlers.ErrorResponse  "Body too large"
// @Failure     500  {object}  handlers.ErrorResponse  "Submission failed"
// @Router      /review [post]
func (h *Handlers) SubmitReview(c *gin.Context) {
	form, doc, cleanup, err := readSubmission(c)
	defer cleanup()
	if err != nil {
		if isTooLarge(err) {
			fail(c, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, "submission too large")
			return
		}
		middleware.LoggerFrom(c).Warn().Err(err).Msg("submission parse failed")
		fail(c, http.StatusInternalServerError, ErrCodeSubmitFailed, "Submission failed")
		return
	}

	key, _ := middleware.GetIdempotencyKey(c)
	res, err := h.reviews.Submit(c.Request.Context(), services.SubmitInput{
		Form:           form,
		Document:       doc,
		IdempotencyKey: key,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
		case errors.Is(err, services.ErrUploadIncomplete):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "document upload incomplete")
		case errors.Is(err, services.ErrRelocationFailed):
			fail(c, http.StatusInternalServerError, ErrCodeUploadFailed, "document could not be stored")
		case failService(c, err):
		default:
			fail(c, http.StatusInternalServerError, ErrCodeSubmitFailed, "Submission failed")
		}
		return
	}

	if res.Replayed {
		c.Header("Idempotent-Replayed", "true")
	}
	ok(c, http.StatusOK, SubmitReviewResponse{Message: "Review saved", Filename: res.Filename})
}

// readSubmission parses a multipart or urlencoded body. The returned cleanup
// closes the document and removes multipart temp files; it is always safe to
// call.
func readSubmission(c *gin.Context) (map[string][]string, *services.Upload, func(), error) {
	noop := func() {}
	req := c.Request
	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		if err := req.ParseForm(); err != nil {
			return nil, nil, noop, err
		}
		return req.PostForm, nil, noop, nil
	}
	if err := req.ParseMultipartForm(maxFormMemory); err != nil {
		return nil, nil, noop, err
	}

	mf := req.MultipartForm
	cleanup := func() { _ = mf.RemoveAll() }
	fhs := mf.File["document"]
	if len(fhs) == 0 {
		return mf.Value, nil, cleanup, nil
	}
	f, err := fhs[0].Open()
	if err != nil {
		return nil, nil, cleanup, err
	}
	return mf.Value, uploadFrom(fhs[0], f), func() {
		f.Close()
		cleanup()
	}, nil
}

func uploadFrom(fh *multipart.FileHeader, f multipart.File) *services.Upload {
	return &services.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Body:        f,
	}
}

// Like godoc
// @ID          likeReview
// @Summary     Like a review
// @Description Adds one like to the review. Every call counts; likes are not de-duplicated.
// @Tags        Reviews
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.LikeRequest  true  "Review to like"
//
// @Success     200  {object}  handlers.LikeResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Missing or invalid reviewId"
// @Failure     404  {object}  handlers.ErrorResponse  "Review not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /like [post]
func (h *Handlers) Like(c *gin.Context) {
	var req LikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Invalid request body")
		return
	}
	id, valid := reviewIDString(req.ReviewID)
	if !valid {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Missing reviewId in request body")
		return
	}

	likes, err := h.enrich.ApplyLike(c.Request.Context(), id)
	if err != nil {
		if !failService(c, err) {
			fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, "Internal Server Error")
		}
		return
	}
	ok(c, http.StatusOK, LikeResponse{Success: true, Likes: likes})
}

// reviewIDString accepts ids sent as JSON strings or numbers.
func reviewIDString(v any) (string, bool) {
	switch id := v.(type) {
	case string:
		id = strings.TrimSpace(id)
		return id, id != ""
	case float64:
		if id <= 0 {
			return "", false
		}
		return strconv.FormatFloat(id, 'f', -1, 64), true
	case json.Number:
		return id.String(), id.String() != ""
	default:
		return "", false
	}
}
