package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-review-wall/internal/http/middleware"
	"github.com/tbourn/go-review-wall/internal/services"
	"github.com/tbourn/go-review-wall/internal/sysutil"
)

// UploadVideoResponse points at the stored recording.
type UploadVideoResponse struct {
	URL        string `json:"url" example:"/uploads/1717171717171-recording.webm"`
	Transcript string `json:"transcript,omitempty" example:"Great service, would recommend."`
}

// UploadVideo godoc
// @ID          uploadVideo
// @Summary     Upload a recording
// @Description Stores a recorded video or audio file under the public upload directory and returns its URL. With transcribe=true the recording is also transcribed when an AI provider is configured; a failed transcription does not fail the upload.
// @Tags        Media
// @Accept      multipart/form-data
// @Produce     json
//
// @Param       file        formData  file    true   "Recording"
// @Param       transcribe  formData  string  false  "\"true\" to request a transcript"
//
// @Success     200  {object}  handlers.UploadVideoResponse
// @Failure     400  {object}  handlers.ErrorResponse  "No video file uploaded"
// @Failure     413  {object}  handlers.ErrorResponse  "Body too large"
// @Failure     500  {object}  handlers.ErrorResponse  "Upload failed"
// @Router      /upload-video [post]
func (h *Handlers) UploadVideo(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		if isTooLarge(err) {
			fail(c, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, "upload too large")
			return
		}
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "No video file uploaded")
		return
	}
	if form := c.Request.MultipartForm; form != nil {
		defer form.RemoveAll()
	}

	f, err := fh.Open()
	if err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("open uploaded recording")
		fail(c, http.StatusInternalServerError, ErrCodeUploadFailed, "Upload failed")
		return
	}
	defer f.Close()

	res, err := h.uploads.Upload(c.Request.Context(), services.MediaUpload{
		File:       uploadFrom(fh, f),
		Transcribe: sysutil.IsTruthy(c.PostForm("transcribe")),
	})
	if err != nil {
		if errors.Is(err, services.ErrUploadIncomplete) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "upload incomplete")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeUploadFailed, "Upload failed")
		return
	}
	ok(c, http.StatusOK, UploadVideoResponse{URL: res.URL, Transcript: res.Transcript})
}
