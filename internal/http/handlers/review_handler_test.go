package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-review-wall/internal/http/middleware"
	"github.com/tbourn/go-review-wall/internal/services"
)

func multipartBody(t *testing.T, fields map[string]string, fileField, fileName string, file []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, fileName)
		if err != nil {
			t.Fatalf("create file: %v", err)
		}
		if _, err := fw.Write(file); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("json: %v; body=%s", err, w.Body.String())
	}
	return er
}

func TestSubmitReview_MultipartWithDocument(t *testing.T) {
	var got services.SubmitInput
	var doc string
	rv := stubReviews{submit: func(_ context.Context, in services.SubmitInput) (*services.SubmitResult, error) {
		got = in
		if in.Document != nil {
			b, _ := io.ReadAll(in.Document.Body)
			doc = string(b)
		}
		return &services.SubmitResult{ID: "1700000000000", Filename: "1700000000000-Ann-Lee.json"}, nil
	}}
	h := newTestHandlers(rv, nil, nil, nil, nil)
	r := newTestEngine()
	r.POST("/review", h.SubmitReview)

	body, ct := multipartBody(t, map[string]string{"name": "Ann Lee", "review": "Great"}, "document", "My Report.PDF", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/review", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp SubmitReviewResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.Message != "Review saved" || resp.Filename != "1700000000000-Ann-Lee.json" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if got.Form["name"][0] != "Ann Lee" || got.Form["review"][0] != "Great" {
		t.Fatalf("form not forwarded: %+v", got.Form)
	}
	if got.Document == nil || got.Document.Filename != "My Report.PDF" {
		t.Fatalf("document not forwarded: %+v", got.Document)
	}
	if doc != "%PDF-1.4" {
		t.Fatalf("document body=%q", doc)
	}
	if w.Header().Get("Idempotent-Replayed") != "" {
		t.Fatalf("fresh submission must not be marked replayed")
	}
}

func TestSubmitReview_URLEncoded(t *testing.T) {
	var got services.SubmitInput
	rv := stubReviews{submit: func(_ context.Context, in services.SubmitInput) (*services.SubmitResult, error) {
		got = in
		return &services.SubmitResult{ID: "1", Filename: "1-Bob.json"}, nil
	}}
	h := newTestHandlers(rv, nil, nil, nil, nil)
	r := newTestEngine()
	r.POST("/review", h.SubmitReview)

	form := url.Values{"name": {"Bob"}, "review": {"ok"}, "consent": {"true"}}
	req := httptest.NewRequest(http.MethodPost, "/review", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if got.Document != nil {
		t.Fatalf("no document expected")
	}
	if got.Form["consent"][0] != "true" {
		t.Fatalf("form=%+v", got.Form)
	}
}

func TestSubmitReview_IdempotencyKeyForwardedAndReplayHeader(t *testing.T) {
	var key string
	rv := stubReviews{submit: func(_ context.Context, in services.SubmitInput) (*services.SubmitResult, error) {
		key = in.IdempotencyKey
		return &services.SubmitResult{ID: "1", Filename: "1-a.json", Replayed: true}, nil
	}}
	h := newTestHandlers(rv, nil, nil, nil, nil)
	r := newTestEngine()
	r.POST("/review", middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil), h.SubmitReview)

	body, ct := multipartBody(t, map[string]string{"name": "a", "review": "b"}, "", "", nil)
	req := httptest.NewRequest(http.MethodPost, "/review", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set(middleware.HeaderIdempotencyKey, "submit-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if key != "submit-123" {
		t.Fatalf("key=%q", key)
	}
	if w.Header().Get("Idempotent-Replayed") != "true" {
		t.Fatalf("replay header missing")
	}
}

func TestSubmitReview_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", fmt.Errorf("%w: name is required", services.ErrValidation), http.StatusBadRequest, ErrCodeValidation},
		{"upload incomplete", services.ErrUploadIncomplete, http.StatusBadRequest, ErrCodeBadRequest},
		{"relocation", services.ErrRelocationFailed, http.StatusInternalServerError, ErrCodeUploadFailed},
		{"corrupt store", fmt.Errorf("append review: %w", services.ErrStoreCorrupt), http.StatusInternalServerError, ErrCodeStoreCorrupt},
		{"other", fmt.Errorf("append review: disk full"), http.StatusInternalServerError, ErrCodeSubmitFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rv := stubReviews{submit: func(context.Context, services.SubmitInput) (*services.SubmitResult, error) {
				return nil, tc.err
			}}
			h := newTestHandlers(rv, nil, nil, nil, nil)
			r := newTestEngine()
			r.POST("/review", h.SubmitReview)

			body, ct := multipartBody(t, map[string]string{"name": "a"}, "", "", nil)
			req := httptest.NewRequest(http.MethodPost, "/review", body)
			req.Header.Set("Content-Type", ct)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.status {
				t.Fatalf("status=%d want %d", w.Code, tc.status)
			}
			if er := decodeError(t, w); er.Code != tc.code {
				t.Fatalf("code=%q want %q", er.Code, tc.code)
			}
		})
	}
}

func TestSubmitReview_MalformedMultipart(t *testing.T) {
	rv := stubReviews{submit: func(context.Context, services.SubmitInput) (*services.SubmitResult, error) {
		t.Fatalf("service should not be called")
		return nil, nil
	}}
	h := newTestHandlers(rv, nil, nil, nil, nil)
	r := newTestEngine()
	r.POST("/review", h.SubmitReview)

	req := httptest.NewRequest(http.MethodPost, "/review", strings.NewReader("--nope\r\ngarbage"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	if er := decodeError(t, w); er.Error != "Submission failed" {
		t.Fatalf("error=%q", er.Error)
	}
}

func TestSubmitReview_TooLarge(t *testing.T) {
	h := newTestHandlers(nil, nil, nil, nil, nil)
	r := newTestEngine()
	r.POST("/review", func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 16)
		c.Next()
	}, h.SubmitReview)

	form := url.Values{"name": {"a"}, "review": {strings.Repeat("x", 256)}}
	req := httptest.NewRequest(http.MethodPost, "/review", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestLike(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		likeFn func(ctx context.Context, id string) (int, error)
		status int
		wantID string
	}{
		{name: "string id", body: `{"reviewId":"1700000000000"}`, status: http.StatusOK, wantID: "1700000000000"},
		{name: "numeric id", body: `{"reviewId":1700000000000}`, status: http.StatusOK, wantID: "1700000000000"},
		{name: "missing id", body: `{}`, status: http.StatusBadRequest},
		{name: "blank id", body: `{"reviewId":"  "}`, status: http.StatusBadRequest},
		{name: "bad json", body: `{`, status: http.StatusBadRequest},
		{
			name: "not found", body: `{"reviewId":"9"}`, status: http.StatusNotFound, wantID: "9",
			likeFn: func(context.Context, string) (int, error) { return 0, services.ErrReviewNotFound },
		},
		{
			name: "store error", body: `{"reviewId":"9"}`, status: http.StatusInternalServerError, wantID: "9",
			likeFn: func(context.Context, string) (int, error) { return 0, fmt.Errorf("write: boom") },
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var gotID string
			en := stubEnrich{like: func(ctx context.Context, id string) (int, error) {
				gotID = id
				if tc.likeFn != nil {
					return tc.likeFn(ctx, id)
				}
				return 3, nil
			}}
			h := newTestHandlers(nil, en, nil, nil, nil)
			r := newTestEngine()
			r.POST("/like", h.Like)

			req := httptest.NewRequest(http.MethodPost, "/like", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.status {
				t.Fatalf("status=%d want %d body=%s", w.Code, tc.status, w.Body.String())
			}
			if gotID != tc.wantID {
				t.Fatalf("id=%q want %q", gotID, tc.wantID)
			}
			if tc.status == http.StatusOK {
				var resp LikeResponse
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("json: %v", err)
				}
				if !resp.Success || resp.Likes != 3 {
					t.Fatalf("resp=%+v", resp)
				}
			}
		})
	}
}
