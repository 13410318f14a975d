package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-review-wall/internal/services"
)

func TestFail_EchoesRequestID(t *testing.T) {
	r := newTestEngine()
	r.GET("/x", func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", "rid-1")
		Fail(c, http.StatusTeapot, "teapot", "short and stout")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusTeapot {
		t.Fatalf("status=%d", w.Code)
	}
	er := decodeError(t, w)
	if er.RequestID != "rid-1" || er.Code != "teapot" || er.Error != "short and stout" {
		t.Fatalf("resp=%+v", er)
	}
}

func TestFailService_UnknownErrorNotHandled(t *testing.T) {
	r := newTestEngine()
	handled := true
	r.GET("/x", func(c *gin.Context) {
		handled = failService(c, errors.New("other"))
		c.Status(http.StatusNoContent)
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if handled || w.Code != http.StatusNoContent {
		t.Fatalf("handled=%v status=%d", handled, w.Code)
	}
}

func TestFailService_WrappedNotFound(t *testing.T) {
	r := newTestEngine()
	r.GET("/x", func(c *gin.Context) {
		failService(c, errors.Join(errors.New("ctx"), services.ErrReviewNotFound))
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d", w.Code)
	}
	if er := decodeError(t, w); er.Error != "Review not found" {
		t.Fatalf("error=%q", er.Error)
	}
}
