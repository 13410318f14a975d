package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tbourn/go-review-wall/internal/domain"
	"github.com/tbourn/go-review-wall/internal/services"
)

func TestListReviews_ForwardsQueryAndReturnsArray(t *testing.T) {
	var got services.ListOptions
	pb := stubPublic{
		version: "10:20",
		list: func(_ context.Context, opts services.ListOptions) ([]domain.Review, error) {
			got = opts
			return []domain.Review{{ID: "2", Name: "B"}, {ID: "1", Name: "A"}}, nil
		},
	}
	h := newTestHandlers(nil, nil, pb, nil, nil)
	r := newTestEngine()
	r.GET("/reviews", h.ListReviews)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reviews?sort=Recent&tag=Friendly&q=quick+staff&limit=5", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if got.Sort != services.SortRecent || got.Tag != "Friendly" || got.Query != "quick staff" || got.Limit != 5 {
		t.Fatalf("opts=%+v", got)
	}
	var items []domain.Review
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(items) != 2 || items[0].ID != "2" {
		t.Fatalf("items=%+v", items)
	}
	if w.Header().Get("ETag") == "" {
		t.Fatalf("expected ETag header")
	}
}

func TestListReviews_EmptyIsArrayNotNull(t *testing.T) {
	h := newTestHandlers(nil, nil, stubPublic{version: "1:1"}, nil, nil)
	r := newTestEngine()
	r.GET("/reviews", h.ListReviews)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reviews", nil))

	if w.Code != http.StatusOK || w.Body.String() != "[]" {
		t.Fatalf("status=%d body=%q", w.Code, w.Body.String())
	}
}

func TestListReviews_LimitClamped(t *testing.T) {
	cases := map[string]int{
		"limit=-3":   0,
		"limit=abc":  0,
		"limit=9999": maxListLimit,
		"":           0,
	}
	for q, want := range cases {
		var got services.ListOptions
		pb := stubPublic{list: func(_ context.Context, opts services.ListOptions) ([]domain.Review, error) {
			got = opts
			return nil, nil
		}}
		h := newTestHandlers(nil, nil, pb, nil, nil)
		r := newTestEngine()
		r.GET("/reviews", h.ListReviews)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reviews?"+q, nil))
		if got.Limit != want {
			t.Fatalf("%q: limit=%d want %d", q, got.Limit, want)
		}
	}
}

func TestListReviews_NotModified(t *testing.T) {
	calls := 0
	pb := stubPublic{
		version: "42:7",
		list: func(context.Context, services.ListOptions) ([]domain.Review, error) {
			calls++
			return nil, nil
		},
	}
	h := newTestHandlers(nil, nil, pb, nil, nil)
	r := newTestEngine()
	r.GET("/reviews", h.ListReviews)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reviews?sort=recent", nil))
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("no ETag")
	}

	req := httptest.NewRequest(http.MethodGet, "/reviews?sort=recent", nil)
	req.Header.Set("If-None-Match", etag)
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req)
	if w2.Code != http.StatusNotModified {
		t.Fatalf("status=%d", w2.Code)
	}
	if calls != 1 {
		t.Fatalf("list calls=%d want 1", calls)
	}

	// A different query yields a different validator.
	req3 := httptest.NewRequest(http.MethodGet, "/reviews?sort=recent&limit=1", nil)
	req3.Header.Set("If-None-Match", etag)
	w3 := httptest.NewRecorder()
	r.ServeHTTP(w3, req3)
	if w3.Code != http.StatusOK {
		t.Fatalf("status=%d", w3.Code)
	}
}

func TestListReviews_VersionErrorStillLists(t *testing.T) {
	pb := stubPublic{verErr: errors.New("stat failed")}
	h := newTestHandlers(nil, nil, pb, nil, nil)
	r := newTestEngine()
	r.GET("/reviews", h.ListReviews)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reviews", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if w.Header().Get("ETag") != "" {
		t.Fatalf("no ETag expected without a version")
	}
}

func TestListReviews_Errors(t *testing.T) {
	cases := []struct {
		err  error
		code string
	}{
		{services.ErrStoreCorrupt, ErrCodeStoreCorrupt},
		{errors.New("read: io"), ErrCodeListFailed},
	}
	for _, tc := range cases {
		pb := stubPublic{list: func(context.Context, services.ListOptions) ([]domain.Review, error) {
			return nil, tc.err
		}}
		h := newTestHandlers(nil, nil, pb, nil, nil)
		r := newTestEngine()
		r.GET("/reviews", h.ListReviews)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reviews", nil))
		if w.Code != http.StatusInternalServerError {
			t.Fatalf("status=%d", w.Code)
		}
		if er := decodeError(t, w); er.Code != tc.code {
			t.Fatalf("code=%q want %q", er.Code, tc.code)
		}
	}
}

func TestListTags(t *testing.T) {
	pb := stubPublic{tags: func(context.Context) ([]string, error) { return []string{"fast", "Friendly"}, nil }}
	h := newTestHandlers(nil, nil, pb, nil, nil)
	r := newTestEngine()
	r.GET("/reviews/tags", h.ListTags)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reviews/tags", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var resp TagsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(resp.Tags) != 2 || resp.Tags[1] != "Friendly" {
		t.Fatalf("tags=%v", resp.Tags)
	}
}

func TestListTags_EmptyIsArray(t *testing.T) {
	h := newTestHandlers(nil, nil, nil, nil, nil)
	r := newTestEngine()
	r.GET("/reviews/tags", h.ListTags)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reviews/tags", nil))
	if w.Body.String() != `{"tags":[]}` {
		t.Fatalf("body=%s", w.Body.String())
	}
}

func TestMatchesETag(t *testing.T) {
	etag := `W/"reviews-1-2-abc"`
	cases := []struct {
		header string
		want   bool
	}{
		{"", false},
		{etag, true},
		{`"x", ` + etag, true},
		{"*", true},
		{`W/"other"`, false},
	}
	for _, tc := range cases {
		if got := matchesETag(tc.header, etag); got != tc.want {
			t.Fatalf("matchesETag(%q)=%v want %v", tc.header, got, tc.want)
		}
	}
}
