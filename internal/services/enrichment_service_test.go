package services

import (
	"bytes"
	"context"
	"errors"
	"os"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-review-wall/internal/ai"
	"github.com/tbourn/go-review-wall/internal/domain"
)

func TestApplyLike_ConcurrentNoLostUpdate(t *testing.T) {
	store := newTestStore(t)
	seed(t, store, &domain.Review{ID: "1", Name: "Ann", Review: "x", Consent: true})
	svc := &EnrichmentService{Store: store, Log: zerolog.Nop()}

	const n = 40
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.ApplyLike(context.Background(), "1"); err != nil {
				t.Errorf("ApplyLike: %v", err)
			}
		}()
	}
	wg.Wait()

	r, err := store.FindByID(context.Background(), "1")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if r.Likes != n {
		t.Fatalf("expected %d likes, got %d", n, r.Likes)
	}
}

func TestApplyLike_ReturnsNewCount(t *testing.T) {
	store := newTestStore(t)
	seed(t, store, &domain.Review{ID: "1", Name: "Ann", Review: "x", Likes: 4})
	svc := &EnrichmentService{Store: store}

	got, err := svc.ApplyLike(context.Background(), "1")
	if err != nil || got != 5 {
		t.Fatalf("expected (5, nil), got (%d, %v)", got, err)
	}
}

func TestApplyLike_UnknownID(t *testing.T) {
	store := newTestStore(t)
	seed(t, store, &domain.Review{ID: "1", Name: "Ann", Review: "x"})
	before, _ := os.ReadFile(store.Path())

	svc := &EnrichmentService{Store: store}
	if _, err := svc.ApplyLike(context.Background(), "nope"); !errors.Is(err, ErrReviewNotFound) {
		t.Fatalf("expected ErrReviewNotFound, got %v", err)
	}
	after, _ := os.ReadFile(store.Path())
	if !bytes.Equal(before, after) {
		t.Fatalf("store changed on unknown id")
	}
}

func TestApplySummary_LastWriteWins(t *testing.T) {
	store := newTestStore(t)
	seed(t, store, &domain.Review{ID: "1", Name: "Ann", Review: "x"})
	svc := &EnrichmentService{Store: store}
	ctx := context.Background()

	if _, err := svc.ApplySummary(ctx, "1", "first", []string{"a", "b"}); err != nil {
		t.Fatalf("ApplySummary: %v", err)
	}
	r, err := svc.ApplySummary(ctx, "1", "second", []string{"c"})
	if err != nil {
		t.Fatalf("ApplySummary: %v", err)
	}
	if *r.Summary != "second" || !reflect.DeepEqual(r.Tags, []string{"c"}) {
		t.Fatalf("unexpected enrichment %+v", r)
	}
	stored, _ := store.FindByID(ctx, "1")
	if *stored.Summary != "second" || !reflect.DeepEqual(stored.Tags, []string{"c"}) {
		t.Fatalf("stored enrichment not overwritten: %+v", stored)
	}
}

func TestSummarize_AppliesToReview(t *testing.T) {
	store := newTestStore(t)
	seed(t, store, &domain.Review{ID: "1", Name: "Ann", Review: "Loved the team"})
	stub := &stubAI{configured: true, out: "Summary: Happy customer.\nTags: [happy, team]"}
	svc := &EnrichmentService{Store: store, AI: stub}

	sum, err := svc.Summarize(context.Background(), "Loved the team", "1")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if sum.Summary != "Happy customer." || !reflect.DeepEqual(sum.Tags, []string{"happy", "team"}) {
		t.Fatalf("unexpected summary %+v", sum)
	}
	if len(stub.prompts) != 1 || !strings.Contains(stub.prompts[0], "Loved the team") {
		t.Fatalf("prompt not sent: %v", stub.prompts)
	}
	r, _ := store.FindByID(context.Background(), "1")
	if r.Summary == nil || *r.Summary != "Happy customer." || !r.HasTag("team") {
		t.Fatalf("summary not applied: %+v", r)
	}
}

func TestSummarize_Errors(t *testing.T) {
	store := newTestStore(t)
	seed(t, store, &domain.Review{ID: "1", Name: "Ann", Review: "x"})
	ctx := context.Background()

	cases := []struct {
		name   string
		ai     AIClient
		text   string
		id     string
		want   error
		called bool
	}{
		{"empty text", &stubAI{configured: true}, "  ", "", ErrEmptyText, false},
		{"not configured", &stubAI{}, "x", "", ErrAIUnavailable, false},
		{"nil client", nil, "x", "", ErrAIUnavailable, false},
		{"unknown review", &stubAI{configured: true}, "x", "404", ErrReviewNotFound, false},
		{"provider failure", &stubAI{configured: true, err: ai.ErrUpstream}, "x", "1", ErrAIFailed, true},
		{"provider reports unconfigured", &stubAI{configured: true, err: ai.ErrNotConfigured}, "x", "", ErrAIUnavailable, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &EnrichmentService{Store: store, AI: tc.ai}
			if _, err := svc.Summarize(ctx, tc.text, tc.id); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if s, ok := tc.ai.(*stubAI); ok && (len(s.prompts) > 0) != tc.called {
				t.Fatalf("provider called=%v, want %v", len(s.prompts) > 0, tc.called)
			}
		})
	}

	r, _ := store.FindByID(ctx, "1")
	if r.Summary != nil {
		t.Fatalf("failed summarize must not touch the review: %+v", r)
	}
}

func TestSummarize_WithoutReviewID_DoesNotWrite(t *testing.T) {
	store := newTestStore(t)
	before, _ := os.ReadFile(store.Path())
	svc := &EnrichmentService{Store: store, AI: &stubAI{configured: true, out: "Summary: s\nTags: []"}}

	sum, err := svc.Summarize(context.Background(), "text", "")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if sum.Summary != "s" || len(sum.Tags) != 0 {
		t.Fatalf("unexpected summary %+v", sum)
	}
	after, _ := os.ReadFile(store.Path())
	if !bytes.Equal(before, after) {
		t.Fatalf("store written without review id")
	}
}
