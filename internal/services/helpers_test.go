package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/go-review-wall/internal/domain"
	"github.com/tbourn/go-review-wall/internal/media"
	"github.com/tbourn/go-review-wall/internal/repo"
)

type stubAI struct {
	configured    bool
	out           string
	err           error
	transcript    string
	transcribeErr error
	prompts       []string
}

func (s *stubAI) Configured() bool { return s.configured }

func (s *stubAI) Complete(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.out, s.err
}

func (s *stubAI) Transcribe(_ context.Context, _ string) (string, error) {
	return s.transcript, s.transcribeErr
}

func newTestStore(t *testing.T) *repo.ReviewStore {
	t.Helper()
	s, err := repo.OpenReviewStore(filepath.Join(t.TempDir(), "data", "reviews.json"), zerolog.Nop())
	if err != nil {
		t.Fatalf("OpenReviewStore: %v", err)
	}
	return s
}

func newTestRelocator(t *testing.T, ids *IDAllocator) *media.Relocator {
	t.Helper()
	return media.NewRelocator(filepath.Join(t.TempDir(), "uploads"), "/uploads", ids.Next, zerolog.Nop())
}

func seed(t *testing.T, s *repo.ReviewStore, recs ...*domain.Review) {
	t.Helper()
	for _, r := range recs {
		if r.Social == nil {
			r.Social = map[string]string{}
		}
		if err := s.Append(context.Background(), r); err != nil {
			t.Fatalf("seed %s: %v", r.ID, err)
		}
	}
}

func fixedClock(ts time.Time) func() time.Time { return func() time.Time { return ts } }
