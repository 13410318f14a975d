package media

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

var (
	sweepRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "media_temp_sweep_runs_total",
		Help: "Staging directory sweeps.",
	})
	sweepRemoved = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "media_temp_files_removed_total",
		Help: "Abandoned staging files removed by the sweeper.",
	})
)

func init() {
	prometheus.MustRegister(sweepRuns, sweepRemoved)
}

// SweepTemp removes staged files older than maxAge and returns how many were
// removed. A missing staging directory is not an error.
func (r *Relocator) SweepTemp(maxAge time.Duration) (int, error) {
	sweepRuns.Inc()
	entries, err := os.ReadDir(r.tmpDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		p := filepath.Join(r.tmpDir, e.Name())
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			r.log.Warn().Err(err).Str("file", p).Msg("temp sweep remove failed")
			continue
		}
		removed++
	}
	sweepRemoved.Add(float64(removed))
	return removed, nil
}

// Sweeper runs SweepTemp on a ticker until stopped.
type Sweeper struct {
	rel      *Relocator
	interval time.Duration
	maxAge   time.Duration
	log      zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSweeper returns a sweeper for rel's staging directory.
func NewSweeper(rel *Relocator, interval, maxAge time.Duration, lg zerolog.Logger) *Sweeper {
	return &Sweeper{
		rel:      rel,
		interval: interval,
		maxAge:   maxAge,
		log:      lg.With().Str("component", "temp_sweeper").Logger(),
	}
}

// Start launches the background loop. The first sweep runs immediately.
// Calling Start on a running sweeper is a no-op.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil || s.interval <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx, s.done)

	s.log.Info().Dur("interval", s.interval).Dur("max_age", s.maxAge).Msg("temp sweeper started")
}

// Stop cancels the loop and waits for it to exit.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.log.Info().Msg("temp sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	s.once()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.once()
		}
	}
}

func (s *Sweeper) once() {
	n, err := s.rel.SweepTemp(s.maxAge)
	if err != nil {
		s.log.Error().Err(err).Msg("temp sweep failed")
		return
	}
	if n > 0 {
		s.log.Info().Int("removed", n).Msg("abandoned uploads removed")
	}
}
