// Package repo implements the persistence layer for review records. The
// authoritative store is a single JSON array file (reviews.json) that is
// rewritten as a whole on every mutation.
//
// Concurrency model:
//   - Append and UpdateFields are serialized by one mutex per store, so every
//     read-modify-write cycle observes the result of all earlier ones.
//   - Readers (FindByID, ListAll) take no lock. Writers replace the file with
//     an atomic rename, so a reader sees either the old or the new array and
//     never a partially written one.
package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-review-wall/internal/domain"
)

var (
	// ErrNotFound is returned when no record with the requested id exists.
	ErrNotFound = errors.New("not found")

	// ErrStoreCorrupt is returned when the aggregate file cannot be parsed as a
	// JSON array. The file is left untouched.
	ErrStoreCorrupt = errors.New("review store is corrupt")
)

// Keys that Review marshals with omitempty; they must be dropped from a
// merged record when the updated value no longer carries them.
var omitEmptyKeys = []string{"summary", "tags"}

var (
	storeMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_store_mutations_total",
			Help: "Aggregate store mutations by operation and result.",
		},
		[]string{"op", "result"},
	)

	// storeLockHold measures how long a mutation holds the writer lock.
	storeLockHold = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "review_store_lock_hold_seconds",
			Help:    "Time a mutation holds the aggregate store writer lock.",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"op"},
	)

	storeSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "review_store_skipped_records_total",
			Help: "Malformed aggregate elements skipped while listing.",
		},
	)
)

func init() {
	prometheus.MustRegister(storeMutations, storeLockHold, storeSkipped)
}

// Mutator patches a decoded record in place. Returning an error aborts the
// update without writing.
type Mutator func(r *domain.Review) error

// ReviewStore is the aggregate store backed by one JSON array file.
// It is safe for concurrent use.
type ReviewStore struct {
	path string
	mu   sync.Mutex
	log  zerolog.Logger

	// gen counts successful rewrites by this process.
	gen atomic.Uint64
}

// OpenReviewStore returns a store for path and bootstraps the parent directory
// and an empty array file if they do not exist yet. Existing content is never
// rewritten here.
func OpenReviewStore(path string, lg zerolog.Logger) (*ReviewStore, error) {
	s := &ReviewStore{
		path: path,
		log:  lg.With().Str("component", "review_store").Str("path", path).Logger(),
	}
	if err := s.EnsureInitialized(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the aggregate file location.
func (s *ReviewStore) Path() string { return s.path }

// EnsureInitialized creates the parent directory and a "[]" file when absent.
// It is idempotent.
func (s *ReviewStore) EnsureInitialized() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureFileLocked()
}

func (s *ReviewStore) ensureFileLocked() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create store dir %s: %w", dir, err)
	}
	_, err := os.Stat(s.path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat store %s: %w", s.path, err)
	}
	return writeFileAtomic(s.path, []byte("[]"))
}

// Append adds r at the end of the collection.
func (s *ReviewStore) Append(ctx context.Context, r *domain.Review) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode review %s: %w", r.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.observe("append", time.Now(), &err)

	if err := s.ensureFileLocked(); err != nil {
		return err
	}
	elems, err := s.readRaw()
	if err != nil {
		return err
	}
	elems = append(elems, raw)
	return s.writeRaw(elems)
}

// FindByID returns the record with the given id or ErrNotFound.
func (s *ReviewStore) FindByID(ctx context.Context, id string) (*domain.Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	elems, err := s.readRaw()
	if err != nil {
		return nil, err
	}
	i := indexOf(elems, id)
	if i < 0 {
		return nil, ErrNotFound
	}
	r, err := decodeReview(elems[i])
	if err != nil {
		return nil, fmt.Errorf("%w: record %s: %v", ErrStoreCorrupt, id, err)
	}
	return &r, nil
}

// UpdateFields locates the record with id, applies mutate, and rewrites the
// collection. Unknown id yields ErrNotFound and the file is not touched.
// The id itself can not be changed by mutate.
func (s *ReviewStore) UpdateFields(ctx context.Context, id string, mutate Mutator) (_ *domain.Review, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	defer s.observe("update", time.Now(), &err)

	elems, err := s.readRaw()
	if err != nil {
		return nil, err
	}
	i := indexOf(elems, id)
	if i < 0 {
		return nil, ErrNotFound
	}

	r, err := decodeReview(elems[i])
	if err != nil {
		return nil, fmt.Errorf("%w: record %s: %v", ErrStoreCorrupt, id, err)
	}
	origID := r.ID
	if err := mutate(&r); err != nil {
		return nil, err
	}
	r.ID = origID

	updated, err := json.Marshal(&r)
	if err != nil {
		return nil, fmt.Errorf("encode review %s: %w", id, err)
	}
	merged, err := mergeRecord(elems[i], updated)
	if err != nil {
		return nil, err
	}
	elems[i] = merged

	if err := s.writeRaw(elems); err != nil {
		return nil, err
	}
	return &r, nil
}

// ListAll returns every decodable record in store order. Elements that do not
// decode as a review are skipped and logged; they stay in the file.
func (s *ReviewStore) ListAll(ctx context.Context) ([]domain.Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	elems, err := s.readRaw()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Review, 0, len(elems))
	for i, raw := range elems {
		r, err := decodeReview(raw)
		if err != nil {
			storeSkipped.Inc()
			s.log.Warn().Err(err).Int("index", i).Msg("skipping malformed review")
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// readRaw loads the collection as undecoded elements. A missing file is an
// empty collection; anything that is not a JSON array is ErrStoreCorrupt.
func (s *ReviewStore) readRaw() ([]json.RawMessage, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read store %s: %w", s.path, err)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: %s: not a JSON array", ErrStoreCorrupt, s.path)
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrStoreCorrupt, s.path, err)
	}
	return elems, nil
}

func (s *ReviewStore) writeRaw(elems []json.RawMessage) error {
	if elems == nil {
		elems = []json.RawMessage{}
	}
	data, err := json.MarshalIndent(elems, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return err
	}
	s.gen.Add(1)
	return nil
}

func (s *ReviewStore) observe(op string, start time.Time, errp *error) {
	storeLockHold.WithLabelValues(op).Observe(time.Since(start).Seconds())
	result := "ok"
	if err := *errp; err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			result = "not_found"
		case errors.Is(err, ErrStoreCorrupt):
			result = "corrupt"
			s.log.Error().Err(err).Str("op", op).Msg("aggregate store is corrupt")
		default:
			result = "error"
		}
	}
	storeMutations.WithLabelValues(op, result).Inc()
}

// indexOf returns the position of the element whose id matches, or -1.
func indexOf(elems []json.RawMessage, id string) int {
	for i, raw := range elems {
		if rid, ok := rawID(raw); ok && rid == id {
			return i
		}
	}
	return -1
}

func rawID(raw json.RawMessage) (string, bool) {
	var head struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return "", false
	}
	return idText(head.ID)
}

// idText renders a string or numeric JSON id as text. Numbers are written
// without exponent or trailing zeros, so 1.7e12 and 1700000000000 match
// "1700000000000".
func idText(v json.RawMessage) (string, bool) {
	v = bytes.TrimSpace(v)
	if len(v) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err != nil {
		return "", false
	}
	f, err := strconv.ParseFloat(n.String(), 64)
	if err != nil {
		return "", false
	}
	return strconv.FormatFloat(f, 'f', -1, 64), true
}

type reviewFields domain.Review

// decodeReview decodes one element, accepting numeric ids from older rows.
func decodeReview(raw json.RawMessage) (domain.Review, error) {
	var aux struct {
		reviewFields
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(raw, &aux); err != nil {
		return domain.Review{}, err
	}
	r := domain.Review(aux.reviewFields)
	if len(aux.ID) > 0 && string(aux.ID) != "null" {
		id, ok := idText(aux.ID)
		if !ok {
			return domain.Review{}, fmt.Errorf("id is neither string nor number: %s", aux.ID)
		}
		r.ID = id
	}
	return r, nil
}

// mergeRecord overlays the re-encoded record onto the original element so
// keys this version does not know about survive the rewrite. The original id
// encoding is kept.
func mergeRecord(orig, updated []byte) (json.RawMessage, error) {
	var base, upd map[string]json.RawMessage
	if err := json.Unmarshal(orig, &base); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreCorrupt, err)
	}
	if err := json.Unmarshal(updated, &upd); err != nil {
		return nil, fmt.Errorf("decode updated record: %w", err)
	}

	keep := false
	if id, ok := base["id"]; ok && !bytes.Equal(bytes.TrimSpace(id), upd["id"]) {
		keep = true
	}
	for k := range base {
		if _, ok := upd[k]; !ok && !isOmitEmptyKey(k) {
			keep = true
			break
		}
	}
	if !keep {
		return updated, nil
	}

	for _, k := range omitEmptyKeys {
		delete(base, k)
	}
	for k, v := range upd {
		if k == "id" {
			if _, ok := base[k]; ok {
				continue
			}
		}
		base[k] = v
	}
	return json.Marshal(base)
}

func isOmitEmptyKey(k string) bool {
	for _, o := range omitEmptyKeys {
		if k == o {
			return true
		}
	}
	return false
}

// writeFileAtomic writes data next to path and renames it over path.
// Pattern: temp file → write → fsync → rename; the temp file is removed on
// any failure.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("fsync %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Chmod(tmp, 0o640); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("chmod %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
