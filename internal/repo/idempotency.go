// Package repo – in-memory replay records for review submissions.
//
// Records live in an expirable LRU so memory stays bounded; nothing here is
// persisted, the aggregate file remains the only durable state.
package repo

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/tbourn/go-review-wall/internal/domain"
)

// ErrDuplicate indicates that a replay record already exists for the key.
var ErrDuplicate = errors.New("duplicate")

// IdempotencyCache maps Idempotency-Key values to accepted submissions.
// It is safe for concurrent use.
type IdempotencyCache struct {
	mu  sync.Mutex
	lru *expirable.LRU[string, domain.Idempotency]
	ttl time.Duration
}

// NewIdempotencyCache returns a cache holding at most size keys for ttl.
func NewIdempotencyCache(size int, ttl time.Duration) *IdempotencyCache {
	if size <= 0 {
		size = 1024
	}
	return &IdempotencyCache{
		lru: expirable.NewLRU[string, domain.Idempotency](size, nil, ttl),
		ttl: ttl,
	}
}

// GetIdempotency returns a non-expired record or ErrNotFound.
func (c *IdempotencyCache) GetIdempotency(key string, now time.Time) (*domain.Idempotency, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	rec, ok := c.lru.Get(key)
	if !ok || rec.Expired(now) {
		return nil, ErrNotFound
	}
	return &rec, nil
}

// CreateIdempotency stores a record and returns ErrDuplicate when a valid one
// already exists for key.
func (c *IdempotencyCache) CreateIdempotency(key, reviewID, filename string) (*domain.Idempotency, error) {
	now := time.Now().UTC()
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.lru.Get(key); ok && !prev.Expired(now) {
		return nil, ErrDuplicate
	}
	rec := domain.Idempotency{
		Key:       key,
		ReviewID:  reviewID,
		Filename:  filename,
		CreatedAt: now,
		ExpiresAt: now.Add(c.ttl),
	}
	c.lru.Add(key, rec)
	return &rec, nil
}
