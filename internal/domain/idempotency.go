package domain

import "time"

// Idempotency represents the recorded result of a previously accepted review
// submission, keyed by the client's Idempotency-Key. A retry carrying the same
// key is answered from this record instead of appending a second review.
type Idempotency struct {
	Key       string
	ReviewID  string
	Filename  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the record is no longer valid at now.
func (i Idempotency) Expired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}
