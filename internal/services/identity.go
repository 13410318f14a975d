package services

import (
	"strconv"
	"sync/atomic"
	"time"
)

// IDAllocator hands out decimal millisecond ids that are strictly increasing
// within the process. When two calls land in the same millisecond (or the
// clock steps back) the later call gets last+1.
//
// Ids are not zero-padded; sort records by timestamp, not by id text.
type IDAllocator struct {
	last atomic.Int64
	now  func() time.Time
}

// NewIDAllocator returns an allocator reading the wall clock.
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{now: time.Now}
}

// Next returns the next id.
func (a *IDAllocator) Next() string {
	now := time.Now
	if a.now != nil {
		now = a.now
	}
	ms := now().UnixMilli()
	for {
		last := a.last.Load()
		next := ms
		if next <= last {
			next = last + 1
		}
		if a.last.CompareAndSwap(last, next) {
			return strconv.FormatInt(next, 10)
		}
	}
}
