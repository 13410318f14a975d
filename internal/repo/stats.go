// Package repo – store statistics used for conditional responses (ETag) in
// the HTTP layer.
package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// StoreStats describes the current aggregate file version.
type StoreStats struct {
	// Generation counts rewrites made by this process. It changes on every
	// mutation even when size and mtime do not.
	Generation uint64
	Size       int64
	ModTime    time.Time
}

// Stats returns the write generation plus size and modification time of the
// aggregate file. Size and mtime catch edits made outside the process.
// A missing file reports zero size and mtime.
func (s *ReviewStore) Stats() (StoreStats, error) {
	fi, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return StoreStats{Generation: s.gen.Load()}, nil
		}
		return StoreStats{}, fmt.Errorf("stat store %s: %w", s.path, err)
	}
	return StoreStats{Generation: s.gen.Load(), Size: fi.Size(), ModTime: fi.ModTime()}, nil
}
