package repo

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tbourn/go-review-wall/internal/domain"
	"github.com/tbourn/go-review-wall/internal/sysutil"
)

var (
	whitespaceRE   = regexp.MustCompile(`\s`)
	unsafeNameRE   = regexp.MustCompile(`[/\\:*?"<>|\x00]`)
	defaultRecName = "anonymous"
)

// RecordFileName returns the per-record file name "{id}-{name}.json" where each
// whitespace character of the submitter's name becomes '-' and path
// characters are dropped. An empty name becomes "anonymous".
func RecordFileName(r *domain.Review) string {
	name := sysutil.FirstNonEmpty(r.Name, defaultRecName)
	name = whitespaceRE.ReplaceAllString(name, "-")
	name = unsafeNameRE.ReplaceAllString(name, "")
	name = strings.TrimLeft(name, ".")
	if name == "" {
		name = defaultRecName
	}
	return fmt.Sprintf("%s-%s.json", r.ID, name)
}

// WriteRecordFile writes r once into dir as an audit copy and returns the file
// name. The aggregate store stays authoritative; this file is never rewritten,
// so an existing file with the same name is an error.
func WriteRecordFile(dir string, r *domain.Review) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create record dir %s: %w", dir, err)
	}
	name := RecordFileName(r)
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode record %s: %w", r.ID, err)
	}

	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("create record file %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", fmt.Errorf("write record file %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return "", fmt.Errorf("fsync record file %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close record file %s: %w", path, err)
	}
	return name, nil
}
