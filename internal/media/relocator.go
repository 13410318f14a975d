// Package media moves uploaded payloads into the public upload directory.
//
// Uploads are first streamed into a staging directory that lives inside the
// upload directory (same filesystem), then renamed to their final
// "{stamp}-{safeBase}.{ext}" name. A record may only reference a file after
// Relocate has returned, so a referenced file is always complete on disk.
package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

var (
	// ErrUploadIncomplete is returned when there is no payload to relocate,
	// either because none was sent or because the client went away mid-stream.
	ErrUploadIncomplete = errors.New("upload incomplete")

	// ErrRelocationFailed is returned when the payload could not be moved into
	// the upload directory.
	ErrRelocationFailed = errors.New("relocation failed")
)

// Kind selects how the stored extension is chosen. Documents keep the
// client's extension; recordings take theirs from the sniffed container
// format only.
type Kind string

const (
	KindVideo    Kind = "video"
	KindAudio    Kind = "audio"
	KindDocument Kind = "document"
)

// IsMedia reports whether k is a recording.
func (k Kind) IsMedia() bool { return k == KindVideo || k == KindAudio }

// DefaultExt is the extension used when the payload type can not be
// determined.
func (k Kind) DefaultExt() string {
	switch k {
	case KindVideo, KindAudio:
		return "webm"
	default:
		return "bin"
	}
}

// KindFromContentType maps a multipart Content-Type to a media kind.
// Anything that is not audio/* is treated as video.
func KindFromContentType(ct string) Kind {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(ct)), "audio/") {
		return KindAudio
	}
	return KindVideo
}

// StampFunc returns the unique prefix of a relocated file name.
type StampFunc func() string

// Relocated describes a payload after it was moved into the upload directory.
type Relocated struct {
	Name string // final file name
	Path string // absolute or config-relative path on disk
	URL  string // public URL under the uploads prefix
}

var (
	nonWordRE = regexp.MustCompile(`\W+`)
	extRE     = regexp.MustCompile(`^\w{1,16}$`)
)

// mediaExts maps sniffed container extensions to the stored one.
var mediaExts = map[string]string{
	"webm": "webm",
	"mp4":  "mp4",
	"m4a":  "m4a",
	"mp3":  "mp3",
	"wav":  "wav",
	"ogg":  "ogg",
	"oga":  "ogg",
	"ogv":  "ogg",
	"ogx":  "ogg",
}

// mediaTypes are the Content-Types recordings are served with.
var mediaTypes = map[string]string{
	"webm": "video/webm",
	"mp4":  "video/mp4",
	"m4a":  "audio/mp4",
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"ogg":  "audio/ogg",
}

// MediaContentType returns the Content-Type of a stored recording extension
// (with or without dot) and whether ext is a recording container at all.
func MediaContentType(ext string) (string, bool) {
	ct, ok := mediaTypes[strings.ToLower(strings.TrimPrefix(ext, "."))]
	return ct, ok
}

var relocations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "media_relocations_total",
		Help: "Relocated uploads by kind and result.",
	},
	[]string{"kind", "result"},
)

func init() {
	prometheus.MustRegister(relocations)
}

// Relocator stages and relocates upload payloads. It is safe for concurrent
// use; every staged payload gets its own temp file.
type Relocator struct {
	uploadDir string
	tmpDir    string
	urlPrefix string
	stamp     StampFunc
	log       zerolog.Logger
}

// NewRelocator returns a relocator writing into uploadDir and publishing files
// under urlPrefix. A nil stamp uses the wall clock in milliseconds.
func NewRelocator(uploadDir, urlPrefix string, stamp StampFunc, lg zerolog.Logger) *Relocator {
	if stamp == nil {
		stamp = func() string { return strconv.FormatInt(time.Now().UnixMilli(), 10) }
	}
	return &Relocator{
		uploadDir: uploadDir,
		tmpDir:    filepath.Join(uploadDir, ".tmp"),
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
		stamp:     stamp,
		log:       lg.With().Str("component", "relocator").Logger(),
	}
}

// UploadDir returns the directory relocated files end up in.
func (r *Relocator) UploadDir() string { return r.uploadDir }

// TempDir returns the staging directory.
func (r *Relocator) TempDir() string { return r.tmpDir }

// Stage streams src into a fresh temp file and returns its path. A read error
// or an empty payload removes the partial file and yields ErrUploadIncomplete.
func (r *Relocator) Stage(src io.Reader) (string, error) {
	if src == nil {
		return "", ErrUploadIncomplete
	}
	if err := os.MkdirAll(r.tmpDir, 0o750); err != nil {
		return "", fmt.Errorf("%w: create temp dir: %v", ErrRelocationFailed, err)
	}
	tmp := filepath.Join(r.tmpDir, uuid.NewString()+".part")
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("%w: create temp file: %v", ErrRelocationFailed, err)
	}

	n, err := io.Copy(f, src)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("%w: %v", ErrUploadIncomplete, err)
	}
	if n == 0 {
		os.Remove(tmp)
		return "", ErrUploadIncomplete
	}
	return tmp, nil
}

// Relocate moves the staged file at tmpPath into the upload directory under
// "{stamp}-{safeBase}.{ext}". The temp file no longer exists after success.
//
// For video and audio the client's extension is ignored: ext is the sniffed
// container when it is a known recording format and kind.DefaultExt otherwise.
func (r *Relocator) Relocate(tmpPath, originalName string, kind Kind) (_ *Relocated, err error) {
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}
		relocations.WithLabelValues(string(kind), result).Inc()
	}()

	if tmpPath == "" {
		return nil, ErrUploadIncomplete
	}
	if _, err := os.Stat(tmpPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadIncomplete, err)
	}

	stamp := r.stamp()
	base, ext := splitName(originalName)
	if base == "" {
		base = "upload-" + stamp
	}
	switch {
	case kind.IsMedia():
		ext = mediaExts[sniffExt(tmpPath)]
	case ext == "":
		ext = sniffExt(tmpPath)
	}
	if ext == "" {
		ext = kind.DefaultExt()
	}
	name := fmt.Sprintf("%s-%s.%s", stamp, base, ext)

	if err := os.MkdirAll(r.uploadDir, 0o750); err != nil {
		return nil, fmt.Errorf("%w: create upload dir: %v", ErrRelocationFailed, err)
	}
	dst := filepath.Join(r.uploadDir, name)
	if err := os.Rename(tmpPath, dst); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRelocationFailed, err)
	}

	r.log.Debug().Str("name", name).Str("kind", string(kind)).Msg("upload relocated")
	return &Relocated{
		Name: name,
		Path: dst,
		URL:  r.urlPrefix + "/" + name,
	}, nil
}

// splitName returns the sanitized stem (case kept) and the lowercased
// extension of a client-supplied file name.
func splitName(original string) (base, ext string) {
	original = strings.ReplaceAll(original, `\`, "/")
	name := filepath.Base(original)
	if name == "." || name == "/" {
		return "", ""
	}
	e := filepath.Ext(name)
	stem := strings.TrimSuffix(name, e)
	if stem == "" {
		// ".bashrc" style names have no extension, only a stem.
		stem, e = name, ""
	}

	e = strings.ToLower(strings.TrimPrefix(e, "."))
	if !extRE.MatchString(e) {
		e = ""
	}
	base = nonWordRE.ReplaceAllString(stem, "-")
	if strings.Trim(base, "-") == "" {
		base = ""
	}
	return base, e
}

func sniffExt(path string) string {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(mt.Extension(), ".")
}
