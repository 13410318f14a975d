// Package domain defines the persisted review record and the small value
// types shared by the repository, service, and HTTP layers. Field names in the
// JSON tags are the on-disk and on-the-wire names of the aggregate file.
package domain

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Review is one testimonial submission plus its mutable enrichment fields.
//
// Fields:
//   - ID: decimal millisecond id, assigned once at creation and never changed.
//   - Name / Review: the submitter's name and testimonial text.
//   - Phone, Email, Location, JobTitle, Organization: optional contact and
//     profile fields; nil is persisted as null.
//   - Social: platform name → handle/URL; always an object, never null.
//   - Document / DocumentURL: stored name and public URL of an attached document.
//   - VideoURL: public URL of a previously uploaded recording.
//   - Consent / PrivateSubmit: publication flags (see IsPublic).
//   - Timestamp: normalization instant, UTC with millisecond precision.
//   - UserAgent … Referrer: advisory client telemetry.
//   - Likes: non-negative counter, only ever incremented.
//   - Summary / Tags: AI enrichment, absent until applied.
type Review struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Review string `json:"review"`

	Phone        *string `json:"phone"`
	Email        *string `json:"email"`
	Location     *string `json:"location"`
	JobTitle     *string `json:"jobTitle"`
	Organization *string `json:"organization"`

	Social map[string]string `json:"social"`

	Document    *string `json:"document"`
	DocumentURL *string `json:"documentUrl"`
	VideoURL    *string `json:"videoUrl"`

	Consent       bool      `json:"consent"`
	PrivateSubmit bool      `json:"privateSubmit"`
	Timestamp     time.Time `json:"timestamp"`

	UserAgent  *string `json:"userAgent"`
	Timezone   *string `json:"timezone"`
	LocalTime  *string `json:"localTime"`
	ScreenSize *string `json:"screenSize"`
	Referrer   *string `json:"referrer"`

	Likes   int      `json:"likes"`
	Summary *string  `json:"summary,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

// IsPublic reports whether the review may appear in a public projection.
// A private submission is never public, whatever its consent flag says.
func (r *Review) IsPublic() bool {
	return r.Consent && !r.PrivateSubmit
}

// HasTag reports whether tag is one of the review's enrichment tags,
// ignoring case.
func (r *Review) HasTag(tag string) bool {
	fold := cases.Fold()
	want := fold.String(strings.TrimSpace(tag))
	for _, t := range r.Tags {
		if fold.String(t) == want {
			return true
		}
	}
	return false
}
