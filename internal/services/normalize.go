package services

import (
	"sort"
	"strings"
	"time"

	"github.com/tbourn/go-review-wall/internal/domain"
)

const socialPrefix = "social_"

// Flatten collapses single-valued form fields to a string and keeps
// multi-valued fields as []string. Fields with no values become "".
func Flatten(form map[string][]string) map[string]any {
	out := make(map[string]any, len(form))
	for k, vs := range form {
		switch len(vs) {
		case 0:
			out[k] = ""
		case 1:
			out[k] = vs[0]
		default:
			out[k] = append([]string(nil), vs...)
		}
	}
	return out
}

// MultiValued returns the sorted names of fields that arrived more than once.
func MultiValued(form map[string][]string) []string {
	var out []string
	for k, v := range Flatten(form) {
		if _, ok := v.([]string); ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Normalize maps submitted form fields onto a Review. It never fails: absent
// or blank optional fields become nil and the record is stamped with now.
// Record fields are scalars, so a repeated field keeps its first value.
// The id is left empty for the caller to assign.
func Normalize(form map[string][]string, now time.Time) *domain.Review {
	f := Flatten(form)
	r := &domain.Review{
		Name:          scalar(f, "name"),
		Review:        scalar(f, "review"),
		Phone:         optional(f, "phone"),
		Email:         optional(f, "email"),
		Location:      optional(f, "location"),
		JobTitle:      optional(f, "jobTitle"),
		Organization:  optional(f, "organization"),
		Social:        social(f),
		VideoURL:      optional(f, "videoUrl"),
		Consent:       scalar(f, "consent") == "true",
		PrivateSubmit: scalar(f, "privateSubmit") == "true",
		Timestamp:     now.UTC().Truncate(time.Millisecond),
		UserAgent:     optional(f, "userAgent"),
		Timezone:      optional(f, "timezone"),
		LocalTime:     optional(f, "localTime"),
		ScreenSize:    optional(f, "screenSize"),
		Referrer:      optional(f, "referrer"),
	}
	return r
}

func scalar(f map[string]any, key string) string {
	switch v := f[key].(type) {
	case string:
		return v
	case []string:
		return v[0]
	}
	return ""
}

func optional(f map[string]any, key string) *string {
	v := scalar(f, key)
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}

func social(f map[string]any) map[string]string {
	out := map[string]string{}
	for k := range f {
		if !strings.HasPrefix(k, socialPrefix) {
			continue
		}
		platform := strings.TrimPrefix(k, socialPrefix)
		v := strings.TrimSpace(scalar(f, k))
		if platform == "" || v == "" {
			continue
		}
		out[platform] = v
	}
	return out
}
