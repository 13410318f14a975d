package ai

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

var (
	summaryRE  = regexp.MustCompile(`(?i)Summary:\s*(.*)`)
	tagsRE     = regexp.MustCompile(`(?i)Tags:\s*\[([^\]]*)\]`)
	headlineRE = regexp.MustCompile(`(?i)Headline:\s*(.*)`)
	draftRE    = regexp.MustCompile(`(?i)Review:\s*(.*)`)
)

// Summary is the structured result of a summarize completion.
type Summary struct {
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
}

// Assist is the structured result of a writing-assistance completion.
type Assist struct {
	Headline string `json:"headlineSuggestion"`
	Draft    string `json:"reviewDraft"`
}

// SummaryPrompt asks for a one sentence summary plus up to three tags.
func SummaryPrompt(text string) string {
	return fmt.Sprintf(`Summarize the following review in one sentence, and suggest up to 3 descriptive tags based on tone or content. Format the response as:

Summary: ...
Tags: [tag1, tag2, tag3]

Review:
%s`, text)
}

// AssistPrompt asks for a review headline and a short draft.
func AssistPrompt(name, jobTitle, organization string) string {
	return fmt.Sprintf(`You are an assistant helping someone write a review. Based on the following inputs, generate a compelling review headline and a 2-3 sentence review draft.

Name: %s
Job Title: %s
Organization: %s

Format your response as:
Headline: ...
Review: ...`,
		orDefault(name, "Anonymous"),
		orDefault(jobTitle, "Member"),
		orDefault(organization, "the community"))
}

// ParseSummary extracts the "Summary:" line and the bracketed "Tags:" list.
// Missing parts come back empty. Tags are trimmed, unquoted, and
// de-duplicated case-insensitively keeping the first spelling.
func ParseSummary(output string) Summary {
	out := Summary{Tags: []string{}}
	if m := summaryRE.FindStringSubmatch(output); m != nil {
		out.Summary = strings.TrimSpace(m[1])
	}
	m := tagsRE.FindStringSubmatch(output)
	if m == nil {
		return out
	}
	fold := cases.Fold()
	seen := make(map[string]struct{})
	for _, raw := range strings.Split(m[1], ",") {
		tag := strings.Trim(strings.TrimSpace(raw), `"'`)
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := fold.String(tag)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out.Tags = append(out.Tags, tag)
	}
	return out
}

// ParseAssist extracts the "Headline:" and "Review:" lines.
func ParseAssist(output string) Assist {
	var out Assist
	if m := headlineRE.FindStringSubmatch(output); m != nil {
		out.Headline = strings.TrimSpace(m[1])
	}
	if m := draftRE.FindStringSubmatch(output); m != nil {
		out.Draft = strings.TrimSpace(m[1])
	}
	return out
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
