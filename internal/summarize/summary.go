// Package summarize produces short developer-facing summaries of code
// chunks through a language-model backend, with caching and a
// deterministic fallback when the backend keeps failing.
package summarize

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// Summary is the structured record returned for one chunk of code.
type Summary struct {
	OneLiner      string `json:"one_liner" yaml:"one_liner"`
	Description   string `json:"description" yaml:"description"`
	InputsOutputs Lines  `json:"inputs_outputs" yaml:"inputs_outputs"`
	Docstring     string `json:"docstring" yaml:"docstring"`
	Notes         string `json:"notes" yaml:"notes"`
}

// Lines is a list of strings that also accepts a single JSON string or
// null when decoding, since models are loose about the field's shape.
type Lines []string

func (l *Lines) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		if list == nil {
			list = []string{}
		}
		*l = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*l = []string{}
		return nil
	}
	*l = []string{s}
	return nil
}

// Status tells whether a summary came from the backend or the fallback.
type Status string

const (
	Success  Status = "success"
	Degraded Status = "degraded"
)

// Result pairs a summary with how it was obtained. Reason is set when
// Status is Degraded.
type Result struct {
	Summary Summary `json:"summary"`
	Status  Status  `json:"status"`
	Reason  string  `json:"reason,omitempty"`
}

const (
	fallbackDescription = "Auto-generated fallback summary."
	fallbackNotes       = "fallback used"
	fallbackWidth       = 80
	maxKeyLen           = 200
)

// Fallback builds the heuristic summary used when the backend is
// exhausted: the first non-empty line of text, cut to 80 characters.
func Fallback(text string) Summary {
	return Summary{
		OneLiner:      truncateRunes(firstLine(text), fallbackWidth),
		Description:   fallbackDescription,
		InputsOutputs: []string{},
		Docstring:     "",
		Notes:         fallbackNotes,
	}
}

// IsFallback reports whether s was produced by Fallback.
func IsFallback(s Summary) bool {
	return s.Description == fallbackDescription && s.Notes == fallbackNotes
}

func firstLine(text string) string {
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// SanitizeKey maps a cache key to a safe document name: slashes and
// spaces become underscores and the result is capped at 200 bytes.
func SanitizeKey(key string) string {
	safe := strings.NewReplacer("/", "_", " ", "_").Replace(key)
	if len(safe) <= maxKeyLen {
		return safe
	}
	safe = safe[:maxKeyLen]
	// Don't leave a split rune at the end.
	for !utf8.ValidString(safe) {
		safe = safe[:len(safe)-1]
	}
	return safe
}

func parseSummary(raw string) (Summary, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var s Summary
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &s); err != nil {
		return Summary{}, err
	}
	if s.InputsOutputs == nil {
		s.InputsOutputs = []string{}
	}
	return s, nil
}
