// Package llmjson recovers a JSON object from free-form model output.
package llmjson

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"finsight/pkg/errors"
)

var fencePattern = regexp.MustCompile("(?i)```(?:json)?")

// Sanitize strips code fences and surrounding prose from raw, extracts the JSON object and
// returns it compacted. Failures are *errors.ParseFailure carrying raw.
//
// The object span is the greedy first-'{' to last-'}' range. When that span is not valid JSON
// (prose containing a stray brace after the object) the first balanced, string-aware span is
// tried instead.
func Sanitize(raw string) (json.RawMessage, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, errors.NewParseFailure("", "empty response", raw)
	}

	text = strings.TrimSpace(fencePattern.ReplaceAllString(text, ""))

	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return nil, errors.NewParseFailure("", "no JSON object found", raw)
	}

	candidates := []string{text[start : end+1]}
	if balanced, ok := balancedSpan(text[start:]); ok && balanced != candidates[0] {
		candidates = append(candidates, balanced)
	}

	for _, candidate := range candidates {
		if obj, ok := compactObject(candidate); ok {
			return obj, nil
		}
		if fixed := unescapeArtifacts(candidate); fixed != candidate {
			if obj, ok := compactObject(fixed); ok {
				return obj, nil
			}
		}
	}

	return nil, errors.NewParseFailure("", "invalid JSON object", raw)
}

func compactObject(candidate string) (json.RawMessage, bool) {
	if !gjson.Valid(candidate) || !gjson.Parse(candidate).IsObject() {
		return nil, false
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(candidate)); err != nil {
		return nil, false
	}
	return json.RawMessage(buf.Bytes()), true
}

// unescapeArtifacts undoes markdown escaping models add around identifiers.
// An underscore after an odd run of backslashes is an illegal JSON escape, so the last
// backslash of the run is dropped. "\\_" (escaped backslash, then underscore) stays as is.
func unescapeArtifacts(s string) string {
	if !strings.Contains(s, `\_`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	run := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\':
			run++
			continue
		case c == '_' && run%2 == 1:
			run--
		}
		b.WriteString(strings.Repeat(`\`, run))
		run = 0
		b.WriteByte(c)
	}
	b.WriteString(strings.Repeat(`\`, run))
	return b.String()
}

// balancedSpan returns the prefix of s (which starts with '{') up to the matching '}',
// ignoring braces inside string literals.
func balancedSpan(s string) (string, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}

	return "", false
}
