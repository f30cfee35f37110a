package llm

import (
	"fmt"
	"strings"
)

// ExtractJSON pulls a JSON object out of a model response. Models asked
// for JSON still sometimes wrap it in markdown fences or prose, so the
// text between the first '{' and its matching '}' is taken.
func ExtractJSON(text string) (string, error) {
	text = stripFences(strings.TrimSpace(text))

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", fmt.Errorf("llm: no JSON object in response")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("llm: unbalanced JSON object in response")
}

// stripFences removes a surrounding markdown code fence, with or
// without a language tag.
func stripFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		// Drop the language tag line ("json", "JSON", or empty).
		first := strings.TrimSpace(text[:i])
		if len(first) <= 8 && !strings.ContainsAny(first, "{}") {
			text = text[i+1:]
		}
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
