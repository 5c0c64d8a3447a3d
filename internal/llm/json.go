package llm

import "strings"

// ExtractJSON pulls the JSON payload out of an LLM response. It prefers a
// fenced ```json block, then any fenced block, then the span from the first
// '{' to the last '}'. Returns the trimmed input when nothing better is
// found; callers unmarshal into their own typed structs and treat an
// unmarshal error as a parse failure.
func ExtractJSON(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	if block, ok := fencedBlock(text, "```json"); ok {
		return block
	}
	if block, ok := fencedBlock(text, "```"); ok {
		return block
	}

	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start >= 0 && end > start {
		return text[start : end+1]
	}

	return text
}

// fencedBlock returns the content between the first occurrence of marker
// and the next closing fence.
func fencedBlock(text, marker string) (string, bool) {
	start := strings.Index(text, marker)
	if start < 0 {
		return "", false
	}
	rest := text[start+len(marker):]
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}
