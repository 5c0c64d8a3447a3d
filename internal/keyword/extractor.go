// Package keyword turns free-text topics into ranked keyword sets and
// expands them with persisted or AI-generated synonyms.
package keyword

import (
	"sort"
	"strings"
)

// stopwords are never emitted as keywords.
var stopwords = map[string]struct{}{
	"的": {}, "了": {}, "是": {}, "在": {}, "有": {},
	"和": {}, "与": {}, "等": {}, "一": {}, "个": {},
	"怎么": {}, "如何": {},
}

const maxKeywords = 10

// Extractor extracts candidate keywords from arbitrary UTF-8 text.
type Extractor struct{}

// NewExtractor creates a keyword extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns up to 10 candidate substrings ranked by frequency.
// Candidates are every contiguous 2-, 3- and 4-rune window over the
// lowercased text, minus stopwords. Ties keep first-seen order. Empty
// input yields an empty list.
func (e *Extractor) Extract(text string) []string {
	runes := []rune(strings.ToLower(text))

	counts := map[string]int{}
	var order []string
	for i := range runes {
		for _, length := range []int{2, 3, 4} {
			if i+length > len(runes) {
				continue
			}
			word := string(runes[i : i+length])
			if strings.TrimSpace(word) == "" {
				continue
			}
			if _, stop := stopwords[word]; stop {
				continue
			}
			if _, seen := counts[word]; !seen {
				order = append(order, word)
			}
			counts[word]++
		}
	}

	sort.SliceStable(order, func(a, b int) bool {
		return counts[order[a]] > counts[order[b]]
	})

	if len(order) > maxKeywords {
		order = order[:maxKeywords]
	}
	return order
}
