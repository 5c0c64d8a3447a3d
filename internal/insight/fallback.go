package insight

import (
	"regexp"
	"strings"

	"github.com/redink/recommender/internal/database"
)

const (
	maxReasonRunes  = 30
	maxElementRunes = 15
	maxReasons      = 3
)

var reasonPatterns = []*regexp.Regexp{
	regexp.MustCompile(`推荐理由\d*[：:]\s*([^\n]+)`),
	regexp.MustCompile(`(?i)recommend_reasons?\d*[：:]\s*([^\n]+)`),
	regexp.MustCompile(`为什么[：:]\s*([^\n]+)`),
}

var elementPatterns = map[string][]*regexp.Regexp{
	"hook": {
		regexp.MustCompile(`钩子\d*[：:]\s*([^\n]+)`),
		regexp.MustCompile(`(?i)hook\d*[：:]\s*([^\n]+)`),
	},
	"structure": {
		regexp.MustCompile(`结构\d*[：:]\s*([^\n]+)`),
		regexp.MustCompile(`(?i)structure\d*[：:]\s*([^\n]+)`),
	},
	"tone": {
		regexp.MustCompile(`风格\d*[：:]\s*([^\n]+)`),
		regexp.MustCompile(`(?i)tone\d*[：:]\s*([^\n]+)`),
	},
	"cta": {
		regexp.MustCompile(`互动\d*[：:]\s*([^\n]+)`),
		regexp.MustCompile(`(?i)cta\d*[：:]\s*([^\n]+)`),
	},
}

// genericReasons are emitted when nothing can be extracted from the
// response text. Ranking must still surface something readable.
var genericReasons = []string{
	"内容质量高，结构清晰",
	"数据表现优秀，值得学习",
}

// fallbackExtract scans unstructured response text for labeled lines and
// assembles a best-effort insight. Used when the strict JSON parse fails.
func fallbackExtract(response string) ([]string, *database.LearnableElements) {
	var reasons []string
	for _, pat := range reasonPatterns {
		for _, m := range pat.FindAllStringSubmatch(response, -1) {
			reason := truncateRunes(strings.TrimSpace(m[1]), maxReasonRunes)
			if reason != "" && len(reasons) < maxReasons {
				reasons = append(reasons, reason)
			}
		}
	}

	elements := &database.LearnableElements{}
	targets := map[string]*string{
		"hook":      &elements.Hook,
		"structure": &elements.Structure,
		"tone":      &elements.Tone,
		"cta":       &elements.CTA,
	}
	for key, pats := range elementPatterns {
		for _, pat := range pats {
			if m := pat.FindStringSubmatch(response); m != nil {
				*targets[key] = truncateRunes(strings.TrimSpace(m[1]), maxElementRunes)
				break
			}
		}
	}

	if len(reasons) == 0 {
		reasons = append([]string(nil), genericReasons...)
	}
	return reasons, elements
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
