// Package scoring computes lexical match scores, the AI semantic final
// score, and the match-level bucketing shared across the ranking pipeline.
package scoring

import (
	"math"
	"strings"

	"github.com/redink/recommender/internal/config"
	"github.com/redink/recommender/internal/database"
)

// Breakdown holds the per-component contributions to a lexical score.
type Breakdown struct {
	Keyword     float64 `json:"keyword"`
	Similarity  float64 `json:"similarity"`
	Performance float64 `json:"performance"`
	Category    float64 `json:"category"`
}

// Scorer computes the lexical (admission) score for a topic/record pair.
type Scorer struct {
	cfg config.Scoring
}

// NewScorer creates a scorer with the given weights.
func NewScorer(cfg config.Scoring) *Scorer {
	cfg.ApplyDefaults()
	return &Scorer{cfg: cfg}
}

// Score returns the bounded match score in [0,1] and its breakdown.
// originalKeywords is the pre-expansion list; its length is the keyword
// denominator so that synonym expansion widens recall without diluting
// the achievable score.
func (s *Scorer) Score(topic string, originalKeywords, expandedKeywords []string, rec *database.Record) (float64, Breakdown) {
	title := strings.ToLower(rec.Title)
	body := strings.ToLower(rec.Content)

	var b Breakdown

	// Keyword component: title hits weigh more than body hits.
	var hits float64
	for _, kw := range expandedKeywords {
		switch {
		case strings.Contains(title, kw):
			hits += s.cfg.TitleKeywordWeight
		case strings.Contains(body, kw):
			hits += s.cfg.BodyKeywordWeight
		}
	}
	denom := len(originalKeywords)
	if denom == 0 {
		denom = len(expandedKeywords)
	}
	if denom > 0 {
		b.Keyword = math.Min(hits/float64(denom)*s.cfg.KeywordCap, s.cfg.KeywordCap)
	}

	// Similarity component: whole-topic title match plus per-keyword body
	// presence, clamped at the cap.
	var sim float64
	if strings.Contains(title, strings.ToLower(topic)) {
		sim += s.cfg.TopicInTitleBonus
	}
	for _, kw := range expandedKeywords {
		if strings.Contains(body, kw) {
			sim += s.cfg.BodyKeywordBonus
		}
	}
	b.Similarity = math.Min(sim, s.cfg.SimilarityCap)

	// Performance component: linear ramp on engagement.
	engagement := float64(rec.Metrics.TotalEngagement)
	b.Performance = math.Min(engagement/s.cfg.EngagementCeiling*s.cfg.PerformanceCap, s.cfg.PerformanceCap)

	// Category bonus only when keywords already matched; a category label
	// alone must never rescue an irrelevant record.
	if rec.Industry != "" && b.Keyword > 0 {
		b.Category = s.cfg.CategoryBonus
	}

	total := round2(b.Keyword + b.Similarity + b.Performance + b.Category)
	return total, b
}

// Level buckets a normalized score in [0,1] into a match level.
func (s *Scorer) Level(normalized float64) MatchLevel {
	switch {
	case normalized >= s.cfg.HighThreshold:
		return MatchHigh
	case normalized >= s.cfg.MediumThreshold:
		return MatchMedium
	default:
		return MatchLow
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
