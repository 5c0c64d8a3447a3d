package scoring

import "math"

// Final-score weights over the four AI dimensions.
const (
	topicRelevanceWeight   = 0.4
	audienceMatchWeight    = 0.3
	styleFitWeight         = 0.2
	performanceBonusWeight = 0.1
)

// SemanticScores are the four AI-assigned dimensions. The first three are
// 0-10, the performance bonus is 0-5.
type SemanticScores struct {
	TopicRelevance   float64 `json:"topic_relevance"`
	AudienceMatch    float64 `json:"audience_match"`
	StyleFit         float64 `json:"style_fit"`
	PerformanceBonus float64 `json:"performance_bonus"`
}

// Clamped returns a copy with each dimension forced into its valid range.
// AI responses are never trusted to stay in range.
func (s SemanticScores) Clamped() SemanticScores {
	return SemanticScores{
		TopicRelevance:   clamp(s.TopicRelevance, 0, 10),
		AudienceMatch:    clamp(s.AudienceMatch, 0, 10),
		StyleFit:         clamp(s.StyleFit, 0, 10),
		PerformanceBonus: clamp(s.PerformanceBonus, 0, 5),
	}
}

// FinalScore computes the weighted final score in [0,10], rounded to two
// decimals. Always recomputed from the dimensions; never taken from
// upstream input.
func FinalScore(s SemanticScores) float64 {
	s = s.Clamped()
	return round2(s.TopicRelevance*topicRelevanceWeight +
		s.AudienceMatch*audienceMatchWeight +
		s.StyleFit*styleFitWeight +
		s.PerformanceBonus*performanceBonusWeight)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
