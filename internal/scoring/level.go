package scoring

// MatchLevel is the coarse display bucket for a score. The canonical
// thresholds are high >= 0.65 and medium >= 0.40 on the normalized score.
type MatchLevel string

const (
	MatchHigh   MatchLevel = "high"
	MatchMedium MatchLevel = "medium"
	MatchLow    MatchLevel = "low"
)

// Display returns the user-facing label for the level.
func (l MatchLevel) Display() string {
	switch l {
	case MatchHigh:
		return "🔥 高度匹配"
	case MatchMedium:
		return "📌 相关推荐"
	default:
		return "💡 可能相关"
	}
}
