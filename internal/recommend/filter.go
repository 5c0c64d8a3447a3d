package recommend

import (
	"time"

	"github.com/redink/recommender/internal/database"
)

// Named scenario filters over the analyzed corpus.
const (
	ScenarioBeginner = "beginner"
	ScenarioTrending = "trending"
	ScenarioQuality  = "quality"
)

const trendingWindow = 30 * 24 * time.Hour

// ValidScenario reports whether name is one of the supported scenario
// filters. The empty string means no scenario filter.
func ValidScenario(name string) bool {
	switch name {
	case "", ScenarioBeginner, ScenarioTrending, ScenarioQuality:
		return true
	}
	return false
}

// filterCandidates narrows the corpus by exact category match and the
// named scenario. Filters compose by AND. An empty result is valid.
func filterCandidates(recs []*database.Record, category, scenario string, now time.Time) []*database.Record {
	var out []*database.Record
	for _, rec := range recs {
		if category != "" && rec.Industry != category {
			continue
		}
		if !matchesScenario(rec, scenario, now) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func matchesScenario(rec *database.Record, scenario string, now time.Time) bool {
	switch scenario {
	case ScenarioBeginner:
		return rec.FollowerCount < 10000 && rec.Metrics.TotalEngagement > 1000
	case ScenarioTrending:
		if rec.PublishedAt == nil {
			return false
		}
		published, err := time.Parse(time.RFC3339, *rec.PublishedAt)
		if err != nil {
			return false
		}
		return now.Sub(published) <= trendingWindow
	case ScenarioQuality:
		return rec.Metrics.SaveRatio > 0.10
	}
	return true
}
