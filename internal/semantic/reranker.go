// Package semantic reorders lexically-ranked candidates with AI-assigned
// relevance scores, caching results per (topic, record).
package semantic

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/redink/recommender/internal/database"
	"github.com/redink/recommender/internal/llm"
	"github.com/redink/recommender/internal/scoring"
)

// Candidate is a lexically-scored record entering the rerank stage.
// MatchScore is the normalized 0-1 lexical score.
type Candidate struct {
	Record     *database.Record
	MatchScore float64
}

// Ranked is a candidate after semantic reranking. Scores is nil when the
// AI could not score this record and the lexical fallback was used.
type Ranked struct {
	Candidate
	Scores     *scoring.SemanticScores
	FinalScore float64
}

// Reranker batches uncached candidates into one AI scoring call and
// merges the result with cached scores.
type Reranker struct {
	db          *database.DB
	provider    llm.Provider
	logger      *zap.Logger
	temperature float64
	maxTokens   int
	timeout     time.Duration
	ttl         time.Duration
}

func NewReranker(db *database.DB, provider llm.Provider, logger *zap.Logger, temperature float64, maxTokens int, timeout, ttl time.Duration) *Reranker {
	return &Reranker{
		db:          db,
		provider:    provider,
		logger:      logger,
		temperature: temperature,
		maxTokens:   maxTokens,
		timeout:     timeout,
		ttl:         ttl,
	}
}

// Rerank scores each candidate semantically and returns the list sorted
// by final score descending. It never fails: any candidate the AI cannot
// score falls back to matchScore*10 individually.
func (r *Reranker) Rerank(ctx context.Context, topic string, candidates []Candidate) []Ranked {
	cached := make(map[string]scoring.SemanticScores, len(candidates))
	var uncached []*database.Record
	for _, c := range candidates {
		entry, err := r.db.GetSemanticScore(topic, c.Record.RecordID, r.ttl)
		if err != nil {
			r.logger.Warn("semantic cache read failed, treating as miss",
				zap.String("record_id", c.Record.RecordID), zap.Error(err))
		}
		if entry != nil {
			cached[c.Record.RecordID] = scoring.SemanticScores{
				TopicRelevance:   entry.TopicRelevance,
				AudienceMatch:    entry.AudienceMatch,
				StyleFit:         entry.StyleFit,
				PerformanceBonus: entry.PerformanceBonus,
			}
			continue
		}
		uncached = append(uncached, c.Record)
	}

	fresh := r.scoreBatch(ctx, topic, uncached)
	for id, scores := range fresh {
		cached[id] = scores
	}

	ranked := make([]Ranked, 0, len(candidates))
	for _, c := range candidates {
		if scores, ok := cached[c.Record.RecordID]; ok {
			clamped := scores.Clamped()
			ranked = append(ranked, Ranked{
				Candidate:  c,
				Scores:     &clamped,
				FinalScore: scoring.FinalScore(clamped),
			})
			continue
		}
		// Degraded ranking: no semantic signal for this record.
		ranked = append(ranked, Ranked{
			Candidate:  c,
			FinalScore: c.MatchScore * 10,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].FinalScore > ranked[j].FinalScore
	})
	return ranked
}

// scoreItem carries the per-record scores the AI returns. The dimension
// keys in the wire format are Chinese.
type scoreItem struct {
	RecordID         string  `json:"record_id"`
	TopicRelevance   float64 `json:"主题相关度"`
	AudienceMatch    float64 `json:"目标用户匹配度"`
	StyleFit         float64 `json:"内容风格适配性"`
	PerformanceBonus float64 `json:"数据表现加分"`
}

// scoreBatch issues one AI call for all uncached records and persists
// whatever it gets back. Records the AI omits are simply absent from the
// result. Returns an empty map on any call or parse failure.
func (r *Reranker) scoreBatch(ctx context.Context, topic string, recs []*database.Record) map[string]scoring.SemanticScores {
	if len(recs) == 0 || r.provider == nil {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	response, err := r.provider.Generate(callCtx, buildPrompt(topic, recs), r.temperature, r.maxTokens)
	if err != nil {
		r.logger.Warn("semantic scoring call failed, falling back to lexical scores",
			zap.String("topic", topic), zap.Int("candidates", len(recs)), zap.Error(err))
		return nil
	}

	var parsed struct {
		Scores []scoreItem `json:"scores"`
	}
	if err := json.Unmarshal([]byte(llm.ExtractJSON(response)), &parsed); err != nil {
		r.logger.Warn("semantic scoring response unparseable",
			zap.String("topic", topic), zap.Error(err))
		return nil
	}

	wanted := make(map[string]bool, len(recs))
	for _, rec := range recs {
		wanted[rec.RecordID] = true
	}

	out := make(map[string]scoring.SemanticScores, len(parsed.Scores))
	for _, item := range parsed.Scores {
		if !wanted[item.RecordID] {
			continue
		}
		scores := scoring.SemanticScores{
			TopicRelevance:   item.TopicRelevance,
			AudienceMatch:    item.AudienceMatch,
			StyleFit:         item.StyleFit,
			PerformanceBonus: item.PerformanceBonus,
		}.Clamped()
		out[item.RecordID] = scores

		if err := r.db.UpsertSemanticScore(&database.SemanticScoreEntry{
			Topic:            topic,
			RecordID:         item.RecordID,
			TopicRelevance:   scores.TopicRelevance,
			AudienceMatch:    scores.AudienceMatch,
			StyleFit:         scores.StyleFit,
			PerformanceBonus: scores.PerformanceBonus,
			FinalScore:       scoring.FinalScore(scores),
		}); err != nil {
			r.logger.Warn("semantic cache write failed",
				zap.String("record_id", item.RecordID), zap.Error(err))
		}
	}

	if len(out) < len(recs) {
		r.logger.Warn("semantic scoring response omitted records",
			zap.Int("requested", len(recs)), zap.Int("scored", len(out)))
	}
	return out
}
