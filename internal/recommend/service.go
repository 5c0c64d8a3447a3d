// Package recommend runs the end-to-end recommendation pipeline over the
// analyzed-note corpus.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/redink/recommender/internal/config"
	"github.com/redink/recommender/internal/database"
	"github.com/redink/recommender/internal/insight"
	"github.com/redink/recommender/internal/keyword"
	"github.com/redink/recommender/internal/llm"
	"github.com/redink/recommender/internal/scoring"
	"github.com/redink/recommender/internal/semantic"
)

var (
	ErrEmptyTopic      = errors.New("topic must not be empty")
	ErrInvalidScenario = errors.New("unknown scenario")
	ErrRecordNotFound  = errors.New("record not found")
)

// Recommendation is one ranked result. SemanticScores is nil when the
// record was ranked on its lexical score alone.
type Recommendation struct {
	RecordID          string                      `json:"record_id"`
	Record            *database.Record            `json:"record"`
	MatchScore        float64                     `json:"match_score"`
	FinalScore        float64                     `json:"final_score"`
	SemanticScores    *scoring.SemanticScores     `json:"semantic_scores"`
	MatchLevel        scoring.MatchLevel          `json:"match_level"`
	MatchLevelDisplay string                      `json:"match_level_display"`
	RecommendReasons  []string                    `json:"recommend_reasons"`
	LearnableElements *database.LearnableElements `json:"learnable_elements"`
}

// Similar is one result of the lexical-only similar-record lookup.
type Similar struct {
	RecordID          string                      `json:"record_id"`
	Record            *database.Record            `json:"record"`
	MatchScore        float64                     `json:"match_score"`
	MatchLevel        scoring.MatchLevel          `json:"match_level"`
	MatchLevelDisplay string                      `json:"match_level_display"`
	RecommendReasons  []string                    `json:"recommend_reasons"`
	LearnableElements *database.LearnableElements `json:"learnable_elements"`
}

// Cache clear targets.
const (
	ClearAll     = "all"
	ClearExpired = "expired"
	ClearRecord  = "record"
)

// Service wires the pipeline stages together. Each request runs
// independently; the only shared mutable state lives in the database.
type Service struct {
	db        *database.DB
	logger    *zap.Logger
	cfg       config.Recommend
	extractor *keyword.Extractor
	expander  *keyword.Expander
	enricher  *insight.Enricher
	reranker  *semantic.Reranker
	scorer    *scoring.Scorer
	ttl       time.Duration

	now func() time.Time
}

// NewService builds a recommendation service from the loaded config.
// provider may be nil; all AI stages then degrade to their fallbacks.
func NewService(db *database.DB, provider llm.Provider, logger *zap.Logger, cfg *config.Config) *Service {
	ttl := time.Duration(cfg.Recommend.CacheTTLDays) * 24 * time.Hour
	ai := cfg.AI
	return &Service{
		db:        db,
		logger:    logger,
		cfg:       cfg.Recommend,
		extractor: keyword.NewExtractor(),
		expander: keyword.NewExpander(db, provider, logger, ai.Temperature, ai.MaxTokens,
			time.Duration(ai.SynonymTimeoutSeconds)*time.Second),
		enricher: insight.NewEnricher(db, provider, logger, ai.Temperature, ai.MaxTokens,
			time.Duration(ai.InsightTimeoutSeconds)*time.Second, ttl),
		reranker: semantic.NewReranker(db, provider, logger, ai.Temperature, ai.MaxTokens,
			time.Duration(ai.ScoringTimeoutSeconds)*time.Second, ttl),
		scorer: scoring.NewScorer(cfg.Scoring),
		ttl:    ttl,
		now:    time.Now,
	}
}

// GetRecommendations runs the full pipeline for a free-text topic.
// Zero candidates at any filtering stage is a valid empty result.
func (s *Service) GetRecommendations(ctx context.Context, topic, category, scenario string, limit int) ([]*Recommendation, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, ErrEmptyTopic
	}
	if !ValidScenario(scenario) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidScenario, scenario)
	}
	limit = s.clampLimit(limit, s.cfg.DefaultLimit)

	keywords := s.extractor.Extract(topic)
	expanded := s.expander.Expand(ctx, keywords, topic)
	s.logger.Debug("keywords expanded",
		zap.String("topic", topic),
		zap.Strings("original", keywords),
		zap.Strings("expanded", expanded))

	corpus, err := s.db.GetAnalyzedRecords()
	if err != nil {
		return nil, fmt.Errorf("loading analyzed records: %w", err)
	}
	candidates := s.lexicalRank(topic, keywords, expanded, filterCandidates(corpus, category, scenario, s.now()))
	if len(candidates) == 0 {
		return []*Recommendation{}, nil
	}
	if len(candidates) > s.cfg.RerankBatchSize {
		candidates = candidates[:s.cfg.RerankBatchSize]
	}

	for i := range candidates {
		candidates[i].Record = s.enricher.Ensure(ctx, candidates[i].Record, topic, scenario)
	}

	ranked := s.reranker.Rerank(ctx, topic, candidates)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	results := make([]*Recommendation, 0, len(ranked))
	for _, r := range ranked {
		level := s.scorer.Level(r.FinalScore / 10)
		results = append(results, &Recommendation{
			RecordID:          r.Record.RecordID,
			Record:            r.Record,
			MatchScore:        r.MatchScore,
			FinalScore:        r.FinalScore,
			SemanticScores:    r.Scores,
			MatchLevel:        level,
			MatchLevelDisplay: level.Display(),
			RecommendReasons:  r.Record.RecommendReasons,
			LearnableElements: r.Record.LearnableElements,
		})
	}
	return results, nil
}

// RecommendSimilar finds records lexically close to an existing record.
// Single-hop and AI-free: the target's title stands in for the topic and
// nothing is expanded, enriched, or reranked.
func (s *Service) RecommendSimilar(ctx context.Context, recordID string, limit int) ([]*Similar, error) {
	target, err := s.db.GetRecord(recordID)
	if err != nil {
		return nil, fmt.Errorf("loading record: %w", err)
	}
	if target == nil {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, recordID)
	}
	limit = s.clampLimit(limit, s.cfg.SimilarLimit)

	corpus, err := s.db.GetAnalyzedRecords()
	if err != nil {
		return nil, fmt.Errorf("loading analyzed records: %w", err)
	}
	var pool []*database.Record
	for _, rec := range corpus {
		if rec.RecordID != target.RecordID {
			pool = append(pool, rec)
		}
	}
	pool = filterCandidates(pool, target.Industry, "", s.now())

	keywords := s.extractor.Extract(target.Title)
	candidates := s.lexicalRank(target.Title, keywords, keywords, pool)
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	results := make([]*Similar, 0, len(candidates))
	for _, c := range candidates {
		level := s.scorer.Level(c.MatchScore)
		results = append(results, &Similar{
			RecordID:          c.Record.RecordID,
			Record:            c.Record,
			MatchScore:        c.MatchScore,
			MatchLevel:        level,
			MatchLevelDisplay: level.Display(),
			RecommendReasons:  c.Record.RecommendReasons,
			LearnableElements: c.Record.LearnableElements,
		})
	}
	return results, nil
}

// ClearCache removes cached insight and semantic entries. target selects
// the scope: everything, entries older than olderThanDays, or one record.
func (s *Service) ClearCache(target, recordID string, olderThanDays int) (int, error) {
	switch target {
	case ClearAll:
		return s.db.ClearAllCaches()
	case ClearExpired:
		if olderThanDays <= 0 {
			olderThanDays = s.cfg.CacheTTLDays
		}
		return s.db.ClearExpiredCaches(time.Duration(olderThanDays) * 24 * time.Hour)
	case ClearRecord:
		if recordID == "" {
			return 0, errors.New("record target requires a record_id")
		}
		return s.db.ClearRecordCaches(recordID)
	}
	return 0, fmt.Errorf("unknown cache clear target: %q", target)
}

// Industries lists the category labels available to the category filter.
func (s *Service) Industries() ([]string, error) {
	return s.db.ListIndustries()
}

// CacheStats reports aggregate cache counts using the configured TTL.
func (s *Service) CacheStats() (*database.CacheStats, error) {
	return s.db.GetCacheStats(s.ttl)
}

// lexicalRank scores every candidate and keeps those at or above the
// admission threshold, sorted by match score descending.
func (s *Service) lexicalRank(topic string, original, expanded []string, pool []*database.Record) []semantic.Candidate {
	var admitted []semantic.Candidate
	for _, rec := range pool {
		score, _ := s.scorer.Score(topic, original, expanded, rec)
		if score >= s.cfg.MinMatchScore {
			admitted = append(admitted, semantic.Candidate{Record: rec, MatchScore: score})
		}
	}
	sort.SliceStable(admitted, func(i, j int) bool {
		return admitted[i].MatchScore > admitted[j].MatchScore
	})
	return admitted
}

func (s *Service) clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > s.cfg.MaxLimit {
		return s.cfg.MaxLimit
	}
	return limit
}
