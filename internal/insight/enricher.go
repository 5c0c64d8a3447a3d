// Package insight guarantees that surfaced records carry non-empty
// "why recommended" insights, generating them lazily via AI.
package insight

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/redink/recommender/internal/database"
	"github.com/redink/recommender/internal/llm"
)

// Enricher fills in recommend_reasons and learnable_elements for records
// that lack them. Ensure is a side-effecting read: it may call the AI
// provider and write both the topic-keyed insight cache and the record
// store.
type Enricher struct {
	db          *database.DB
	provider    llm.Provider
	logger      *zap.Logger
	temperature float64
	maxTokens   int
	timeout     time.Duration
	ttl         time.Duration
}

// NewEnricher creates an insight enricher. provider may be nil; Ensure
// then degrades to generic insights without persisting.
func NewEnricher(db *database.DB, provider llm.Provider, logger *zap.Logger, temperature float64, maxTokens int, timeout, ttl time.Duration) *Enricher {
	return &Enricher{
		db:          db,
		provider:    provider,
		logger:      logger,
		temperature: temperature,
		maxTokens:   maxTokens,
		timeout:     timeout,
		ttl:         ttl,
	}
}

// Ensure returns a record whose RecommendReasons and LearnableElements are
// non-nil. Insights are topic-scoped: the (topic, scenario, record) cache
// is consulted first, then the record's own columns, and only then the AI.
// A record with populated columns is returned unchanged with no AI call.
func (e *Enricher) Ensure(ctx context.Context, rec *database.Record, topic, scenario string) *database.Record {
	cached, err := e.db.GetInsight(topic, scenario, rec.RecordID, e.ttl)
	if err != nil {
		e.logger.Warn("insight cache read failed, treating as miss",
			zap.String("record_id", rec.RecordID), zap.Error(err))
	}
	if cached != nil {
		out := rec.Clone()
		out.RecommendReasons = cached.RecommendReasons
		le := cached.LearnableElements
		out.LearnableElements = &le
		return out
	}

	if rec.RecommendReasons != nil && rec.LearnableElements != nil {
		return rec
	}

	reasons, elements, persist := e.generate(ctx, rec, topic)

	if persist {
		if err := e.db.UpsertInsight(&database.InsightEntry{
			Topic:             topic,
			Scenario:          scenario,
			RecordID:          rec.RecordID,
			RecommendReasons:  reasons,
			LearnableElements: *elements,
		}); err != nil {
			e.logger.Warn("insight cache write failed",
				zap.String("record_id", rec.RecordID), zap.Error(err))
		}
		// Record columns populate once (NULL -> value); later topics keep
		// their insights in the cache only.
		if err := e.db.SetRecordInsights(rec.RecordID, reasons, elements); err != nil {
			e.logger.Warn("record insight write-back failed",
				zap.String("record_id", rec.RecordID), zap.Error(err))
		}
	}

	out := rec.Clone()
	out.RecommendReasons = reasons
	out.LearnableElements = elements
	return out
}

// generate produces insights via AI with fallbacks. The persist flag is
// false when no response text was ever received: there is nothing to
// re-extract from, so the next request should retry instead of caching
// boilerplate.
func (e *Enricher) generate(ctx context.Context, rec *database.Record, topic string) ([]string, *database.LearnableElements, bool) {
	if e.provider == nil {
		reasons, elements := fallbackExtract("")
		return reasons, elements, false
	}

	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	response, err := e.provider.Generate(callCtx, buildPrompt(topic, rec), e.temperature, e.maxTokens)
	if err != nil {
		e.logger.Warn("insight extraction call failed",
			zap.String("record_id", rec.RecordID), zap.Error(err))
		reasons, elements := fallbackExtract("")
		return reasons, elements, false
	}

	var parsed struct {
		RecommendReasons  []string                    `json:"recommend_reasons"`
		LearnableElements *database.LearnableElements `json:"learnable_elements"`
	}
	if err := json.Unmarshal([]byte(llm.ExtractJSON(response)), &parsed); err != nil ||
		parsed.RecommendReasons == nil || parsed.LearnableElements == nil {
		e.logger.Warn("insight response unparseable, using rule-based extraction",
			zap.String("record_id", rec.RecordID))
		reasons, elements := fallbackExtract(response)
		return reasons, elements, true
	}

	reasons := parsed.RecommendReasons
	if len(reasons) > maxReasons {
		reasons = reasons[:maxReasons]
	}
	return reasons, parsed.LearnableElements, true
}
