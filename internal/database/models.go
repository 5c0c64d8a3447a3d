package database

import "time"

// Metrics holds the engagement metrics of an analyzed note.
type Metrics struct {
	TotalEngagement int     `json:"total_engagement"`
	SaveRatio       float64 `json:"save_ratio"`
}

// LearnableElements are the reusable creative elements extracted from a note.
type LearnableElements struct {
	Hook      string `json:"hook"`
	Structure string `json:"structure"`
	Tone      string `json:"tone"`
	CTA       string `json:"cta"`
}

// Record is an analyzed note snapshot. RecommendReasons and
// LearnableElements are nil until the first insight enrichment; once
// populated they are never overwritten.
type Record struct {
	RecordID          string             `json:"record_id"`
	Title             string             `json:"title"`
	Content           string             `json:"content"`
	Industry          string             `json:"industry,omitempty"`
	Metrics           Metrics            `json:"metrics"`
	FollowerCount     int                `json:"follower_count"`
	PublishedAt       *string            `json:"published_at,omitempty"`
	RecommendReasons  []string           `json:"recommend_reasons"`
	LearnableElements *LearnableElements `json:"learnable_elements"`
	Analyzed          bool               `json:"analyzed"`
}

// Clone returns a shallow copy with its own reasons slice and elements value,
// so callers can enrich a record without mutating the original.
func (r *Record) Clone() *Record {
	c := *r
	if r.RecommendReasons != nil {
		c.RecommendReasons = append([]string(nil), r.RecommendReasons...)
	}
	if r.LearnableElements != nil {
		le := *r.LearnableElements
		c.LearnableElements = &le
	}
	return &c
}

// InsightEntry is a cached (topic, scenario, record) insight pair.
type InsightEntry struct {
	Topic             string
	Scenario          string
	RecordID          string
	RecommendReasons  []string
	LearnableElements LearnableElements
	UpdatedAt         time.Time
}

// SemanticScoreEntry is a cached AI semantic score for a (topic, record) pair.
type SemanticScoreEntry struct {
	Topic            string
	RecordID         string
	TopicRelevance   float64
	AudienceMatch    float64
	StyleFit         float64
	PerformanceBonus float64
	FinalScore       float64
	ScoredAt         time.Time
}

// CacheStats contains aggregate counts over both recommendation caches.
type CacheStats struct {
	TotalEntries   int `json:"total_entries"`
	ExpiredEntries int `json:"expired_entries"`
}
