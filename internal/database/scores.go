package database

import (
	"database/sql"
	"fmt"
	"time"
)

// UpsertSemanticScore replaces the cached semantic score for a
// (topic, record) key.
func (db *DB) UpsertSemanticScore(e *SemanticScoreEntry) error {
	at := e.ScoredAt
	if at.IsZero() {
		at = time.Now().UTC()
	}

	_, err := db.conn.Exec(
		`INSERT OR REPLACE INTO semantic_scores_cache
		(topic, record_id, topic_relevance, audience_match, style_fit,
		 performance_bonus, final_score, scored_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Topic, e.RecordID, e.TopicRelevance, e.AudienceMatch,
		e.StyleFit, e.PerformanceBonus, e.FinalScore,
		at.UTC().Format(time.RFC3339),
	)
	return err
}

// GetSemanticScore returns the cached score for a (topic, record) pair, or
// nil on a miss. Entries older than ttl are treated as absent, not deleted.
func (db *DB) GetSemanticScore(topic, recordID string, ttl time.Duration) (*SemanticScoreEntry, error) {
	row := db.conn.QueryRow(
		`SELECT topic, record_id, topic_relevance, audience_match, style_fit,
			performance_bonus, final_score, scored_at
		FROM semantic_scores_cache WHERE topic = ? AND record_id = ?`,
		topic, recordID,
	)

	var e SemanticScoreEntry
	var scoredAt string
	if err := row.Scan(&e.Topic, &e.RecordID, &e.TopicRelevance, &e.AudienceMatch,
		&e.StyleFit, &e.PerformanceBonus, &e.FinalScore, &scoredAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	at, err := time.Parse(time.RFC3339, scoredAt)
	if err != nil {
		return nil, nil
	}
	if time.Since(at) > ttl {
		return nil, nil
	}
	e.ScoredAt = at
	return &e, nil
}

// ClearAllCaches deletes every entry from both caches and returns the count.
func (db *DB) ClearAllCaches() (int, error) {
	cleared := 0
	for _, table := range []string{"insights_cache", "semantic_scores_cache"} {
		res, err := db.conn.Exec("DELETE FROM " + table)
		if err != nil {
			return cleared, fmt.Errorf("clearing %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		cleared += int(n)
	}
	return cleared, nil
}

// ClearExpiredCaches deletes cache entries older than the given age from
// both caches and returns the count.
func (db *DB) ClearExpiredCaches(olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)

	cleared := 0
	for _, stmt := range []string{
		"DELETE FROM insights_cache WHERE updated_at < ?",
		"DELETE FROM semantic_scores_cache WHERE scored_at < ?",
	} {
		res, err := db.conn.Exec(stmt, cutoff)
		if err != nil {
			return cleared, err
		}
		n, _ := res.RowsAffected()
		cleared += int(n)
	}
	return cleared, nil
}

// ClearRecordCaches deletes every cache entry for one record, across all
// topics, and returns the count.
func (db *DB) ClearRecordCaches(recordID string) (int, error) {
	cleared := 0
	for _, stmt := range []string{
		"DELETE FROM insights_cache WHERE record_id = ?",
		"DELETE FROM semantic_scores_cache WHERE record_id = ?",
	} {
		res, err := db.conn.Exec(stmt, recordID)
		if err != nil {
			return cleared, err
		}
		n, _ := res.RowsAffected()
		cleared += int(n)
	}
	return cleared, nil
}

// GetCacheStats returns total and expired entry counts over both caches.
func (db *DB) GetCacheStats(ttl time.Duration) (*CacheStats, error) {
	cutoff := time.Now().UTC().Add(-ttl).Format(time.RFC3339)

	var stats CacheStats
	row := db.conn.QueryRow(
		`SELECT
			(SELECT COUNT(*) FROM insights_cache) +
			(SELECT COUNT(*) FROM semantic_scores_cache),
			(SELECT COUNT(*) FROM insights_cache WHERE updated_at < ?) +
			(SELECT COUNT(*) FROM semantic_scores_cache WHERE scored_at < ?)`,
		cutoff, cutoff,
	)
	if err := row.Scan(&stats.TotalEntries, &stats.ExpiredEntries); err != nil {
		return nil, err
	}
	return &stats, nil
}
