package database

import (
	"database/sql"
	"encoding/json"
	"time"
)

// UpsertInsight replaces the cached insight for a (topic, scenario, record)
// key. Delete-then-insert semantics via INSERT OR REPLACE keep at most one
// live entry per key; concurrent writers are last-writer-wins, which is
// fine because the value is derived and reproducible.
func (db *DB) UpsertInsight(e *InsightEntry) error {
	reasons, err := json.Marshal(e.RecommendReasons)
	if err != nil {
		return err
	}
	elements, err := json.Marshal(e.LearnableElements)
	if err != nil {
		return err
	}

	at := e.UpdatedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}

	_, err = db.conn.Exec(
		`INSERT OR REPLACE INTO insights_cache
		(topic, scenario, record_id, recommend_reasons, learnable_elements, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.Topic, e.Scenario, e.RecordID, string(reasons), string(elements),
		at.UTC().Format(time.RFC3339),
	)
	return err
}

// GetInsight returns the cached insight for the key, or nil on a miss.
// Entries older than ttl are treated as absent, not deleted.
func (db *DB) GetInsight(topic, scenario, recordID string, ttl time.Duration) (*InsightEntry, error) {
	row := db.conn.QueryRow(
		`SELECT topic, scenario, record_id, recommend_reasons, learnable_elements, updated_at
		FROM insights_cache WHERE topic = ? AND scenario = ? AND record_id = ?`,
		topic, scenario, recordID,
	)

	var e InsightEntry
	var reasons, elements, updatedAt string
	if err := row.Scan(&e.Topic, &e.Scenario, &e.RecordID, &reasons, &elements, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	at, err := time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return nil, nil
	}
	if time.Since(at) > ttl {
		return nil, nil
	}
	e.UpdatedAt = at

	if err := json.Unmarshal([]byte(reasons), &e.RecommendReasons); err != nil {
		return nil, nil
	}
	if err := json.Unmarshal([]byte(elements), &e.LearnableElements); err != nil {
		return nil, nil
	}
	return &e, nil
}
