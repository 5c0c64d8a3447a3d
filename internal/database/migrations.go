package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS records (
    record_id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    content TEXT,
    industry TEXT,
    total_engagement INTEGER DEFAULT 0,
    save_ratio REAL DEFAULT 0,
    follower_count INTEGER DEFAULT 0,
    published_at TEXT,
    recommend_reasons TEXT,
    learnable_elements TEXT,
    analyzed INTEGER DEFAULT 1,
    created_at TEXT DEFAULT (datetime('now')),
    updated_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS synonym_table (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    version INTEGER NOT NULL DEFAULT 1,
    data TEXT NOT NULL,
    updated_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS insights_cache (
    topic TEXT NOT NULL,
    scenario TEXT NOT NULL DEFAULT '',
    record_id TEXT NOT NULL,
    recommend_reasons TEXT NOT NULL,
    learnable_elements TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (topic, scenario, record_id)
);

CREATE TABLE IF NOT EXISTS semantic_scores_cache (
    topic TEXT NOT NULL,
    record_id TEXT NOT NULL,
    topic_relevance REAL NOT NULL DEFAULT 0,
    audience_match REAL NOT NULL DEFAULT 0,
    style_fit REAL NOT NULL DEFAULT 0,
    performance_bonus REAL NOT NULL DEFAULT 0,
    final_score REAL NOT NULL DEFAULT 0,
    scored_at TEXT NOT NULL,
    PRIMARY KEY (topic, record_id)
);

CREATE INDEX IF NOT EXISTS idx_records_industry ON records(industry);
CREATE INDEX IF NOT EXISTS idx_records_analyzed ON records(analyzed);
CREATE INDEX IF NOT EXISTS idx_insights_record ON insights_cache(record_id);
CREATE INDEX IF NOT EXISTS idx_scores_record ON semantic_scores_cache(record_id);
CREATE INDEX IF NOT EXISTS idx_scores_scored_at ON semantic_scores_cache(scored_at);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
