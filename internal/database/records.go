package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// UpsertRecord inserts or replaces an analyzed record.
func (db *DB) UpsertRecord(r *Record) error {
	reasons, elements, err := marshalInsights(r.RecommendReasons, r.LearnableElements)
	if err != nil {
		return err
	}

	analyzed := 0
	if r.Analyzed {
		analyzed = 1
	}

	_, err = db.conn.Exec(
		`INSERT OR REPLACE INTO records
		(record_id, title, content, industry, total_engagement, save_ratio,
		 follower_count, published_at, recommend_reasons, learnable_elements,
		 analyzed, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))`,
		r.RecordID, r.Title, r.Content, r.Industry,
		r.Metrics.TotalEngagement, r.Metrics.SaveRatio,
		r.FollowerCount, r.PublishedAt, reasons, elements, analyzed,
	)
	return err
}

// GetRecord returns a record by ID, or nil if not found.
func (db *DB) GetRecord(recordID string) (*Record, error) {
	row := db.conn.QueryRow(selectRecord+" WHERE record_id = ?", recordID)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetAnalyzedRecords returns every record marked analyzed, newest first.
func (db *DB) GetAnalyzedRecords() ([]*Record, error) {
	rows, err := db.conn.Query(selectRecord + " WHERE analyzed = 1 ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// SetRecordInsights populates the record-level insight columns only when
// they are still NULL. The columns mutate from NULL to a value exactly once;
// later enrichments for other topics land in the insight cache instead.
func (db *DB) SetRecordInsights(recordID string, reasons []string, elements *LearnableElements) error {
	reasonsJSON, elementsJSON, err := marshalInsights(reasons, elements)
	if err != nil {
		return err
	}

	_, err = db.conn.Exec(
		`UPDATE records SET
			recommend_reasons = COALESCE(recommend_reasons, ?),
			learnable_elements = COALESCE(learnable_elements, ?),
			updated_at = datetime('now')
		WHERE record_id = ?`,
		reasonsJSON, elementsJSON, recordID,
	)
	return err
}

// ListIndustries returns the distinct non-empty industry labels across
// the analyzed corpus, sorted. Feeds the category filter choices.
func (db *DB) ListIndustries() ([]string, error) {
	rows, err := db.conn.Query(
		`SELECT DISTINCT industry FROM records
		WHERE analyzed = 1 AND industry IS NOT NULL AND industry != ''
		ORDER BY industry`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var industries []string
	for rows.Next() {
		var industry string
		if err := rows.Scan(&industry); err != nil {
			return nil, err
		}
		industries = append(industries, industry)
	}
	return industries, rows.Err()
}

// CountRecords returns the total and analyzed record counts.
func (db *DB) CountRecords() (total, analyzed int, err error) {
	row := db.conn.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(analyzed), 0) FROM records`,
	)
	if err := row.Scan(&total, &analyzed); err != nil {
		return 0, 0, err
	}
	return total, analyzed, nil
}

const selectRecord = `SELECT record_id, title, content, industry, total_engagement,
	save_ratio, follower_count, published_at, recommend_reasons,
	learnable_elements, analyzed FROM records`

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*Record, error) {
	var r Record
	var content, industry, reasons, elements *string
	var analyzed int
	if err := s.Scan(&r.RecordID, &r.Title, &content, &industry,
		&r.Metrics.TotalEngagement, &r.Metrics.SaveRatio, &r.FollowerCount,
		&r.PublishedAt, &reasons, &elements, &analyzed); err != nil {
		return nil, err
	}
	if content != nil {
		r.Content = *content
	}
	if industry != nil {
		r.Industry = *industry
	}
	r.Analyzed = analyzed != 0
	if reasons != nil {
		if err := json.Unmarshal([]byte(*reasons), &r.RecommendReasons); err != nil {
			r.RecommendReasons = nil
		}
	}
	if elements != nil {
		var le LearnableElements
		if err := json.Unmarshal([]byte(*elements), &le); err == nil {
			r.LearnableElements = &le
		}
	}
	return &r, nil
}

func marshalInsights(reasons []string, elements *LearnableElements) (*string, *string, error) {
	var reasonsJSON, elementsJSON *string
	if reasons != nil {
		data, err := json.Marshal(reasons)
		if err != nil {
			return nil, nil, fmt.Errorf("marshaling recommend_reasons: %w", err)
		}
		s := string(data)
		reasonsJSON = &s
	}
	if elements != nil {
		data, err := json.Marshal(elements)
		if err != nil {
			return nil, nil, fmt.Errorf("marshaling learnable_elements: %w", err)
		}
		s := string(data)
		elementsJSON = &s
	}
	return reasonsJSON, elementsJSON, nil
}
