package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// GetSynonymTable loads the persisted synonym document. Returns an empty
// map and version 0 when no document has been saved yet.
func (db *DB) GetSynonymTable() (map[string][]string, int, error) {
	row := db.conn.QueryRow(`SELECT data, version FROM synonym_table WHERE id = 1`)

	var data string
	var version int
	if err := row.Scan(&data, &version); err != nil {
		if err == sql.ErrNoRows {
			return map[string][]string{}, 0, nil
		}
		return nil, 0, err
	}

	table := map[string][]string{}
	if err := json.Unmarshal([]byte(data), &table); err != nil {
		return nil, 0, fmt.Errorf("parsing synonym table: %w", err)
	}
	return table, version, nil
}

// SaveSynonymTable persists the full synonym document, bumping its version.
// The whole document is rewritten; callers serialize writes (the expander
// holds a mutex around its read-modify-write).
func (db *DB) SaveSynonymTable(table map[string][]string) error {
	data, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("marshaling synonym table: %w", err)
	}

	_, err = db.conn.Exec(
		`INSERT INTO synonym_table (id, version, data, updated_at)
		VALUES (1, 1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			version = version + 1,
			data = excluded.data,
			updated_at = excluded.updated_at`,
		string(data), time.Now().UTC().Format(time.RFC3339),
	)
	return err
}
