package repositories

import (
	"database/sql"
	"fmt"
	"regexp"
)

var sequenceTable = regexp.MustCompile(`^[a-z_]+$`)

// NextSequence bumps the counter kept in "<table>_sequence" and returns the new value.
//
// Sequences give activities a stable, human-readable order (#1, #2, ...) that survives
// soft deletes. The increment and read happen in a single statement.
func NextSequence(db *sql.DB, table string) (int, error) {
	if !sequenceTable.MatchString(table) {
		return 0, fmt.Errorf("invalid sequence table %q", table)
	}

	var next int
	query := fmt.Sprintf("UPDATE %s_sequence SET value = value + 1 WHERE id = 1 RETURNING value", table)
	if err := db.QueryRow(query).Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}
	return next, nil
}
