package database

import (
	"database/sql"
	"fmt"
	"strings"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern turns a literal substring into a LIKE/ILIKE pattern
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

// requireOneRow maps "no row updated" to ErrNotFound
func requireOneRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
