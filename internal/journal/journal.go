// Package journal records executed commands in MySQL for auditing. The
// journal is write-only; it is never replayed into a venue.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/iliyamo/venue-seat-allocator/internal/command"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

var _ command.Journal = (*MySQL)(nil)

// MySQL appends command entries to one table.
type MySQL struct {
	db     *sql.DB
	insert string
}

// New prepares a journal writing to table, creating the table if it does
// not exist.
func New(ctx context.Context, db *sql.DB, table string) (*MySQL, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("journal: invalid table name %q", table)
	}
	if _, err := db.ExecContext(ctx, createStmt(table)); err != nil {
		return nil, fmt.Errorf("journal: create table %s: %w", table, err)
	}
	return &MySQL{db: db, insert: insertStmt(table)}, nil
}

// Record implements command.Journal.
func (j *MySQL) Record(ctx context.Context, e command.Entry) error {
	if _, err := j.db.ExecContext(ctx, j.insert, e.Seq, e.Command, e.Output, e.Revision, e.ExecutedAt); err != nil {
		return fmt.Errorf("journal: insert seq %d: %w", e.Seq, err)
	}
	return nil
}

func createStmt(table string) string {
	return "CREATE TABLE IF NOT EXISTS `" + table + "` (" +
		"id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY, " +
		"seq BIGINT UNSIGNED NOT NULL, " +
		"command TEXT NOT NULL, " +
		"output TEXT NOT NULL, " +
		"revision BIGINT UNSIGNED NOT NULL, " +
		"executed_at DATETIME(6) NOT NULL, " +
		"KEY idx_executed_at (executed_at)" +
		") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4"
}

func insertStmt(table string) string {
	return "INSERT INTO `" + table + "` (seq, command, output, revision, executed_at) VALUES (?, ?, ?, ?, ?)"
}
