package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// logTimeLayout is fixed-width so lexicographic order on the date
// column matches chronological order. Timestamps are stored in UTC.
const logTimeLayout = "2006-01-02 15:04:05.000000000"

// LogEntry is one audit log row: who changed, what happened, when.
// Name is a weak reference - the entity may have been deleted since.
type LogEntry struct {
	ID      int64
	Name    string
	Date    time.Time
	Message string
	OpID    string
}

// AppendLog writes one audit entry through the transaction.
// Rolling back the transaction discards the entry together with the
// mutation it describes.
func (t *Tx) AppendLog(name, message string, ts time.Time, opID string) error {
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO log (name, date, message, op_id)
		VALUES (?, ?, ?, ?)
	`, name, ts.UTC().Format(logTimeLayout), message, opID)
	if err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	return nil
}

// FindAllLogs returns every audit entry, newest first.
func (s *Store) FindAllLogs(ctx context.Context) ([]LogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, date, message, op_id
		FROM log
		ORDER BY date DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query log: %w", err)
	}
	return scanLogRows(rows)
}

// FindLogRange returns the audit entries with start <= date <= end,
// newest first.
func (s *Store) FindLogRange(ctx context.Context, start, end time.Time) ([]LogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, date, message, op_id
		FROM log
		WHERE date >= ? AND date <= ?
		ORDER BY date DESC, id DESC
	`, start.UTC().Format(logTimeLayout), end.UTC().Format(logTimeLayout))
	if err != nil {
		return nil, fmt.Errorf("query log range: %w", err)
	}
	return scanLogRows(rows)
}

func scanLogRows(rows *sql.Rows) ([]LogEntry, error) {
	defer rows.Close()

	var entries []LogEntry
	for rows.Next() {
		var entry LogEntry
		var date string
		if err := rows.Scan(&entry.ID, &entry.Name, &date, &entry.Message, &entry.OpID); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		ts, err := time.Parse(logTimeLayout, date)
		if err != nil {
			return nil, fmt.Errorf("parse log date %q: %w", date, err)
		}
		entry.Date = ts.UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate log: %w", err)
	}

	// Return empty slice instead of nil
	if entries == nil {
		entries = []LogEntry{}
	}
	return entries, nil
}
