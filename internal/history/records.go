package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

const selectColumns = `id, mode, source, output, outcome, error_message, duration_seconds,
	segments, assets, drive_file_id, started_at, finished_at`

// Add inserts or replaces rec.
func (s *Store) Add(ctx context.Context, rec Record) error {
	if strings.TrimSpace(rec.ID) == "" {
		return errors.New("history: record id is required")
	}
	if rec.FinishedAt.IsZero() {
		rec.FinishedAt = time.Now()
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = rec.FinishedAt
	}
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO conversions (`+selectColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.Mode, rec.Source, rec.Output, rec.Outcome, rec.Error, rec.DurationSeconds,
			rec.Segments, rec.Assets, rec.DriveFileID,
			rec.StartedAt.UTC().Format(timeLayout), rec.FinishedAt.UTC().Format(timeLayout),
		)
		return err
	})
}

// Get returns the record for id, or nil when none exists.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM conversions WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Recent returns up to limit records, newest first. A non-empty outcome
// filters the result.
func (s *Store) Recent(ctx context.Context, limit int, outcome string) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + selectColumns + ` FROM conversions`
	args := []any{}
	if outcome = strings.TrimSpace(outcome); outcome != "" {
		query += ` WHERE outcome = ?`
		args = append(args, outcome)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("history recent: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Stats counts records by outcome.
func (s *Store) Stats(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT outcome, COUNT(1) FROM conversions GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("history stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var outcome string
		var count int
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, err
		}
		stats[outcome] = count
	}
	return stats, rows.Err()
}

// Prune deletes records that started before cutoff.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM conversions WHERE started_at < ?`, cutoff.UTC().Format(timeLayout))
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("history prune: %w", err)
	}
	return removed, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec              Record
		started, finished string
	)
	if err := row.Scan(&rec.ID, &rec.Mode, &rec.Source, &rec.Output, &rec.Outcome, &rec.Error,
		&rec.DurationSeconds, &rec.Segments, &rec.Assets, &rec.DriveFileID, &started, &finished); err != nil {
		return Record{}, err
	}
	var err error
	if rec.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return Record{}, fmt.Errorf("parse started_at: %w", err)
	}
	if rec.FinishedAt, err = time.Parse(timeLayout, finished); err != nil {
		return Record{}, fmt.Errorf("parse finished_at: %w", err)
	}
	return rec, nil
}
