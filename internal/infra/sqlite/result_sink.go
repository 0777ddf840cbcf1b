package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // driver: sqlite
	"quiz-arena/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS results (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  session_id TEXT NOT NULL,
  participant TEXT NOT NULL,
  mode TEXT NOT NULL,
  score INTEGER NOT NULL,
  total INTEGER NOT NULL,
  percentage REAL NOT NULL,
  experience_points INTEGER NOT NULL,
  recorded_at INTEGER NOT NULL,
  UNIQUE (session_id, participant)
);
`

// ResultSink stores result records in a SQLite file.
type ResultSink struct {
	db *sql.DB
}

// Open opens (or creates) the database at dsn and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*ResultSink, error) {
	if dsn == "" {
		dsn = "file:quiz-arena.db?mode=rwc&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: schema: %w", err)
	}
	return &ResultSink{db: db}, nil
}

func (s *ResultSink) Close() error {
	return s.db.Close()
}

func (s *ResultSink) Append(ctx context.Context, record domain.ResultRecord) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO results (session_id, participant, mode, score, total, percentage, experience_points, recorded_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (session_id, participant) DO NOTHING`,
		record.SessionID, record.Participant, string(record.Mode), record.Score, record.Total,
		record.Percentage, record.ExperiencePoints, record.Timestamp.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("%w: sqlite insert: %w", domain.ErrPersistence, err)
	}
	return nil
}

func (s *ResultSink) ReadAll(ctx context.Context) ([]domain.ResultRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT session_id, participant, mode, score, total, percentage, experience_points, recorded_at
FROM results ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query results: %w", err)
	}
	defer rows.Close()

	var records []domain.ResultRecord
	for rows.Next() {
		var (
			r    domain.ResultRecord
			mode string
			ms   int64
		)
		if err := rows.Scan(&r.SessionID, &r.Participant, &mode, &r.Score, &r.Total, &r.Percentage, &r.ExperiencePoints, &ms); err != nil {
			return nil, fmt.Errorf("sqlite: scan result: %w", err)
		}
		r.Mode = domain.Mode(mode)
		r.Timestamp = time.UnixMilli(ms).UTC()
		records = append(records, r)
	}
	return records, rows.Err()
}
