package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"quiz-arena/internal/domain"
)

type resultRow struct {
	bun.BaseModel `bun:"table:results"`

	ID               int64     `bun:"id,pk,autoincrement"`
	SessionID        string    `bun:"session_id,notnull"`
	Participant      string    `bun:"participant,notnull"`
	Mode             string    `bun:"mode,notnull"`
	Score            int       `bun:"score,notnull"`
	Total            int       `bun:"total,notnull"`
	Percentage       float64   `bun:"percentage,notnull"`
	ExperiencePoints int       `bun:"experience_points,notnull"`
	RecordedAt       time.Time `bun:"recorded_at,notnull"`
}

// ResultSink stores result records in the results table. A record for a
// session and participant that already exists is left untouched.
type ResultSink struct {
	db *bun.DB
}

func NewResultSink(db *bun.DB) *ResultSink {
	return &ResultSink{db: db}
}

func (s *ResultSink) Append(ctx context.Context, record domain.ResultRecord) error {
	row := resultRow{
		SessionID:        record.SessionID,
		Participant:      record.Participant,
		Mode:             string(record.Mode),
		Score:            record.Score,
		Total:            record.Total,
		Percentage:       record.Percentage,
		ExperiencePoints: record.ExperiencePoints,
		RecordedAt:       record.Timestamp,
	}
	if _, err := s.db.NewInsert().
		Model(&row).
		On("CONFLICT (session_id, participant) DO NOTHING").
		Exec(ctx); err != nil {
		return fmt.Errorf("%w: insert result: %w", domain.ErrPersistence, err)
	}
	return nil
}

func (s *ResultSink) ReadAll(ctx context.Context) ([]domain.ResultRecord, error) {
	var rows []resultRow
	if err := s.db.NewSelect().Model(&rows).Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}
	records := make([]domain.ResultRecord, len(rows))
	for i, row := range rows {
		records[i] = domain.ResultRecord{
			SessionID:        row.SessionID,
			Participant:      row.Participant,
			Mode:             domain.Mode(row.Mode),
			Score:            row.Score,
			Total:            row.Total,
			Percentage:       row.Percentage,
			ExperiencePoints: row.ExperiencePoints,
			Timestamp:        row.RecordedAt.UTC(),
		}
	}
	return records, nil
}
