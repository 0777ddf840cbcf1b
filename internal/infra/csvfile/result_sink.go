package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"quiz-arena/internal/domain"
)

var header = []string{"session_id", "participant", "mode", "score", "total", "percentage", "experience_points", "timestamp"}

// ResultSink appends result records to a CSV file, writing the header when
// the file is created.
type ResultSink struct {
	path string
	mu   sync.Mutex
}

func NewResultSink(path string) *ResultSink {
	return &ResultSink{path: path}
}

func (s *ResultSink) Append(_ context.Context, record domain.ResultRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", domain.ErrPersistence, s.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: stat %s: %w", domain.ErrPersistence, s.path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("%w: write header: %w", domain.ErrPersistence, err)
		}
	}
	if err := w.Write(encode(record)); err != nil {
		return fmt.Errorf("%w: write record: %w", domain.ErrPersistence, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("%w: flush: %w", domain.ErrPersistence, err)
	}
	return nil
}

// ReadAll returns every record; a missing file means no results yet.
func (s *ResultSink) ReadAll(_ context.Context) ([]domain.ResultRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)
	var records []domain.ResultRecord
	for line := 1; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", s.path, err)
		}
		if line == 1 && row[0] == header[0] {
			continue
		}
		record, err := decode(row)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", s.path, line, err)
		}
		records = append(records, record)
	}
}

func encode(r domain.ResultRecord) []string {
	return []string{
		r.SessionID,
		r.Participant,
		string(r.Mode),
		strconv.Itoa(r.Score),
		strconv.Itoa(r.Total),
		strconv.FormatFloat(r.Percentage, 'f', -1, 64),
		strconv.Itoa(r.ExperiencePoints),
		r.Timestamp.UTC().Format(time.RFC3339),
	}
}

func decode(row []string) (domain.ResultRecord, error) {
	score, err := strconv.Atoi(row[3])
	if err != nil {
		return domain.ResultRecord{}, fmt.Errorf("score: %w", err)
	}
	total, err := strconv.Atoi(row[4])
	if err != nil {
		return domain.ResultRecord{}, fmt.Errorf("total: %w", err)
	}
	pct, err := strconv.ParseFloat(row[5], 64)
	if err != nil {
		return domain.ResultRecord{}, fmt.Errorf("percentage: %w", err)
	}
	xp, err := strconv.Atoi(row[6])
	if err != nil {
		return domain.ResultRecord{}, fmt.Errorf("experience points: %w", err)
	}
	ts, err := time.Parse(time.RFC3339, row[7])
	if err != nil {
		return domain.ResultRecord{}, fmt.Errorf("timestamp: %w", err)
	}
	return domain.ResultRecord{
		SessionID:        row[0],
		Participant:      row[1],
		Mode:             domain.Mode(row[2]),
		Score:            score,
		Total:            total,
		Percentage:       pct,
		ExperiencePoints: xp,
		Timestamp:        ts,
	}, nil
}
