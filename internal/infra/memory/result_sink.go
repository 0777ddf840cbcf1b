package memory

import (
	"context"
	"sync"

	"quiz-arena/internal/domain"
)

// ResultSink keeps result records in process memory.
type ResultSink struct {
	mu      sync.RWMutex
	records []domain.ResultRecord
}

func NewResultSink() *ResultSink {
	return &ResultSink{}
}

func (s *ResultSink) Append(_ context.Context, record domain.ResultRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

func (s *ResultSink) ReadAll(_ context.Context) ([]domain.ResultRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.ResultRecord(nil), s.records...), nil
}
