package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"quiz-arena/internal/domain"
)

const resultsKey = "quiz:results"

// ResultSink appends result records to a Redis list, one JSON document per entry.
type ResultSink struct {
	client *redis.Client
}

func NewResultSink(client *redis.Client) *ResultSink {
	return &ResultSink{client: client}
}

func (s *ResultSink) Append(ctx context.Context, record domain.ResultRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := s.client.RPush(ctx, resultsKey, data).Err(); err != nil {
		return fmt.Errorf("%w: rpush: %w", domain.ErrPersistence, err)
	}
	return nil
}

func (s *ResultSink) ReadAll(ctx context.Context) ([]domain.ResultRecord, error) {
	raw, err := s.client.LRange(ctx, resultsKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}
	records := make([]domain.ResultRecord, 0, len(raw))
	for i, item := range raw {
		var record domain.ResultRecord
		if err := json.Unmarshal([]byte(item), &record); err != nil {
			return nil, fmt.Errorf("decode result %d: %w", i, err)
		}
		records = append(records, record)
	}
	return records, nil
}
