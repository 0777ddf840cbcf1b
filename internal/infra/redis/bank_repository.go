package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"quiz-arena/internal/domain"
)

// BankLoader fetches question banks from a backing store (spreadsheets, Postgres).
type BankLoader interface {
	LoadBank(ctx context.Context, bankID string) (domain.QuestionBank, error)
}

// BankRepository caches banks in Redis and falls back to a loader on cache miss.
// Banks are stored as: SET bank:{bankID}:questions <json records>
type BankRepository struct {
	client *redis.Client
	loader BankLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewBankRepository(client *redis.Client, loader BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *BankRepository) GetBank(ctx context.Context, bankID string) (domain.QuestionBank, error) {
	if bank, ok := r.fromCache(ctx, bankID); ok {
		return bank, nil
	}

	result, err, _ := r.sf.Do(bankID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if bank, ok := r.fromCache(ctx, bankID); ok {
			return bank, nil
		}

		bank, err := r.loader.LoadBank(ctx, bankID)
		if err != nil {
			return domain.QuestionBank{}, err
		}

		data, err := json.Marshal(bank.Questions)
		if err == nil {
			_ = r.client.Set(ctx, r.questionsKey(bankID), data, r.ttlWithJitter()).Err()
		}
		return bank, nil
	})
	if err != nil {
		return domain.QuestionBank{}, err
	}
	return result.(domain.QuestionBank), nil
}

// Invalidate drops the cached copy, e.g. after an import.
func (r *BankRepository) Invalidate(ctx context.Context, bankID string) error {
	return r.client.Del(ctx, r.questionsKey(bankID)).Err()
}

func (r *BankRepository) fromCache(ctx context.Context, bankID string) (domain.QuestionBank, bool) {
	raw, err := r.client.Get(ctx, r.questionsKey(bankID)).Bytes()
	if err != nil || len(raw) == 0 {
		return domain.QuestionBank{}, false
	}
	var questions []domain.QuestionRecord
	if err := json.Unmarshal(raw, &questions); err != nil || len(questions) == 0 {
		return domain.QuestionBank{}, false
	}
	return domain.QuestionBank{ID: bankID, Questions: questions}, true
}

func (r *BankRepository) questionsKey(bankID string) string {
	return "bank:" + bankID + ":questions"
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
