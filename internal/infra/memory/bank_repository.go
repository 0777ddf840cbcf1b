package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"quiz-arena/internal/domain"
)

// BankLoader fetches question banks from a backing store (spreadsheet directory, Postgres).
type BankLoader interface {
	LoadBank(ctx context.Context, bankID string) (domain.QuestionBank, error)
}

// BankRepository caches banks with TTL to avoid re-reading sheets or hitting the DB.
type BankRepository struct {
	loader BankLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedBank
}

type cachedBank struct {
	bank      domain.QuestionBank
	expiresAt time.Time
}

func NewBankRepository(loader BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedBank),
	}
}

func (r *BankRepository) GetBank(ctx context.Context, bankID string) (domain.QuestionBank, error) {
	if bank, ok := r.cached(bankID, r.clock()); ok {
		return bank, nil
	}

	result, err, _ := r.sf.Do(bankID, func() (interface{}, error) {
		now := r.clock()
		if bank, ok := r.cached(bankID, now); ok {
			return bank, nil
		}

		bank, err := r.loader.LoadBank(ctx, bankID)
		if err != nil {
			return domain.QuestionBank{}, err
		}

		expiresAt := now.Add(r.ttlWithJitter())
		r.mu.Lock()
		r.cache[bankID] = cachedBank{bank: bank, expiresAt: expiresAt}
		r.mu.Unlock()
		return bank, nil
	})
	if err != nil {
		return domain.QuestionBank{}, err
	}
	return result.(domain.QuestionBank), nil
}

// Invalidate drops a cached bank so the next read reloads it.
func (r *BankRepository) Invalidate(bankID string) {
	r.mu.Lock()
	delete(r.cache, bankID)
	r.mu.Unlock()
}

func (r *BankRepository) cached(bankID string, now time.Time) (domain.QuestionBank, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[bankID]
	if !ok || !entry.expiresAt.After(now) {
		return domain.QuestionBank{}, false
	}
	return entry.bank, true
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticBankLoader is a simple loader backed by an in-memory map (useful for tests/demos).
type StaticBankLoader struct {
	banks map[string]domain.QuestionBank
}

func NewStaticBankLoader(banks map[string]domain.QuestionBank) *StaticBankLoader {
	return &StaticBankLoader{banks: banks}
}

func (l *StaticBankLoader) LoadBank(_ context.Context, bankID string) (domain.QuestionBank, error) {
	if bank, ok := l.banks[bankID]; ok {
		return bank, nil
	}
	return domain.QuestionBank{}, domain.ErrBankNotFound
}
