package memory

import (
	"context"
	"errors"

	"quiz-arena/internal/domain"
)

// FallbackLoader asks each loader in turn until one knows the bank.
type FallbackLoader []BankLoader

func (l FallbackLoader) LoadBank(ctx context.Context, bankID string) (domain.QuestionBank, error) {
	for _, loader := range l {
		bank, err := loader.LoadBank(ctx, bankID)
		if errors.Is(err, domain.ErrBankNotFound) {
			continue
		}
		return bank, err
	}
	return domain.QuestionBank{}, domain.ErrBankNotFound
}
