package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"quiz-arena/internal/domain"
)

// BankLoader loads question banks from the question_records table.
type BankLoader struct {
	pool *pgxpool.Pool
}

func NewBankLoader(pool *pgxpool.Pool) *BankLoader {
	return &BankLoader{pool: pool}
}

func (l *BankLoader) LoadBank(ctx context.Context, bankID string) (domain.QuestionBank, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT prompt, correct_answer, alternatives FROM question_records WHERE bank_id=$1 ORDER BY position`,
		bankID)
	if err != nil {
		return domain.QuestionBank{}, fmt.Errorf("load bank: %w", err)
	}
	defer rows.Close()

	bank := domain.QuestionBank{ID: bankID}
	for rows.Next() {
		var q domain.QuestionRecord
		if err := rows.Scan(&q.Prompt, &q.CorrectAnswer, &q.Alternatives); err != nil {
			return domain.QuestionBank{}, fmt.Errorf("scan question: %w", err)
		}
		bank.Questions = append(bank.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return domain.QuestionBank{}, fmt.Errorf("load bank: %w", err)
	}
	if len(bank.Questions) == 0 {
		return domain.QuestionBank{}, fmt.Errorf("%w: %s", domain.ErrBankNotFound, bankID)
	}
	return bank, nil
}
