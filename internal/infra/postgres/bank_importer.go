package postgres

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"quiz-arena/internal/domain"
)

type questionRow struct {
	bun.BaseModel `bun:"table:question_records"`

	BankID        string   `bun:"bank_id,pk"`
	Position      int      `bun:"position,pk"`
	Prompt        string   `bun:"prompt,notnull"`
	CorrectAnswer string   `bun:"correct_answer,notnull"`
	Alternatives  []string `bun:"alternatives,array"`
}

// BankImporter replaces the stored questions of a bank.
type BankImporter struct {
	db *bun.DB
}

func NewBankImporter(db *bun.DB) *BankImporter {
	return &BankImporter{db: db}
}

// Import swaps the bank's rows in one transaction and returns how many were written.
func (i *BankImporter) Import(ctx context.Context, bank domain.QuestionBank) (int, error) {
	if len(bank.Questions) == 0 {
		return 0, domain.ErrEmptyBank
	}
	rows := make([]questionRow, len(bank.Questions))
	for n, q := range bank.Questions {
		alts := q.Alternatives
		if alts == nil {
			alts = []string{}
		}
		rows[n] = questionRow{
			BankID:        bank.ID,
			Position:      n + 1,
			Prompt:        q.Prompt,
			CorrectAnswer: q.CorrectAnswer,
			Alternatives:  alts,
		}
	}

	err := i.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*questionRow)(nil)).
			Where("bank_id = ?", bank.ID).
			Exec(ctx); err != nil {
			return fmt.Errorf("clear bank: %w", err)
		}
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("insert questions: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}
