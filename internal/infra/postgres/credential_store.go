package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"quiz-arena/internal/domain"
)

type playerRow struct {
	bun.BaseModel `bun:"table:players"`

	Name         string    `bun:"name,pk"`
	PasswordHash []byte    `bun:"password_hash,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
}

// CredentialStore keeps player password hashes in the players table.
type CredentialStore struct {
	db *bun.DB
}

func NewCredentialStore(db *bun.DB) *CredentialStore {
	return &CredentialStore{db: db}
}

func (s *CredentialStore) CreateCredential(ctx context.Context, player string, hash []byte) error {
	row := playerRow{Name: player, PasswordHash: hash, CreatedAt: time.Now().UTC()}
	res, err := s.db.NewInsert().
		Model(&row).
		On("CONFLICT (name) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrPlayerExists
	}
	return nil
}

func (s *CredentialStore) CredentialHash(ctx context.Context, player string) ([]byte, error) {
	var row playerRow
	err := s.db.NewSelect().Model(&row).Where("name = ?", player).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	return row.PasswordHash, nil
}
