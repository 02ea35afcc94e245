package verifications

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/giftauth/internal/dbx"
	"github.com/dmitrijs2005/giftauth/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, v *models.EmailVerification) error {
	query := `
		INSERT INTO email_verifications (user_id, code_hash, expires_at, attempts)
		VALUES ($1, $2, $3, 0)
		ON CONFLICT (user_id) DO UPDATE
		SET code_hash = EXCLUDED.code_hash, expires_at = EXCLUDED.expires_at, attempts = 0, created_at = now()
	`
	if _, err := r.db.ExecContext(ctx, query, v.UserID, v.CodeHash, v.ExpiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
