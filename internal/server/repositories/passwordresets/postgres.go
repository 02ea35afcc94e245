package passwordresets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/giftauth/internal/common"
	"github.com/dmitrijs2005/giftauth/internal/dbx"
	"github.com/dmitrijs2005/giftauth/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, pr *models.PasswordReset) error {
	query := `
		INSERT INTO password_resets (user_id, token, expires_at, ip_address)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, query, pr.UserID, pr.Token, pr.ExpiresAt, pr.IPAddress); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Find(ctx context.Context, token string) (*models.PasswordReset, error) {
	query := `
		SELECT pr.id, pr.user_id, pr.token, pr.expires_at, pr.created_at, pr.used_at, pr.ip_address, u.email, u.name
		FROM password_resets pr
		JOIN users u ON u.id = pr.user_id
		WHERE pr.token = $1
	`
	pr := &models.PasswordReset{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&pr.ID, &pr.UserID, &pr.Token, &pr.ExpiresAt, &pr.CreatedAt, &pr.UsedAt, &pr.IPAddress,
		&pr.UserEmail, &pr.UserName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return pr, nil
}

func (r *PostgresRepository) MarkUsed(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE password_resets
		SET used_at = $2
		WHERE id = $1 AND used_at IS NULL
	`
	res, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrTokenAlreadyUsed
	}
	return nil
}

func (r *PostgresRepository) DeleteStale(ctx context.Context, now time.Time, maxAge time.Duration) (int64, error) {
	query := `
		DELETE FROM password_resets
		WHERE expires_at < $1
		   OR created_at < $2
		   OR used_at IS NOT NULL
	`
	res, err := r.db.ExecContext(ctx, query, now, now.Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
