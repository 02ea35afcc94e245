// Package users provides the PostgreSQL-backed user repository.
package users

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

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, email, password_hash, name, role, status, login_attempts, lock_until, last_login, phone_number, username, avatar_url, created_at, updated_at`

func (r *PostgresRepository) Create(ctx context.Context, u *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (id, email, password_hash, name, role, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	created := *u
	err := r.db.QueryRowContext(ctx, query, u.ID, u.Email, u.PasswordHash, u.Name, u.Role, u.Status).
		Scan(&created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &created, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.getOne(ctx, query, email)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	u := &models.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.Status, &u.LoginAttempts,
		&u.LockUntil, &u.LastLogin, &u.PhoneNumber, &u.Username, &u.AvatarURL, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) GetPublicProfileByPhone(ctx context.Context, phone string) (*models.PublicProfile, error) {
	query := `
		SELECT name, username, avatar_url
		FROM users
		WHERE phone_number = $1
	`
	p := &models.PublicProfile{}
	if err := r.db.QueryRowContext(ctx, query, phone).Scan(&p.DisplayName, &p.Username, &p.AvatarURL); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) RegisterLoginFailure(ctx context.Context, id string, threshold int, lockUntil time.Time) (bool, error) {
	query := `
		WITH prev AS (
			SELECT id, login_attempts FROM users WHERE id = $1 FOR UPDATE
		)
		UPDATE users u
		SET login_attempts = CASE WHEN prev.login_attempts + 1 >= $2 THEN 0 ELSE prev.login_attempts + 1 END,
		    lock_until = CASE WHEN prev.login_attempts + 1 >= $2 THEN $3 ELSE u.lock_until END,
		    updated_at = now()
		FROM prev
		WHERE u.id = prev.id
		RETURNING prev.login_attempts + 1 >= $2
	`
	var locked bool
	if err := r.db.QueryRowContext(ctx, query, id, threshold, lockUntil).Scan(&locked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, common.ErrorNotFound
		}
		return false, fmt.Errorf("db error: %w", err)
	}
	return locked, nil
}

func (r *PostgresRepository) RegisterLoginSuccess(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE users
		SET last_login = $2, login_attempts = 0, lock_until = NULL, updated_at = $2
		WHERE id = $1
	`
	return r.execOne(ctx, query, id, at)
}

func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, id string, hash string) error {
	query := `
		UPDATE users
		SET password_hash = $2, updated_at = now()
		WHERE id = $1
	`
	return r.execOne(ctx, query, id, hash)
}

// execOne runs an UPDATE that must touch exactly one row.
func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
