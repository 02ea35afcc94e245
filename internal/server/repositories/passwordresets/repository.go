// Package passwordresets stores single-use password-reset tokens.
package passwordresets

import (
	"context"
	"time"

	"github.com/dmitrijs2005/giftauth/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, r *models.PasswordReset) error

	// Find returns the reset joined with its owner's email and name, or
	// common.ErrorNotFound.
	Find(ctx context.Context, token string) (*models.PasswordReset, error)

	// MarkUsed sets used_at once. A row that is already used yields
	// common.ErrTokenAlreadyUsed.
	MarkUsed(ctx context.Context, id string, at time.Time) error

	// DeleteStale removes expired, used, or older-than-maxAge records.
	DeleteStale(ctx context.Context, now time.Time, maxAge time.Duration) (int64, error)
}
