// Package users declares the credential-store contract for user accounts.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/giftauth/internal/server/models"
)

type Repository interface {
	// Create inserts u (ID must be set) and returns it with timestamps filled.
	// A duplicate email yields common.ErrorAlreadyExists.
	Create(ctx context.Context, u *models.User) (*models.User, error)

	// GetByEmail and GetByID return common.ErrorNotFound when absent.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)

	// GetPublicProfileByPhone looks up the non-sensitive projection of the
	// account registered with the normalised phone number.
	GetPublicProfileByPhone(ctx context.Context, phone string) (*models.PublicProfile, error)

	// RegisterLoginFailure atomically increments the failed-attempt counter.
	// When the incremented value reaches threshold the counter restarts at 0
	// and lock_until is set to lockUntil; locked reports that transition.
	RegisterLoginFailure(ctx context.Context, id string, threshold int, lockUntil time.Time) (locked bool, err error)

	// RegisterLoginSuccess stamps last_login and clears the lock state.
	RegisterLoginSuccess(ctx context.Context, id string, at time.Time) error

	UpdatePasswordHash(ctx context.Context, id string, hash string) error
}
