// Package refreshtokens declares the repository contract for persisted
// refresh tokens.
package refreshtokens

import (
	"context"

	"github.com/dmitrijs2005/giftauth/internal/server/models"
)

// Repository defines issuing, lookup and revocation of refresh tokens.
// Rotation is always delete-then-create; rows are never updated in place.
type Repository interface {
	// Create stores t. ExpiresAt must already be set by the caller.
	Create(ctx context.Context, t *models.RefreshToken) error

	// Find returns common.ErrorNotFound when the token is absent.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// DeleteByID removes exactly one row. It returns common.ErrorNotFound when
	// nothing was deleted, which is how a concurrent second rotation loses.
	DeleteByID(ctx context.Context, id string) error

	// Delete removes a token by value. Absence is reported as
	// common.ErrorNotFound so callers can log it.
	Delete(ctx context.Context, token string) error

	// DeleteAllForUser revokes every session of userID and returns the count.
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)
}
