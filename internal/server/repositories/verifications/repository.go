// Package verifications stores the hashed email verification codes issued
// at registration.
package verifications

import (
	"context"

	"github.com/dmitrijs2005/giftauth/internal/server/models"
)

type Repository interface {
	// Upsert replaces any pending code for the user and resets attempts.
	Upsert(ctx context.Context, v *models.EmailVerification) error
}
