// Package gifts stores gifts and the aggregates read by the dashboard.
package gifts

import (
	"context"
	"time"

	"github.com/dmitrijs2005/giftauth/internal/server/models"
)

type Repository interface {
	// Create inserts g and returns the generated id.
	Create(ctx context.Context, g *models.Gift) (string, error)

	// Find returns the gift joined with its recipient and sender display
	// name, or common.ErrorNotFound.
	Find(ctx context.Context, id string) (*models.GiftWithParties, error)

	// HasRecentDuplicate reports whether a gift with the same sender email,
	// recipient and amount was created at or after since.
	HasRecentDuplicate(ctx context.Context, senderEmail, recipientID string, amount float64, since time.Time) (bool, error)

	// Totals sums the user's wallets and non-failed gifts.
	Totals(ctx context.Context, userID string) (*models.DashboardTotals, error)
}
