package gifts

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

func (r *PostgresRepository) Create(ctx context.Context, g *models.Gift) (string, error) {
	query := `
		INSERT INTO gifts (sender_id, recipient_id, amount, currency, message, status, hide_amount, hide_sender,
		                   unlock_datetime, sender_name, sender_email, sender_avatar)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	var id string
	err := r.db.QueryRowContext(ctx, query,
		g.SenderID, g.RecipientID, g.Amount, g.Currency, g.Message, g.Status, g.HideAmount, g.HideSender,
		g.UnlockDatetime, g.SenderName, g.SenderEmail, g.SenderAvatar,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) Find(ctx context.Context, id string) (*models.GiftWithParties, error) {
	query := `
		SELECT g.id, g.sender_id, g.recipient_id, g.amount, g.currency, g.message, g.status,
		       g.hide_amount, g.hide_sender, g.unlock_datetime, g.sender_name, g.sender_email, g.sender_avatar,
		       g.created_at, g.updated_at,
		       r.id, r.name, r.email,
		       COALESCE(s.name, g.sender_name)
		FROM gifts g
		JOIN users r ON r.id = g.recipient_id
		LEFT JOIN users s ON s.id = g.sender_id
		WHERE g.id = $1
	`
	g := &models.GiftWithParties{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&g.ID, &g.SenderID, &g.RecipientID, &g.Amount, &g.Currency, &g.Message, &g.Status,
		&g.HideAmount, &g.HideSender, &g.UnlockDatetime, &g.SenderName, &g.SenderEmail, &g.SenderAvatar,
		&g.CreatedAt, &g.UpdatedAt,
		&g.Recipient.ID, &g.Recipient.Name, &g.Recipient.Email,
		&g.SenderDisplayName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return g, nil
}

func (r *PostgresRepository) HasRecentDuplicate(ctx context.Context, senderEmail, recipientID string, amount float64, since time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM gifts
			WHERE sender_email = $1 AND recipient_id = $2 AND amount = $3 AND created_at >= $4
		)
	`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, senderEmail, recipientID, amount, since).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) Totals(ctx context.Context, userID string) (*models.DashboardTotals, error) {
	query := `
		SELECT
			(SELECT COALESCE(SUM(balance), 0) FROM wallets WHERE user_id = $1),
			(SELECT COALESCE(SUM(amount), 0) FROM gifts WHERE sender_id = $1 AND status <> $2),
			(SELECT COALESCE(SUM(amount), 0) FROM gifts WHERE recipient_id = $1 AND status <> $2),
			(SELECT COUNT(*) FROM gifts WHERE (sender_id = $1 OR recipient_id = $1) AND status <> $2)
	`
	t := &models.DashboardTotals{}
	err := r.db.QueryRowContext(ctx, query, userID, models.GiftStatusFailed).
		Scan(&t.Balance, &t.TotalSent, &t.TotalReceived, &t.TransactionCount)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}
