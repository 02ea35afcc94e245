package models

import "time"

const (
	GiftStatusPendingReview = "pending_review"
	GiftStatusPendingOTP    = "pending_otp"
	GiftStatusOTPVerified   = "otp_verified"
	GiftStatusFailed        = "failed"
)

type Gift struct {
	ID             string
	SenderID       *string
	RecipientID    string
	Amount         float64
	Currency       string
	Message        *string
	Status         string
	HideAmount     bool
	HideSender     bool
	UnlockDatetime *time.Time
	SenderName     *string
	SenderEmail    *string
	SenderAvatar   *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// GiftRecipient is the recipient projection embedded in gift responses.
type GiftRecipient struct {
	ID    string
	Name  *string
	Email string
}

// GiftWithParties is a gift joined with its recipient and the sender's
// display name (the sender account's name, falling back to the name typed
// into the public form).
type GiftWithParties struct {
	Gift
	Recipient         GiftRecipient
	SenderDisplayName *string
}

// DashboardTotals aggregates a user's wallet and non-failed gifts.
type DashboardTotals struct {
	Balance          float64
	TotalSent        float64
	TotalReceived    float64
	TransactionCount int64
}
