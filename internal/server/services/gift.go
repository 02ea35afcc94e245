package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/giftauth/internal/common"
	"github.com/dmitrijs2005/giftauth/internal/fees"
	"github.com/dmitrijs2005/giftauth/internal/logging"
	"github.com/dmitrijs2005/giftauth/internal/server/models"
	"github.com/dmitrijs2005/giftauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/giftauth/internal/timex"
	"github.com/dmitrijs2005/giftauth/internal/validation"
	"github.com/google/uuid"
)

const (
	MsgGiftNotFound         = "Gift not found"
	MsgGiftNotPendingReview = "Gift is not in pending_review status"
	MsgForbidden            = "Forbidden"
	MsgGiftFieldsRequired   = "recipientId, amount, currency, senderName, and senderEmail are required"
	MsgInvalidAmount        = "Amount must be a positive number not exceeding 10,000"
	MsgUnsupportedCurrency  = "Unsupported currency. Accepted: USD, EUR, GBP, NGN"
	MsgInvalidSenderEmail   = "Invalid sender email address"
	MsgInvalidUnlock        = "Delivery datetime must be a valid date in the future"
	MsgRecipientNotFound    = "Recipient not found"
	MsgDuplicateGift        = "A similar gift was recently submitted. Please wait before trying again."

	MaxGiftMessageLength = 500
	duplicateWindow      = 5 * time.Minute
)

var MsgMessageTooLong = fmt.Sprintf("Message must not exceed %d characters", MaxGiftMessageLength)

// PublicGiftInput is the decoded public gift form. Amount keeps the decoded
// JSON value so that a non-numeric amount is told apart from a missing one.
type PublicGiftInput struct {
	RecipientID    string
	Amount         any
	Currency       string
	UnlockDatetime *string
	HideAmount     *bool
	Message        *string
	SenderName     string
	SenderEmail    string
	SenderAvatar   *string
}

type CreatedGift struct {
	GiftID string
	Status string
}

type GiftSummary struct {
	Recipient      models.GiftRecipient
	Amount         float64
	Currency       string
	ProcessingFee  float64
	TotalAmount    float64
	HideAmount     bool
	HideSender     bool
	UnlockDatetime *time.Time
	Message        *string
	SenderName     *string
}

type GiftDetails struct {
	ID        string
	Recipient models.GiftRecipient
	Amount    float64
	Currency  string
	Message   *string
	Status    string
}

type DashboardSummary struct {
	Balance          float64
	TotalSent        float64
	TotalReceived    float64
	TransactionCount int64
}

type GiftService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	feePolicy   fees.Policy
	logger      logging.Logger
	clock       timex.Clock
}

func NewGiftService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *GiftService {
	return &GiftService{db: db, repomanager: m, feePolicy: fees.DefaultPolicy(), logger: logger.With("module", "gifts")}
}

func (s *GiftService) WithClock(c timex.Clock) *GiftService {
	s.clock = c
	return s
}

// find loads a gift; ids that are not UUIDs cannot exist and are reported
// as not found without a query.
func (s *GiftService) find(ctx context.Context, id, tag string) (*models.GiftWithParties, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.NewNotFoundError(MsgGiftNotFound)
	}
	g, err := s.repomanager.Gifts(s.db).Find(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewNotFoundError(MsgGiftNotFound)
		}
		return nil, internal(ctx, s.logger, tag, err)
	}
	return g, nil
}

// PublicSummary is the pre-payment view of a gift awaiting review.
func (s *GiftService) PublicSummary(ctx context.Context, id string) (*GiftSummary, error) {
	g, err := s.find(ctx, id, "GIFT_SUMMARY_ERROR")
	if err != nil {
		return nil, err
	}
	if g.Status != models.GiftStatusPendingReview {
		return nil, common.NewValidationError(MsgGiftNotPendingReview)
	}

	fee, total := fees.Total(g.Amount, s.feePolicy)
	return &GiftSummary{
		Recipient:      g.Recipient,
		Amount:         g.Amount,
		Currency:       g.Currency,
		ProcessingFee:  fee,
		TotalAmount:    total,
		HideAmount:     g.HideAmount,
		HideSender:     g.HideSender,
		UnlockDatetime: g.UnlockDatetime,
		Message:        g.Message,
		SenderName:     g.SenderDisplayName,
	}, nil
}

// Details returns a gift to its sender while it is in the OTP stage.
func (s *GiftService) Details(ctx context.Context, userID, id string) (*GiftDetails, error) {
	g, err := s.find(ctx, id, "GIFT_DETAILS_ERROR")
	if err != nil {
		return nil, err
	}
	if g.SenderID == nil || *g.SenderID != userID {
		return nil, common.NewAuthorizationError(MsgForbidden)
	}
	if g.Status != models.GiftStatusPendingOTP && g.Status != models.GiftStatusOTPVerified {
		return nil, common.NewNotFoundError(MsgGiftNotFound)
	}
	return &GiftDetails{
		ID:        g.ID,
		Recipient: g.Recipient,
		Amount:    g.Amount,
		Currency:  g.Currency,
		Message:   g.Message,
		Status:    g.Status,
	}, nil
}

func (s *GiftService) DashboardSummary(ctx context.Context, userID string) (*DashboardSummary, error) {
	t, err := s.repomanager.Gifts(s.db).Totals(ctx, userID)
	if err != nil {
		return nil, internal(ctx, s.logger, "DASHBOARD_SUMMARY_ERROR", err)
	}
	return &DashboardSummary{
		Balance:          t.Balance,
		TotalSent:        t.TotalSent,
		TotalReceived:    t.TotalReceived,
		TransactionCount: t.TransactionCount,
	}, nil
}

// DecoyGift is the response handed to a request that filled the honeypot.
// Nothing is stored.
func DecoyGift() *CreatedGift {
	return &CreatedGift{GiftID: uuid.NewString(), Status: models.GiftStatusPendingReview}
}

// CreatePublic stores a gift submitted through the anonymous form.
func (s *GiftService) CreatePublic(ctx context.Context, in PublicGiftInput) (*CreatedGift, error) {
	amount, isNumber := in.Amount.(float64)
	if in.RecipientID == "" || isFalsy(in.Amount) || in.Currency == "" || in.SenderName == "" || in.SenderEmail == "" {
		return nil, common.NewValidationError(MsgGiftFieldsRequired)
	}
	if !isNumber || !validation.ValidateAmount(amount) {
		return nil, common.NewUnprocessableError(MsgInvalidAmount)
	}
	if !validation.ValidateCurrency(in.Currency) {
		return nil, common.NewUnprocessableError(MsgUnsupportedCurrency)
	}
	if !validation.ValidateEmail(in.SenderEmail) {
		return nil, common.NewUnprocessableError(MsgInvalidSenderEmail)
	}

	now := s.clock.Now()
	var unlock *time.Time
	if in.UnlockDatetime != nil {
		t, err := parseDatetime(*in.UnlockDatetime)
		if err != nil || !validation.IsFutureAt(t, now) {
			return nil, common.NewUnprocessableError(MsgInvalidUnlock)
		}
		unlock = &t
	}
	if in.Message != nil && utf8.RuneCountInString(*in.Message) > MaxGiftMessageLength {
		return nil, common.NewUnprocessableError(MsgMessageTooLong)
	}

	if _, err := uuid.Parse(in.RecipientID); err != nil {
		return nil, common.NewNotFoundError(MsgRecipientNotFound)
	}
	if _, err := s.repomanager.Users(s.db).GetByID(ctx, in.RecipientID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewNotFoundError(MsgRecipientNotFound)
		}
		return nil, internal(ctx, s.logger, "PUBLIC_GIFT_CREATE_ERROR", err)
	}

	senderEmail := strings.ToLower(validation.SanitizeInput(in.SenderEmail))
	giftsRepo := s.repomanager.Gifts(s.db)

	dup, err := giftsRepo.HasRecentDuplicate(ctx, senderEmail, in.RecipientID, amount, now.Add(-duplicateWindow))
	if err != nil {
		return nil, internal(ctx, s.logger, "PUBLIC_GIFT_CREATE_ERROR", err)
	}
	if dup {
		return nil, common.NewConflictError(MsgDuplicateGift)
	}

	senderName := validation.SanitizeInput(in.SenderName)
	g := &models.Gift{
		RecipientID:    in.RecipientID,
		Amount:         amount,
		Currency:       strings.ToUpper(in.Currency),
		Message:        sanitizedOrNil(in.Message),
		Status:         models.GiftStatusPendingReview,
		HideAmount:     in.HideAmount != nil && *in.HideAmount,
		UnlockDatetime: unlock,
		SenderName:     &senderName,
		SenderEmail:    &senderEmail,
		SenderAvatar:   sanitizedOrNil(in.SenderAvatar),
	}

	id, err := giftsRepo.Create(ctx, g)
	if err != nil {
		return nil, internal(ctx, s.logger, "PUBLIC_GIFT_CREATE_ERROR", err)
	}
	return &CreatedGift{GiftID: id, Status: models.GiftStatusPendingReview}, nil
}

// isFalsy mirrors how a loosely typed form treats an absent amount.
func isFalsy(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return x == 0
	case string:
		return x == ""
	case bool:
		return !x
	}
	return false
}

func sanitizedOrNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := validation.SanitizeInput(*s)
	return &v
}

var datetimeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"}

func parseDatetime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised datetime %q", s)
}
