package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/giftauth/internal/common"
	"github.com/dmitrijs2005/giftauth/internal/logging"
	"github.com/dmitrijs2005/giftauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/giftauth/internal/validation"
)

const (
	MsgPhoneRequired = "Phone number is required"
	MsgInvalidPhone  = "Invalid phone number format"
	MsgUserNotFound  = "User not found"

	maxPhoneLength = 30
)

// AvatarResolver turns a stored avatar reference into a fetchable URL.
type AvatarResolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// PublicProfile is what a phone lookup reveals about an account.
type PublicProfile struct {
	DisplayName *string
	Username    *string
	AvatarURL   *string
}

type LookupService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	avatars     AvatarResolver
	logger      logging.Logger
}

func NewLookupService(db *sql.DB, m repomanager.RepositoryManager, avatars AvatarResolver, logger logging.Logger) *LookupService {
	return &LookupService{db: db, repomanager: m, avatars: avatars, logger: logger.With("module", "lookup")}
}

// ByPhone finds the account registered with phone.
func (s *LookupService) ByPhone(ctx context.Context, phone string) (*PublicProfile, error) {
	if phone == "" {
		return nil, common.NewValidationError(MsgPhoneRequired)
	}
	if len(phone) > maxPhoneLength || !validation.ValidatePhoneNumber(phone) {
		return nil, common.NewValidationError(MsgInvalidPhone)
	}

	p, err := s.repomanager.Users(s.db).GetPublicProfileByPhone(ctx, validation.NormalizePhoneNumber(phone))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewNotFoundError(MsgUserNotFound)
		}
		return nil, internal(ctx, s.logger, "USER_LOOKUP_ERROR", err)
	}

	out := &PublicProfile{DisplayName: p.DisplayName, Username: p.Username}
	if p.AvatarURL != nil && *p.AvatarURL != "" {
		url := *p.AvatarURL
		if s.avatars != nil {
			resolved, err := s.avatars.Resolve(ctx, url)
			if err != nil {
				// the profile is still useful without a picture
				s.logger.Warn(ctx, "avatar url not signed", "error", err.Error())
				resolved = ""
			}
			url = resolved
		}
		if url != "" {
			out.AvatarURL = &url
		}
	}
	return out, nil
}
