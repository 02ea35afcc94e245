package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dmitrijs2005/giftauth/internal/common"
	"github.com/dmitrijs2005/giftauth/internal/dbx"
	"github.com/dmitrijs2005/giftauth/internal/logging"
	"github.com/dmitrijs2005/giftauth/internal/server/audit"
	"github.com/dmitrijs2005/giftauth/internal/server/auth"
	"github.com/dmitrijs2005/giftauth/internal/server/config"
	"github.com/dmitrijs2005/giftauth/internal/server/models"
	"github.com/dmitrijs2005/giftauth/internal/server/notify"
	"github.com/dmitrijs2005/giftauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/giftauth/internal/timex"
	"github.com/dmitrijs2005/giftauth/internal/validation"
	"github.com/google/uuid"
)

// Messages returned by the auth flows.
const (
	MsgEmailPasswordRequired = "Email and password are required"
	MsgInvalidEmail          = "Invalid email format"
	MsgPasswordTooWeak       = "Password too weak"
	MsgEmailRegistered       = "Email already registered"
	MsgInvalidCredentials    = "Invalid credentials"
	MsgAccountUnverified     = "Account is unverified. Please verify your email."
	MsgAccountSuspended      = "Account is suspended."
	MsgAccountLockedDetails  = "Account locked due to too many failed attempts."
	MsgRefreshRequired       = "Refresh token is required"
	MsgInvalidRefresh        = "Invalid refresh token"
	MsgTokenNotFound         = "Token not found"
	MsgTokenRevoked          = "Token has been revoked"
	MsgTokenExpired          = "Token has expired"
	MsgEmailRequired         = "Email is required"
	MsgResetFieldsRequired   = "Token and new password are required"
	MsgInvalidTokenFormat    = "Invalid token format"
	MsgInvalidOrExpiredToken = "Invalid or expired token"
	MsgTokenAlreadyUsed      = "Token has already been used"
)

type RegisterInput struct {
	Email    string
	Password string
	Name     *string
}

type RegisterResult struct {
	UserID                string
	Email                 string
	VerificationInitiated bool
}

type LoginInput struct {
	Email     string
	Password  string
	IP        string
	UserAgent string
}

type LoginUser struct {
	ID        string
	Email     string
	Name      *string
	Role      string
	Status    string
	LastLogin time.Time
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         LoginUser
}

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthService implements registration, login with lock-out, refresh-token
// rotation, logout and the password reset flow.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenService
	hasher      *auth.PasswordHasher
	mailer      notify.Mailer
	background  Background
	audit       audit.Sink
	logger      logging.Logger
	clock       timex.Clock

	lockoutThreshold         int
	lockoutDuration          time.Duration
	resetTokenValidity       time.Duration
	verificationCodeValidity time.Duration
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, tokens *auth.TokenService, mailer notify.Mailer,
	background Background, sink audit.Sink, logger logging.Logger, cfg *config.Config) *AuthService {
	return &AuthService{
		db:                       db,
		repomanager:              m,
		tokens:                   tokens,
		hasher:                   auth.NewPasswordHasher(),
		mailer:                   mailer,
		background:               background,
		audit:                    sink,
		logger:                   logger.With("module", "auth"),
		lockoutThreshold:         cfg.LockoutThreshold,
		lockoutDuration:          cfg.LockoutDuration,
		resetTokenValidity:       cfg.ResetTokenValidityDuration,
		verificationCodeValidity: cfg.VerificationCodeValidityDuration,
	}
}

// WithClock pins the service's notion of now.
func (s *AuthService) WithClock(c timex.Clock) *AuthService {
	s.clock = c
	return s
}

// WithHasher replaces the bcrypt hasher (tests use a cheaper cost).
func (s *AuthService) WithHasher(h *auth.PasswordHasher) *AuthService {
	s.hasher = h
	return s
}

func weakPasswordError() *common.AppError {
	return common.NewValidationError(MsgPasswordTooWeak).
		WithDetails(map[string]string{"message": validation.PasswordRequirements})
}

// Register creates an unverified account and starts email verification.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	if in.Email == "" || in.Password == "" {
		return nil, common.NewValidationError(MsgEmailPasswordRequired)
	}
	email := validation.SanitizeInput(in.Email)
	if !validation.ValidateEmail(email) {
		return nil, common.NewValidationError(MsgInvalidEmail)
	}
	if !validation.ValidatePassword(in.Password) {
		return nil, weakPasswordError()
	}

	_, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, common.NewConflictError(MsgEmailRegistered)
	case !errors.Is(err, common.ErrorNotFound):
		return nil, internal(ctx, s.logger, "REGISTER_ERROR", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, internal(ctx, s.logger, "REGISTER_ERROR", err)
	}

	var name *string
	if in.Name != nil && *in.Name != "" {
		n := validation.SanitizeInput(*in.Name)
		name = &n
	}

	code, codeHash, err := auth.NewVerificationCode()
	if err != nil {
		return nil, internal(ctx, s.logger, "REGISTER_ERROR", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         common.DefaultRole,
		Status:       common.StatusUnverified,
	}

	var created *models.User
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		created, err = s.repomanager.Users(tx).Create(ctx, user)
		if err != nil {
			if errors.Is(err, common.ErrorAlreadyExists) {
				return common.NewConflictError(MsgEmailRegistered)
			}
			return fmt.Errorf("error creating user: %w", err)
		}
		return s.repomanager.Verifications(tx).Upsert(ctx, &models.EmailVerification{
			UserID:    created.ID,
			CodeHash:  codeHash,
			ExpiresAt: s.clock.Now().Add(s.verificationCodeValidity),
		})
	})
	if err != nil {
		return nil, internal(ctx, s.logger, "REGISTER_ERROR", err)
	}

	to, displayName := created.Email, deref(created.Name)
	s.background.Go("REGISTER_VERIFICATION_EMAIL_ERROR", func(ctx context.Context) error {
		return s.mailer.SendVerificationEmail(ctx, to, code, displayName)
	})

	return &RegisterResult{UserID: created.ID, Email: created.Email, VerificationInitiated: true}, nil
}

// Login checks credentials, drives the lock-out counter and on success
// issues a token pair whose refresh half is persisted.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if in.Email == "" || in.Password == "" {
		return nil, common.NewValidationError(MsgEmailPasswordRequired)
	}
	email := validation.SanitizeInput(in.Email)
	if !validation.ValidateEmail(email) {
		return nil, common.NewValidationError(MsgInvalidEmail)
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewAuthenticationError(MsgInvalidCredentials)
		}
		return nil, internal(ctx, s.logger, "LOGIN_ERROR", err)
	}

	now := s.clock.Now()
	if user.IsLocked(now) {
		minutes := int(math.Ceil(user.LockUntil.Sub(now).Minutes()))
		return nil, common.NewLockedError(fmt.Sprintf("Account is temporarily locked. Try again in %d minutes.", minutes))
	}

	switch user.Status {
	case common.StatusUnverified:
		return nil, common.NewAuthorizationError(MsgAccountUnverified)
	case common.StatusSuspended:
		return nil, common.NewAuthorizationError(MsgAccountSuspended)
	}

	if !s.hasher.Compare(user.PasswordHash, in.Password) {
		locked, err := s.repomanager.Users(s.db).RegisterLoginFailure(ctx, user.ID, s.lockoutThreshold, now.Add(s.lockoutDuration))
		if err != nil {
			return nil, internal(ctx, s.logger, "LOGIN_ERROR", err)
		}
		appErr := common.NewAuthenticationError(MsgInvalidCredentials)
		if locked {
			s.logger.Warn(ctx, "account locked", "user_id", user.ID)
			return nil, appErr.WithDetails(MsgAccountLockedDetails)
		}
		return nil, appErr
	}

	payload := auth.Payload{UserID: user.ID, Email: user.Email, Role: user.Role}
	access, err := s.tokens.GenerateAccessToken(payload)
	if err != nil {
		return nil, internal(ctx, s.logger, "LOGIN_ERROR", err)
	}
	refresh, err := s.tokens.GenerateRefreshToken(payload)
	if err != nil {
		return nil, internal(ctx, s.logger, "LOGIN_ERROR", err)
	}

	var device *string
	if in.UserAgent != "" {
		ua := in.UserAgent
		device = &ua
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).RegisterLoginSuccess(ctx, user.ID, now); err != nil {
			return err
		}
		return s.repomanager.RefreshTokens(tx).Create(ctx, &models.RefreshToken{
			UserID:     user.ID,
			Token:      refresh,
			ExpiresAt:  now.Add(s.tokens.RefreshTTL()),
			DeviceInfo: device,
		})
	})
	if err != nil {
		return nil, internal(ctx, s.logger, "LOGIN_ERROR", err)
	}

	s.emitAudit(audit.Event{Timestamp: now, EventType: audit.EventLoginSuccess, UserID: user.ID, IP: in.IP})

	return &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		User: LoginUser{
			ID:        user.ID,
			Email:     user.Email,
			Name:      user.Name,
			Role:      user.Role,
			Status:    user.Status,
			LastLogin: now,
		},
	}, nil
}

// Refresh rotates a stored refresh token. The old row is deleted and the new
// one inserted in the same transaction; a token rotated concurrently by
// another request is reported as not found.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, common.NewValidationError(MsgRefreshRequired)
	}

	payload, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, common.NewAuthenticationError(MsgInvalidRefresh)
	}

	stored, err := s.repomanager.RefreshTokens(s.db).Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewAuthenticationError(MsgTokenNotFound)
		}
		return nil, internal(ctx, s.logger, "REFRESH_ERROR", err)
	}

	now := s.clock.Now()
	if stored.RevokedAt != nil {
		return nil, common.NewAuthenticationError(MsgTokenRevoked)
	}
	if now.After(stored.ExpiresAt) {
		return nil, common.NewAuthenticationError(MsgTokenExpired)
	}

	next := auth.Payload{UserID: payload.UserID, Email: payload.Email, Role: payload.Role}
	access, err := s.tokens.GenerateAccessToken(next)
	if err != nil {
		return nil, internal(ctx, s.logger, "REFRESH_ERROR", err)
	}
	refresh, err := s.tokens.GenerateRefreshToken(next)
	if err != nil {
		return nil, internal(ctx, s.logger, "REFRESH_ERROR", err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.RefreshTokens(tx)
		if err := repo.DeleteByID(ctx, stored.ID); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.NewAuthenticationError(MsgTokenNotFound)
			}
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		return repo.Create(ctx, &models.RefreshToken{
			UserID:     stored.UserID,
			Token:      refresh,
			ExpiresAt:  now.Add(s.tokens.RefreshTTL()),
			DeviceInfo: stored.DeviceInfo,
		})
	})
	if err != nil {
		return nil, internal(ctx, s.logger, "REFRESH_ERROR", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Logout deletes the stored refresh token. A missing token or a store error
// is logged and otherwise ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return common.NewValidationError(MsgRefreshRequired)
	}

	if err := s.repomanager.RefreshTokens(s.db).Delete(ctx, refreshToken); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Info(ctx, "logout for unknown refresh token")
		} else {
			s.logger.Error(ctx, "[LOGOUT_ERROR]", "error", err.Error())
		}
	}
	return nil
}

// ForgotPassword issues a reset token when the account exists. The outcome is
// indistinguishable to the caller either way.
func (s *AuthService) ForgotPassword(ctx context.Context, email, ip string) error {
	if email == "" {
		return common.NewValidationError(MsgEmailRequired)
	}
	email = validation.SanitizeInput(email)
	if !validation.ValidateEmail(email) {
		return common.NewValidationError(MsgInvalidEmail)
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return internal(ctx, s.logger, "FORGOT_PASSWORD_ERROR", err)
	}

	token := auth.NewResetToken()
	reset := &models.PasswordReset{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: s.clock.Now().Add(s.resetTokenValidity),
	}
	if ip != "" {
		reset.IPAddress = &ip
	}
	if err := s.repomanager.PasswordResets(s.db).Create(ctx, reset); err != nil {
		return internal(ctx, s.logger, "FORGOT_PASSWORD_ERROR", err)
	}

	to, name := user.Email, deref(user.Name)
	s.background.Go("FORGOT_PASSWORD_EMAIL_ERROR", func(ctx context.Context) error {
		return s.mailer.SendForgotPasswordEmail(ctx, to, token, name)
	})
	return nil
}

// ResetPassword consumes a reset token, sets the new password and revokes
// every session of the user, all in one transaction.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return common.NewValidationError(MsgResetFieldsRequired)
	}
	if !auth.IsResetTokenFormat(token) {
		return common.NewValidationError(MsgInvalidTokenFormat)
	}
	if !validation.ValidatePassword(newPassword) {
		return weakPasswordError()
	}

	reset, err := s.repomanager.PasswordResets(s.db).Find(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.NewValidationError(MsgInvalidOrExpiredToken)
		}
		return internal(ctx, s.logger, "RESET_PASSWORD_ERROR", err)
	}

	now := s.clock.Now()
	if reset.UsedAt != nil {
		return common.NewValidationError(MsgTokenAlreadyUsed)
	}
	if now.After(reset.ExpiresAt) {
		return common.NewValidationError(MsgTokenExpired)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return internal(ctx, s.logger, "RESET_PASSWORD_ERROR", err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).UpdatePasswordHash(ctx, reset.UserID, hash); err != nil {
			return err
		}
		if err := s.repomanager.PasswordResets(tx).MarkUsed(ctx, reset.ID, now); err != nil {
			if errors.Is(err, common.ErrTokenAlreadyUsed) {
				return common.NewValidationError(MsgTokenAlreadyUsed)
			}
			return err
		}
		_, err := s.repomanager.RefreshTokens(tx).DeleteAllForUser(ctx, reset.UserID)
		return err
	})
	if err != nil {
		return internal(ctx, s.logger, "RESET_PASSWORD_ERROR", err)
	}

	to, name := reset.UserEmail, deref(reset.UserName)
	s.background.Go("RESET_PASSWORD_CONFIRMATION_ERROR", func(ctx context.Context) error {
		return s.mailer.SendPasswordResetConfirmationEmail(ctx, to, name)
	})
	s.emitAudit(audit.Event{Timestamp: now, EventType: audit.EventPasswordReset, UserID: reset.UserID})

	return nil
}

func (s *AuthService) emitAudit(e audit.Event) {
	if s.audit == nil {
		return
	}
	s.background.Go("AUTH_AUDIT_ERROR", func(ctx context.Context) error {
		s.audit.Emit(ctx, e)
		return nil
	})
}
