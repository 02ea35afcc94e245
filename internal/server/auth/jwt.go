// Package auth issues and verifies the credentials used by the auth flows:
// HS256 access and refresh tokens, bcrypt password hashes and the opaque
// reset and verification tokens whose validity lives in the database.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/giftauth/internal/common"
	"github.com/dmitrijs2005/giftauth/internal/timex"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	kindAccess  = "access"
	kindRefresh = "refresh"
)

// Payload is the identity carried by both signed token kinds.
type Payload struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// Claims embeds the registered claims plus the payload. Kind keeps an access
// token from being accepted where a refresh token is expected and vice versa.
type Claims struct {
	jwt.RegisteredClaims
	Payload
	Kind string `json:"typ"`
}

// TokenService signs and verifies access and refresh tokens. Each kind has
// its own secret and lifetime.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	clock         timex.Clock
}

func NewTokenService(accessSecret, refreshSecret []byte, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// WithClock returns a copy of s that reads the time from clock.
func (s *TokenService) WithClock(clock timex.Clock) *TokenService {
	c := *s
	c.clock = clock
	return &c
}

// RefreshTTL is the lifetime given to refresh tokens and their stored records.
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

func (s *TokenService) GenerateAccessToken(p Payload) (string, error) {
	return s.generate(p, kindAccess, s.accessSecret, s.accessTTL)
}

func (s *TokenService) GenerateRefreshToken(p Payload) (string, error) {
	return s.generate(p, kindRefresh, s.refreshSecret, s.refreshTTL)
}

// VerifyAccessToken returns the payload of a valid access token.
// Expired tokens yield common.ErrTokenExpired, anything else that fails
// verification yields common.ErrInvalidToken.
func (s *TokenService) VerifyAccessToken(token string) (*Payload, error) {
	return s.verify(token, kindAccess, s.accessSecret)
}

// VerifyRefreshToken checks signature and expiry only. Whether the token is
// still live is decided by its stored record.
func (s *TokenService) VerifyRefreshToken(token string) (*Payload, error) {
	return s.verify(token, kindRefresh, s.refreshSecret)
}

func (s *TokenService) generate(p Payload, kind string, secret []byte, ttl time.Duration) (string, error) {
	now := s.clock.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   p.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Payload: p,
		Kind:    kind,
	})

	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func (s *TokenService) verify(tokenString, kind string, secret []byte) (*Payload, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.clock.Now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Kind != kind || claims.UserID == "" {
		return nil, common.ErrInvalidToken
	}

	p := claims.Payload
	return &p, nil
}
