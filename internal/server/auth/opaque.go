package auth

import (
	"regexp"

	"github.com/dmitrijs2005/giftauth/internal/common"
	"github.com/google/uuid"
)

// VerificationCodeLength is the number of digits in an email OTP.
const VerificationCodeLength = 6

var resetTokenRe = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// NewResetToken returns a fresh UUID v4 password-reset token.
func NewResetToken() string {
	return uuid.NewString()
}

// IsResetTokenFormat reports whether s has the 8-4-4-4-12 hex layout.
func IsResetTokenFormat(s string) bool {
	return resetTokenRe.MatchString(s)
}

// NewVerificationCode returns a numeric OTP and the hash to store for it.
func NewVerificationCode() (code, hash string, err error) {
	code, err = common.MakeRandDigits(VerificationCodeLength)
	if err != nil {
		return "", "", err
	}
	return code, HashVerificationCode(code), nil
}

// HashVerificationCode is the stored form of an OTP.
func HashVerificationCode(code string) string {
	return common.SHA256Hex(code)
}
