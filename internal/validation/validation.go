// Package validation contains the pure input checks shared by the auth,
// lookup and gift flows. Every function is total and side-effect free.
package validation

import (
	"regexp"
	"strings"
	"time"
	"unicode"
)

// PasswordRequirements is returned to clients whenever ValidatePassword fails.
const PasswordRequirements = "Password must be at least 8 characters long and contain at least one uppercase letter, one lowercase letter, one number, and one special character."

// MaxAmount is the largest gift amount accepted, inclusive.
const MaxAmount = 10000

const passwordSpecials = "@$!%*?&"

const emailLocalChars = `a-z0-9!#$%&'*+/=?^_` + "`" + `{|}~-`

var emailRe = regexp.MustCompile(`(?i)^(?:[` + emailLocalChars + `]+(?:\.[` + emailLocalChars + `]+)*` +
	`|"(?:[\x01-\x08\x0b\x0c\x0e-\x1f\x21\x23-\x5b\x5d-\x7f]|\\[\x01-\x09\x0b\x0c\x0e-\x7f])*")` +
	`@(?:(?:[a-z0-9](?:[a-z0-9-]*[a-z0-9])?\.)+[a-z0-9](?:[a-z0-9-]*[a-z0-9])?` +
	`|\[(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?` +
	`|[a-z0-9-]*[a-z0-9]:(?:[\x01-\x08\x0b\x0c\x0e-\x1f\x21-\x5a\x53-\x7f]|\\[\x01-\x09\x0b\x0c\x0e-\x7f])+)\])$`)

var phoneRe = regexp.MustCompile(`^\+?\d{7,15}$`)

var supportedCurrencies = map[string]struct{}{
	"USD": {},
	"EUR": {},
	"GBP": {},
	"NGN": {},
}

// ValidateEmail reports whether s looks like an RFC 5322 address.
// No normalisation is applied; callers trim with SanitizeInput first.
func ValidateEmail(s string) bool {
	return emailRe.MatchString(s)
}

// SanitizeInput trims surrounding whitespace. It is a convenience, not a
// security filter.
func SanitizeInput(s string) string {
	return strings.TrimSpace(s)
}

// ValidatePassword reports whether s is at least 8 characters drawn only from
// letters, digits and @$!%*?&, with at least one of each class.
func ValidatePassword(s string) bool {
	if len(s) < 8 {
		return false
	}
	var lower, upper, digit, special bool
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
			lower = true
		case c >= 'A' && c <= 'Z':
			upper = true
		case c >= '0' && c <= '9':
			digit = true
		case strings.IndexByte(passwordSpecials, c) >= 0:
			special = true
		default:
			return false
		}
	}
	return lower && upper && digit && special
}

// ValidateAmount reports whether 0 < n <= MaxAmount.
func ValidateAmount(n float64) bool {
	return n > 0 && n <= MaxAmount
}

// ValidateCurrency reports whether the upper-cased code is supported.
func ValidateCurrency(s string) bool {
	_, ok := supportedCurrencies[strings.ToUpper(s)]
	return ok
}

// NormalizePhoneNumber drops whitespace, hyphens, parentheses and dots.
// A leading '+' and any other character are kept.
func NormalizePhoneNumber(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		switch r {
		case '-', '(', ')', '.':
			return -1
		}
		return r
	}, s)
}

// ValidatePhoneNumber normalises s and checks for an optional '+' followed by
// 7 to 15 digits.
func ValidatePhoneNumber(s string) bool {
	return phoneRe.MatchString(NormalizePhoneNumber(s))
}

// ValidateFutureDatetime reports whether t is set and strictly after now.
func ValidateFutureDatetime(t time.Time) bool {
	return IsFutureAt(t, time.Now())
}

// IsFutureAt is ValidateFutureDatetime with an explicit reference time.
func IsFutureAt(t, now time.Time) bool {
	return !t.IsZero() && t.After(now)
}
