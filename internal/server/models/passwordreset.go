package models

import "time"

// PasswordReset is a single-use reset token. UsedAt is set exactly once.
type PasswordReset struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UsedAt    *time.Time
	IPAddress *string

	// Filled by lookups that join the owning user.
	UserEmail string
	UserName  *string
}

// EmailVerification holds the hashed OTP sent after registration.
type EmailVerification struct {
	UserID    string
	CodeHash  string
	ExpiresAt time.Time
	Attempts  int
	CreatedAt time.Time
}
