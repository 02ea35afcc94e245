package models

import "time"

// User is the stored credential record.
type User struct {
	ID            string
	Email         string
	PasswordHash  string
	Name          *string
	Role          string
	Status        string
	LoginAttempts int
	LockUntil     *time.Time
	LastLogin     *time.Time
	PhoneNumber   *string
	Username      *string
	AvatarURL     *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsLocked reports whether a lock is set and still in the future at now.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(now)
}

// PublicProfile is the projection returned by the phone lookup. It never
// carries id, email, password hash or balance.
type PublicProfile struct {
	DisplayName *string
	Username    *string
	AvatarURL   *string
}
