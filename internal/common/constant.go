package common

// AuthorizationHeaderName carries the bearer access token on private routes.
const AuthorizationHeaderName = "Authorization"

// InternalErrorMessage is the only text a caller ever sees for a 500.
const InternalErrorMessage = "Internal server error"

// Account status values.
const (
	StatusUnverified = "unverified"
	StatusActive     = "active"
	StatusSuspended  = "suspended"
)

// DefaultRole is assigned to every self-registered account.
const DefaultRole = "user"
