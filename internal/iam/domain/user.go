package domain

import "time"

type User struct {
	ID            string
	CompanyID     *string // nullable until the user is assigned to a company
	Email         string  // globally unique
	PasswordHash  string  // argon2id PHC string
	FirstName     string
	LastName      string
	Active        bool
	EmailVerified bool
	OTPSecret     *string // base32 TOTP secret (nullable)
	OTPEnabled    bool
	RoleID        *string // nullable; permissions resolve to the empty set

	// RefreshTokenHash holds the fingerprint of the single active refresh
	// token, or nil when the user has no session. Rotation replaces the value
	// with a conditional update so concurrent refreshes cannot both win.
	RefreshTokenHash *string
	RefreshExpiresAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CompanyIDOrEmpty flattens the nullable company reference for token claims.
func (u User) CompanyIDOrEmpty() string {
	if u.CompanyID == nil {
		return ""
	}
	return *u.CompanyID
}
