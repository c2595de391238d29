package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTLs. Short-lived access tokens bound the exposure window
// after logout; refresh tokens are long-lived for user convenience.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Token use values carried in the "typ" claim. A refresh token presented to
// the resource side (or vice versa) is rejected on that claim alone.
const (
	TokenUseAccess  = "access"
	TokenUseRefresh = "refresh"
)

// Claims is the minimal identity claim set embedded in every signed token.
// Keep changes additive to preserve compatibility for downstream services.
type Claims struct {
	jwt.RegisteredClaims

	// CompanyID scopes the session to the user's company. Empty for users
	// not yet assigned to a company.
	CompanyID string `json:"cid,omitempty"`

	// OTPEnabled records whether the session completed a second factor.
	OTPEnabled bool `json:"otp,omitempty"`

	// TokenUse distinguishes access from refresh tokens.
	TokenUse string `json:"typ"`
}

// NewSessionClaims builds minimally-correct claims for a user session.
func NewSessionClaims(
	userID, companyID string,
	otpEnabled bool,
	use string,
	ttl time.Duration,
	issuer string,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		CompanyID:  companyID,
		OTPEnabled: otpEnabled,
		TokenUse:   use,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
