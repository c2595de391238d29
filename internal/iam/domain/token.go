package domain

import "time"

// TokenPair is what a successful authentication returns: a short-lived access
// token and a longer-lived refresh token, both signed JWTs.
type TokenPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type,omitempty"` // typically "Bearer"
	ExpiresIn    time.Duration `json:"expires_in"`           // access token lifetime
}

// SignInResult is the outcome of a credential check. When OTPRequired is set
// the second factor must be completed via VerifyOTP before tokens are issued,
// and Tokens is nil.
type SignInResult struct {
	OTPRequired bool
	Tokens      *TokenPair
}

// TokenPurpose labels an ephemeral single-use token in the cache.
type TokenPurpose string

const (
	PurposeVerifyEmail   TokenPurpose = "verify-email"
	PurposePasswordReset TokenPurpose = "password-reset"
)
