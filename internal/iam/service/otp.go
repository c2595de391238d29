package service

import (
	"context"
	"errors"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/teamforge/iam/internal/iam/domain"
	"github.com/teamforge/iam/internal/iam/store"
)

// OTPService manages TOTP enrollment. Verification of codes during login
// lives on AuthService; this service only provisions secrets.
type OTPService struct {
	Store  store.Store
	Issuer string
}

// Setup generates a fresh TOTP secret for the user and stores it, replacing
// any previous secret. The user is not considered enrolled until a code is
// verified through the login flow. Standard parameters: 30 second period,
// six digits, SHA-1.
func (s *OTPService) Setup(ctx context.Context, userID string) (*domain.OTPSetup, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: user.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, err
	}

	if err := s.Store.Users().UpdateOTPSecret(ctx, userID, key.Secret()); err != nil {
		return nil, err
	}

	return &domain.OTPSetup{
		Secret:  key.Secret(),
		URL:     key.URL(),
		Issuer:  s.Issuer,
		Account: user.Email,
	}, nil
}
