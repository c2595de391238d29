package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pquerna/otp/totp"

	"github.com/teamforge/iam/internal/iam/cache"
	"github.com/teamforge/iam/internal/iam/domain"
	"github.com/teamforge/iam/internal/iam/notify"
	"github.com/teamforge/iam/internal/iam/store"
	"github.com/teamforge/iam/pkg/cryptox"
	"github.com/teamforge/iam/pkg/idx"
	"github.com/teamforge/iam/pkg/jwtx"
	"github.com/teamforge/iam/pkg/slogx"
)

// Default ephemeral token lifetimes.
const (
	DefaultVerifyEmailTTL   = 24 * time.Hour
	DefaultPasswordResetTTL = time.Hour
)

// CEORoleName is the built-in role assigned to the first user of a company.
// Registration fails when it has not been seeded.
const CEORoleName = "CEO"

// TokenCodec signs and verifies session tokens with one process-wide key.
type TokenCodec interface {
	jwtx.Signer
	jwtx.Verifier
}

// AuthService orchestrates the credential lifecycle: registration, login,
// token rotation, password reset, email verification, and the OTP challenge.
// It is request-scoped and stateless; all session state lives in the store
// and the ephemeral token cache.
type AuthService struct {
	Store  store.Store
	Cache  cache.Cache
	Sink   notify.Sink
	Tokens TokenCodec
	Issuer string

	AccessTTL  time.Duration
	RefreshTTL time.Duration
	VerifyTTL  time.Duration // email-verification token lifetime
	ResetTTL   time.Duration // password-reset token lifetime
}

// RegisterCompanyResult carries everything a successful registration produced.
type RegisterCompanyResult struct {
	CompanyID string
	UserID    string
	Tokens    domain.TokenPair
}

// RegisterCompany creates a company and its first user atomically, assigns the
// built-in CEO role, and issues the initial token pair. The whole write
// (company, user, refresh persistence) commits or rolls back as one unit;
// partial creation is never observable.
func (s *AuthService) RegisterCompany(
	ctx context.Context,
	companyName, firstName, lastName, email, password string,
) (*RegisterCompanyResult, error) {
	l := slogx.FromContext(ctx)
	now := time.Now().UTC()

	if _, err := s.Store.Users().GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	ceoRole, err := s.Store.Roles().GetRoleByName(ctx, CEORoleName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRoleNotSeeded
		}
		return nil, err
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return nil, err
	}

	companyID := idx.New().String()
	userID := idx.New().String()

	user := domain.User{
		ID:           userID,
		CompanyID:    &companyID,
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		Active:       true,
		RoleID:       &ceoRole.ID,
	}

	pair, refreshFP, refreshExp, err := s.issuePair(user, false, now)
	if err != nil {
		return nil, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Companies().CreateCompany(ctx, domain.Company{ID: companyID, Name: companyName}); err != nil {
			return err
		}
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			return err
		}
		return tx.Users().SetRefreshToken(ctx, userID, refreshFP, refreshExp)
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// Lost the race against a concurrent registration for the same email.
			return nil, ErrEmailTaken
		}
		l.Error("company registration transaction failed",
			slog.String("company_name", companyName),
			slog.Any("error", err),
		)
		return nil, ErrRegistrationFailed
	}

	s.dispatchEphemeralToken(ctx, user, domain.PurposeVerifyEmail, s.verifyTTL(),
		"Verify your email address")

	l.Info("company registered",
		slog.String("company_id", companyID),
		slog.String("user_id", userID),
	)

	return &RegisterCompanyResult{
		CompanyID: companyID,
		UserID:    userID,
		Tokens:    pair,
	}, nil
}

// SignIn checks credentials and either issues a token pair or signals that
// the OTP second factor is still required. Unknown emails and wrong passwords
// return the same error so responses cannot be used for account enumeration.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*domain.SignInResult, error) {
	l := slogx.FromContext(ctx)
	now := time.Now().UTC()

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.Active {
		return nil, ErrUserDeactivated
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		l.Info("password verification failed", slog.String("user_id", user.ID))
		return nil, ErrInvalidCredentials
	}

	// Second factor pending: no tokens until VerifyOTP completes the login.
	if user.OTPEnabled {
		return &domain.SignInResult{OTPRequired: true}, nil
	}

	pair, refreshFP, refreshExp, err := s.issuePair(user, false, now)
	if err != nil {
		return nil, err
	}

	// Single active session: replace whatever refresh token was on record.
	if err := s.Store.Users().SetRefreshToken(ctx, user.ID, refreshFP, refreshExp); err != nil {
		return nil, err
	}

	return &domain.SignInResult{Tokens: &pair}, nil
}

// Refresh exchanges a valid refresh token for a new access/refresh pair,
// rotating the stored token. Presenting a rotated-out token fails, and under
// concurrent refreshes with the same token at most one caller wins the
// compare-and-swap.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	now := time.Now().UTC()

	claims, err := s.Tokens.Verify(refreshToken)
	if err != nil {
		return nil, ErrInvalidRefresh
	}
	if claims.TokenUse != jwtx.TokenUseRefresh {
		return nil, ErrInvalidRefresh
	}

	user, err := s.Store.Users().GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}
	if !user.Active {
		return nil, ErrUserDeactivated
	}

	oldFP := cryptox.FingerprintToken(refreshToken)
	if user.RefreshTokenHash == nil || *user.RefreshTokenHash != oldFP {
		// Reuse of a rotated-out token, or no session on record.
		return nil, ErrInvalidRefresh
	}

	pair, newFP, refreshExp, err := s.issuePair(user, user.OTPEnabled, now)
	if err != nil {
		return nil, err
	}

	if err := s.Store.Users().RotateRefreshToken(ctx, user.ID, oldFP, newFP, refreshExp); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// A concurrent refresh rotated first.
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}

	return &pair, nil
}

// Logout clears the stored refresh token, invalidating future refresh
// attempts immediately. Outstanding access tokens run to natural expiry.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.Store.Users().ClearRefreshToken(ctx, userID)
}

// ForgotPassword creates a single-use reset token and dispatches it via the
// notification sink.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	s.dispatchEphemeralToken(ctx, user, domain.PurposePasswordReset, s.resetTTL(),
		"Reset your password")
	return nil
}

// ResetPassword consumes a reset token and stores the new password hash.
// Single use is enforced by the atomic consume, not merely by expiry; the
// active session (if any) is revoked alongside.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	// Hash first so a hashing failure cannot burn the single-use token. The
	// consume itself must stay a single atomic delete; once it succeeds only
	// a store failure (surfaced as Internal) can strand the caller, and that
	// path requires a fresh forgot-password round trip.
	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return err
	}

	userID, err := s.consumeEphemeralToken(ctx, domain.PurposePasswordReset, token)
	if err != nil {
		return err
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdatePasswordHash(ctx, userID, hash); err != nil {
			return err
		}
		return tx.Users().ClearRefreshToken(ctx, userID)
	})
}

// VerifyEmail consumes a verification token and marks the subject's email as
// verified.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	userID, err := s.consumeEphemeralToken(ctx, domain.PurposeVerifyEmail, token)
	if err != nil {
		return err
	}
	return s.Store.Users().SetEmailVerified(ctx, userID)
}

// VerifyOTP completes the second factor begun at SignIn. On success it marks
// OTP enabled (first verification finishes enrollment) and issues a token
// pair, always rotating the stored refresh token.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (*domain.TokenPair, error) {
	now := time.Now().UTC()

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.Active {
		return nil, ErrUserDeactivated
	}

	if user.OTPSecret == nil || *user.OTPSecret == "" {
		return nil, ErrOTPNotEnrolled
	}
	if !totp.Validate(code, *user.OTPSecret) {
		return nil, ErrInvalidOTPCode
	}

	pair, refreshFP, refreshExp, err := s.issuePair(user, true, now)
	if err != nil {
		return nil, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if !user.OTPEnabled {
			if err := tx.Users().EnableOTP(ctx, user.ID); err != nil {
				return err
			}
		}
		return tx.Users().SetRefreshToken(ctx, user.ID, refreshFP, refreshExp)
	})
	if err != nil {
		return nil, err
	}

	return &pair, nil
}

// issuePair signs an access/refresh pair for the user and returns the
// fingerprint and expiry of the refresh token for persistence.
func (s *AuthService) issuePair(
	u domain.User,
	otpEnabled bool,
	now time.Time,
) (domain.TokenPair, string, time.Time, error) {
	accessTTL := s.AccessTTL
	if accessTTL <= 0 {
		accessTTL = jwtx.DefaultAccessTokenTTL
	}
	refreshTTL := s.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = jwtx.DefaultRefreshTokenTTL
	}

	access, err := s.Tokens.Sign(jwtx.NewSessionClaims(
		u.ID, u.CompanyIDOrEmpty(), otpEnabled, jwtx.TokenUseAccess, accessTTL, s.Issuer, now))
	if err != nil {
		return domain.TokenPair{}, "", time.Time{}, err
	}

	refresh, err := s.Tokens.Sign(jwtx.NewSessionClaims(
		u.ID, u.CompanyIDOrEmpty(), otpEnabled, jwtx.TokenUseRefresh, refreshTTL, s.Issuer, now))
	if err != nil {
		return domain.TokenPair{}, "", time.Time{}, err
	}

	pair := domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    accessTTL,
	}
	return pair, cryptox.FingerprintToken(refresh), now.Add(refreshTTL), nil
}

// dispatchEphemeralToken mints an opaque single-use token, caches its
// fingerprint, and hands the raw value to the notification sink. Failures are
// logged and swallowed: notification delivery never fails the request.
func (s *AuthService) dispatchEphemeralToken(
	ctx context.Context,
	user domain.User,
	purpose domain.TokenPurpose,
	ttl time.Duration,
	subject string,
) {
	l := slogx.FromContext(ctx)

	opaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		l.Error("failed to generate ephemeral token", slog.Any("error", err))
		return
	}

	key := cache.TokenKey(purpose, cryptox.FingerprintToken(opaque))
	if err := s.Cache.Put(ctx, key, user.ID, ttl); err != nil {
		l.Error("failed to cache ephemeral token",
			slog.String("purpose", string(purpose)),
			slog.Any("error", err),
		)
		return
	}

	msg := notify.Message{
		Recipient: user.Email,
		Subject:   subject,
		Body:      fmt.Sprintf("Use this token within %s: %s", ttl, opaque),
	}
	if err := s.Sink.Send(ctx, msg); err != nil {
		l.Error("notification dispatch failed",
			slog.String("recipient", user.Email),
			slog.Any("error", err),
		)
	}
}

// consumeEphemeralToken atomically redeems a one-time token, returning the
// subject user ID. Unknown, already-used, and expired tokens are
// indistinguishable to the caller.
func (s *AuthService) consumeEphemeralToken(
	ctx context.Context,
	purpose domain.TokenPurpose,
	token string,
) (string, error) {
	if token == "" {
		return "", ErrInvalidEphemeral
	}

	key := cache.TokenKey(purpose, cryptox.FingerprintToken(token))
	userID, err := s.Cache.Consume(ctx, key)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return "", ErrInvalidEphemeral
		}
		return "", err
	}
	return userID, nil
}

func (s *AuthService) verifyTTL() time.Duration {
	if s.VerifyTTL > 0 {
		return s.VerifyTTL
	}
	return DefaultVerifyEmailTTL
}

func (s *AuthService) resetTTL() time.Duration {
	if s.ResetTTL > 0 {
		return s.ResetTTL
	}
	return DefaultPasswordResetTTL
}
