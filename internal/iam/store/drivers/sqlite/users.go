package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/teamforge/iam/internal/iam/domain"
)

type usersRepo struct {
	q querier
}

const userColumns = `id, company_id, email, password_hash, first_name, last_name,
	active, email_verified, otp_secret, otp_enabled,
	refresh_token_hash, refresh_expires_at, role_id, created_at, updated_at`

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	ts := now()
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO users (id, company_id, email, password_hash, first_name, last_name,
			active, email_verified, otp_enabled, role_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, mapOptionalString(u.CompanyID), u.Email, u.PasswordHash,
		u.FirstName, u.LastName, u.Active, u.EmailVerified, u.OTPEnabled,
		mapOptionalString(u.RoleID), ts, ts,
	)
	return mapConstraint(err)
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return r.scanUser(r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.scanUser(r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, newHash string) error {
	return affectedOrNotFound(r.q.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		newHash, now(), userID))
}

func (r *usersRepo) UpdateProfile(ctx context.Context, userID, firstName, lastName string) error {
	return affectedOrNotFound(r.q.ExecContext(ctx,
		`UPDATE users SET first_name = ?, last_name = ?, updated_at = ? WHERE id = ?`,
		firstName, lastName, now(), userID))
}

func (r *usersRepo) SetEmailVerified(ctx context.Context, userID string) error {
	return affectedOrNotFound(r.q.ExecContext(ctx,
		`UPDATE users SET email_verified = 1, updated_at = ? WHERE id = ?`,
		now(), userID))
}

func (r *usersRepo) UpdateOTPSecret(ctx context.Context, userID, secret string) error {
	return affectedOrNotFound(r.q.ExecContext(ctx,
		`UPDATE users SET otp_secret = ?, updated_at = ? WHERE id = ?`,
		secret, now(), userID))
}

func (r *usersRepo) EnableOTP(ctx context.Context, userID string) error {
	return affectedOrNotFound(r.q.ExecContext(ctx,
		`UPDATE users SET otp_enabled = 1, updated_at = ? WHERE id = ?`,
		now(), userID))
}

func (r *usersRepo) SetRefreshToken(ctx context.Context, userID, hash string, expiresAt time.Time) error {
	return affectedOrNotFound(r.q.ExecContext(ctx,
		`UPDATE users SET refresh_token_hash = ?, refresh_expires_at = ?, updated_at = ? WHERE id = ?`,
		hash, expiresAt.UTC(), now(), userID))
}

// RotateRefreshToken is a compare-and-swap on the stored fingerprint: the
// UPDATE only matches while the old value is still in place, so two
// concurrent refreshes with the same token cannot both succeed.
func (r *usersRepo) RotateRefreshToken(ctx context.Context, userID, oldHash, newHash string, expiresAt time.Time) error {
	return affectedOrNotFound(r.q.ExecContext(ctx,
		`UPDATE users SET refresh_token_hash = ?, refresh_expires_at = ?, updated_at = ?
		 WHERE id = ? AND refresh_token_hash = ?`,
		newHash, expiresAt.UTC(), now(), userID, oldHash))
}

func (r *usersRepo) ClearRefreshToken(ctx context.Context, userID string) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE users SET refresh_token_hash = NULL, refresh_expires_at = NULL, updated_at = ? WHERE id = ?`,
		now(), userID)
	return err
}

func (r *usersRepo) ClearExpiredRefreshTokens(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE users SET refresh_token_hash = NULL, refresh_expires_at = NULL, updated_at = ?
		 WHERE refresh_token_hash IS NOT NULL AND refresh_expires_at < ?`,
		now(), now())
	return err
}

func (r *usersRepo) AssignRole(ctx context.Context, userID, roleID string) error {
	return affectedOrNotFound(r.q.ExecContext(ctx,
		`UPDATE users SET role_id = ?, updated_at = ? WHERE id = ?`,
		roleID, now(), userID))
}

func (r *usersRepo) SetActive(ctx context.Context, userID string, active bool) error {
	return affectedOrNotFound(r.q.ExecContext(ctx,
		`UPDATE users SET active = ?, updated_at = ? WHERE id = ?`,
		active, now(), userID))
}

func (r *usersRepo) scanUser(row *sql.Row) (domain.User, error) {
	var (
		u           domain.User
		companyID   sql.NullString
		otpSecret   sql.NullString
		refreshHash sql.NullString
		refreshExp  sql.NullTime
		roleID      sql.NullString
	)

	err := row.Scan(
		&u.ID, &companyID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Active, &u.EmailVerified, &otpSecret, &u.OTPEnabled,
		&refreshHash, &refreshExp, &roleID, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.CompanyID = mapNullStringPtr(companyID)
	u.OTPSecret = mapNullStringPtr(otpSecret)
	u.RefreshTokenHash = mapNullStringPtr(refreshHash)
	u.RefreshExpiresAt = mapNullTimePtr(refreshExp)
	u.RoleID = mapNullStringPtr(roleID)
	return u, nil
}
