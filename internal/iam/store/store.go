package store

import (
	"context"
	"errors"
	"time"

	"github.com/teamforge/iam/internal/iam/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and a unit-of-work helper for the multi-step writes that must be
// atomic (company registration, refresh rotation, deactivation).
type Store interface {
	Companies() Companies
	Users() Users
	Roles() Roles
	Permissions() Permissions

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. This is the
	// recommended way to compose atomic writes.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Companies interface {
	// CreateCompany inserts a new company (id is provided by the app via ULID).
	CreateCompany(ctx context.Context, c domain.Company) error

	// GetCompanyByID returns a company by id.
	GetCompanyByID(ctx context.Context, id string) (domain.Company, error)
}

type Users interface {
	// CreateUser inserts a new user. Returns ErrAlreadyExists when the email
	// is taken.
	CreateUser(ctx context.Context, u domain.User) error

	GetUserByID(ctx context.Context, id string) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// UpdatePasswordHash sets the password_hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error

	// UpdateProfile mutates the non-critical profile fields.
	UpdateProfile(ctx context.Context, userID, firstName, lastName string) error

	// SetEmailVerified marks the user's email as verified.
	SetEmailVerified(ctx context.Context, userID string) error

	// UpdateOTPSecret overwrites the TOTP secret for a user.
	UpdateOTPSecret(ctx context.Context, userID, secret string) error

	// EnableOTP flips the otp_enabled flag.
	EnableOTP(ctx context.Context, userID string) error

	// SetRefreshToken unconditionally replaces the stored refresh token
	// fingerprint, establishing a new single session.
	SetRefreshToken(ctx context.Context, userID, hash string, expiresAt time.Time) error

	// RotateRefreshToken replaces the stored fingerprint only if it still
	// equals oldHash (compare-and-swap). Returns ErrNotFound when the stored
	// value changed underneath us, so at most one concurrent rotation wins.
	RotateRefreshToken(ctx context.Context, userID, oldHash, newHash string, expiresAt time.Time) error

	// ClearRefreshToken removes the stored refresh token. Idempotent.
	ClearRefreshToken(ctx context.Context, userID string) error

	// ClearExpiredRefreshTokens is housekeeping: drops fingerprints whose
	// expiry has passed.
	ClearExpiredRefreshTokens(ctx context.Context) error

	// AssignRole points the user at a role. Takes effect on the next
	// permission check.
	AssignRole(ctx context.Context, userID, roleID string) error

	// SetActive toggles the active flag.
	SetActive(ctx context.Context, userID string, active bool) error
}

type Roles interface {
	// CreateRole inserts a new role. Returns ErrAlreadyExists on a duplicate name.
	CreateRole(ctx context.Context, r domain.Role) error

	GetRoleByID(ctx context.Context, id string) (domain.Role, error)
	GetRoleByName(ctx context.Context, name string) (domain.Role, error)
	ListRoles(ctx context.Context) ([]domain.Role, error)

	UpdateRoleName(ctx context.Context, roleID, name string) error

	// DeleteRole removes a role. Users referencing it fall back to no role
	// (fail-closed on permission checks).
	DeleteRole(ctx context.Context, roleID string) error

	// AttachPermission links a permission to a role. Idempotent.
	AttachPermission(ctx context.Context, roleID, permissionID string) error

	// DetachPermission unlinks a permission from a role. Idempotent.
	DetachPermission(ctx context.Context, roleID, permissionID string) error

	// ListRolePermissions returns the permissions associated with a role.
	ListRolePermissions(ctx context.Context, roleID string) ([]domain.Permission, error)
}

type Permissions interface {
	// CreatePermission inserts a catalog entry. Returns ErrAlreadyExists on a
	// duplicate title.
	CreatePermission(ctx context.Context, p domain.Permission) error

	GetPermissionByID(ctx context.Context, id string) (domain.Permission, error)
	GetPermissionByTitle(ctx context.Context, title string) (domain.Permission, error)
	ListPermissions(ctx context.Context) ([]domain.Permission, error)
}
