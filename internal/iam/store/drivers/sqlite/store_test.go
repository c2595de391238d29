package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/teamforge/iam/internal/iam/domain"
	"github.com/teamforge/iam/internal/iam/store"
	"github.com/teamforge/iam/pkg/idx"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())
	return st
}

func seedUser(t *testing.T, st *Store, email string) domain.User {
	t.Helper()
	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: "hash",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Active:       true,
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), u))
	return u
}

func TestUsersCRUD(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	t.Run("create and fetch", func(t *testing.T) {
		u := seedUser(t, st, "ada@acme.test")

		got, err := st.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, u.Email, got.Email)
		require.True(t, got.Active)
		require.Nil(t, got.CompanyID)
		require.Nil(t, got.RoleID)
		require.Nil(t, got.RefreshTokenHash)

		byEmail, err := st.Users().GetUserByEmail(ctx, "ada@acme.test")
		require.NoError(t, err)
		require.Equal(t, u.ID, byEmail.ID)
	})

	t.Run("duplicate email maps to ErrAlreadyExists", func(t *testing.T) {
		seedUser(t, st, "dup@acme.test")
		err := st.Users().CreateUser(ctx, domain.User{
			ID: idx.New().String(), Email: "dup@acme.test", PasswordHash: "hash",
		})
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("missing rows map to ErrNotFound", func(t *testing.T) {
		_, err := st.Users().GetUserByID(ctx, "missing")
		require.ErrorIs(t, err, store.ErrNotFound)
		require.ErrorIs(t, st.Users().SetEmailVerified(ctx, "missing"), store.ErrNotFound)
		require.ErrorIs(t, st.Users().UpdatePasswordHash(ctx, "missing", "x"), store.ErrNotFound)
	})
}

func TestRefreshTokenRotation(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	u := seedUser(t, st, "ada@acme.test")
	expiry := time.Now().UTC().Add(time.Hour)

	require.NoError(t, st.Users().SetRefreshToken(ctx, u.ID, "fp-1", expiry))

	t.Run("swap succeeds while the old value holds", func(t *testing.T) {
		require.NoError(t, st.Users().RotateRefreshToken(ctx, u.ID, "fp-1", "fp-2", expiry))

		got, err := st.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.NotNil(t, got.RefreshTokenHash)
		require.Equal(t, "fp-2", *got.RefreshTokenHash)
	})

	t.Run("stale swap loses", func(t *testing.T) {
		err := st.Users().RotateRefreshToken(ctx, u.ID, "fp-1", "fp-3", expiry)
		require.ErrorIs(t, err, store.ErrNotFound)

		got, err := st.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, "fp-2", *got.RefreshTokenHash)
	})

	t.Run("clear is idempotent", func(t *testing.T) {
		require.NoError(t, st.Users().ClearRefreshToken(ctx, u.ID))
		require.NoError(t, st.Users().ClearRefreshToken(ctx, u.ID))

		got, err := st.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Nil(t, got.RefreshTokenHash)
	})
}

func TestClearExpiredRefreshTokens(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	expired := seedUser(t, st, "expired@acme.test")
	live := seedUser(t, st, "live@acme.test")

	require.NoError(t, st.Users().SetRefreshToken(ctx, expired.ID, "fp-old", time.Now().UTC().Add(-time.Hour)))
	require.NoError(t, st.Users().SetRefreshToken(ctx, live.ID, "fp-live", time.Now().UTC().Add(time.Hour)))

	require.NoError(t, st.Users().ClearExpiredRefreshTokens(ctx))

	got, err := st.Users().GetUserByID(ctx, expired.ID)
	require.NoError(t, err)
	require.Nil(t, got.RefreshTokenHash)

	got, err = st.Users().GetUserByID(ctx, live.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RefreshTokenHash)
}

func TestRolesAndPermissions(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	role := domain.Role{ID: idx.New().String(), Name: "HR"}
	require.NoError(t, st.Roles().CreateRole(ctx, role))

	perm := domain.Permission{ID: idx.New().String(), Title: "manage_users", Description: "Manage users"}
	require.NoError(t, st.Permissions().CreatePermission(ctx, perm))

	t.Run("duplicate names conflict", func(t *testing.T) {
		err := st.Roles().CreateRole(ctx, domain.Role{ID: idx.New().String(), Name: "HR"})
		require.ErrorIs(t, err, store.ErrAlreadyExists)

		err = st.Permissions().CreatePermission(ctx, domain.Permission{
			ID: idx.New().String(), Title: "manage_users",
		})
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("attach and list", func(t *testing.T) {
		require.NoError(t, st.Roles().AttachPermission(ctx, role.ID, perm.ID))

		perms, err := st.Roles().ListRolePermissions(ctx, role.ID)
		require.NoError(t, err)
		require.Len(t, perms, 1)
		require.Equal(t, "manage_users", perms[0].Title)
	})

	t.Run("deleting the role cascades the grants and detaches users", func(t *testing.T) {
		u := seedUser(t, st, "ada@acme.test")
		require.NoError(t, st.Users().AssignRole(ctx, u.ID, role.ID))

		require.NoError(t, st.Roles().DeleteRole(ctx, role.ID))

		got, err := st.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Nil(t, got.RoleID)

		perms, err := st.Roles().ListRolePermissions(ctx, role.ID)
		require.NoError(t, err)
		require.Empty(t, perms)
	})
}

func TestCompanies(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	c := domain.Company{ID: idx.New().String(), Name: "Acme Corp"}
	require.NoError(t, st.Companies().CreateCompany(ctx, c))

	got, err := st.Companies().GetCompanyByID(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, "Acme Corp", got.Name)

	_, err = st.Companies().GetCompanyByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	err := st.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Companies().CreateCompany(ctx, domain.Company{
			ID: idx.New().String(), Name: "Doomed Corp",
		}); err != nil {
			return err
		}
		// Duplicate role name forces the whole transaction to roll back.
		r := domain.Role{ID: idx.New().String(), Name: "CEO"}
		if err := tx.Roles().CreateRole(ctx, r); err != nil {
			return err
		}
		return tx.Roles().CreateRole(ctx, domain.Role{ID: idx.New().String(), Name: "CEO"})
	})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	roles, err := st.Roles().ListRoles(ctx)
	require.NoError(t, err)
	require.Empty(t, roles)
}

func TestForeignKeysEnforcedPerConnection(t *testing.T) {
	ctx := context.Background()
	st, err := NewStore(filepath.Join(t.TempDir(), "fk.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	// Hold two pooled connections open at once; the pragma rides on the DSN,
	// so both must report enforcement, not just the first.
	c1, err := st.db.Conn(ctx)
	require.NoError(t, err)
	defer c1.Close()
	c2, err := st.db.Conn(ctx)
	require.NoError(t, err)
	defer c2.Close()

	for _, conn := range []*sql.Conn{c1, c2} {
		var on int
		require.NoError(t, conn.QueryRowContext(ctx, `PRAGMA foreign_keys;`).Scan(&on))
		require.Equal(t, 1, on)
	}

	_, err = st.db.ExecContext(ctx,
		`INSERT INTO role_permissions (role_id, permission_id) VALUES ('nope', 'nada');`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "FOREIGN KEY")
}
