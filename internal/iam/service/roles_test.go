package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teamforge/iam/internal/iam/domain"
)

func TestRoleCatalog(t *testing.T) {
	ctx := context.Background()

	t.Run("create and fetch", func(t *testing.T) {
		env := newTestEnv(t)

		role, err := env.Roles.CreateRole(ctx, "Contractor")
		require.NoError(t, err)

		got, perms, err := env.Roles.GetRole(ctx, role.ID)
		require.NoError(t, err)
		require.Equal(t, "Contractor", got.Name)
		require.Empty(t, perms)
	})

	t.Run("duplicate name is rejected", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.Roles.CreateRole(ctx, RoleHR)
		require.ErrorIs(t, err, ErrRoleNameTaken)
		require.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("rename enforces uniqueness", func(t *testing.T) {
		env := newTestEnv(t)
		role, err := env.Roles.CreateRole(ctx, "Contractor")
		require.NoError(t, err)

		renamed, err := env.Roles.RenameRole(ctx, role.ID, "Consultant")
		require.NoError(t, err)
		require.Equal(t, "Consultant", renamed.Name)

		_, err = env.Roles.RenameRole(ctx, role.ID, RoleHR)
		require.ErrorIs(t, err, ErrRoleNameTaken)

		_, err = env.Roles.RenameRole(ctx, "missing", "Anything")
		require.ErrorIs(t, err, ErrRoleNotFound)
	})

	t.Run("delete removes the role", func(t *testing.T) {
		env := newTestEnv(t)
		role, err := env.Roles.CreateRole(ctx, "Contractor")
		require.NoError(t, err)

		require.NoError(t, env.Roles.DeleteRole(ctx, role.ID))
		_, _, err = env.Roles.GetRole(ctx, role.ID)
		require.ErrorIs(t, err, ErrRoleNotFound)

		require.ErrorIs(t, env.Roles.DeleteRole(ctx, role.ID), ErrRoleNotFound)
	})

	t.Run("list includes the seeded roles", func(t *testing.T) {
		env := newTestEnv(t)
		roles, err := env.Roles.ListRoles(ctx)
		require.NoError(t, err)

		names := make([]string, 0, len(roles))
		for _, r := range roles {
			names = append(names, r.Name)
		}
		require.Contains(t, names, RoleCEO)
		require.Contains(t, names, RoleHR)
		require.Contains(t, names, RoleTeamLead)
		require.Contains(t, names, RoleTeamMember)
	})
}

func TestAttachDetachPermission(t *testing.T) {
	ctx := context.Background()

	t.Run("attach then detach", func(t *testing.T) {
		env := newTestEnv(t)

		role, err := env.Roles.CreateRole(ctx, "Contractor")
		require.NoError(t, err)
		perm, err := env.Store.Permissions().GetPermissionByTitle(ctx, PermCreateProject)
		require.NoError(t, err)

		require.NoError(t, env.Roles.AttachPermission(ctx, role.ID, perm.ID))
		// Re-attaching is a no-op.
		require.NoError(t, env.Roles.AttachPermission(ctx, role.ID, perm.ID))

		_, perms, err := env.Roles.GetRole(ctx, role.ID)
		require.NoError(t, err)
		require.Len(t, perms, 1)

		require.NoError(t, env.Roles.DetachPermission(ctx, role.ID, perm.ID))
		// Detaching an absent grant is a no-op.
		require.NoError(t, env.Roles.DetachPermission(ctx, role.ID, perm.ID))

		_, perms, err = env.Roles.GetRole(ctx, role.ID)
		require.NoError(t, err)
		require.Empty(t, perms)
	})

	t.Run("unknown role or permission is rejected", func(t *testing.T) {
		env := newTestEnv(t)
		perm, err := env.Store.Permissions().GetPermissionByTitle(ctx, PermCreateProject)
		require.NoError(t, err)
		role, err := env.Store.Roles().GetRoleByName(ctx, RoleHR)
		require.NoError(t, err)

		require.ErrorIs(t, env.Roles.AttachPermission(ctx, "missing", perm.ID), ErrRoleNotFound)
		require.ErrorIs(t, env.Roles.AttachPermission(ctx, role.ID, "missing"), ErrPermissionNotFound)
		require.ErrorIs(t, env.Roles.DetachPermission(ctx, "missing", perm.ID), ErrRoleNotFound)
	})
}

func TestPermissionCatalog(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	perms, err := env.Roles.ListPermissions(ctx)
	require.NoError(t, err)
	require.Len(t, perms, 4)

	created, err := env.Roles.CreatePermission(ctx, "export_reports", "Export company reports")
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	_, err = env.Roles.CreatePermission(ctx, "export_reports", "Export company reports")
	require.ErrorIs(t, err, ErrPermissionTitleTaken)

	perms, err = env.Roles.ListPermissions(ctx)
	require.NoError(t, err)
	require.Len(t, perms, 5)
}
