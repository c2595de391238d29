package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teamforge/iam/internal/iam/domain"
)

func TestAuthzCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("CEO holds every seeded permission", func(t *testing.T) {
		env := newTestEnv(t)
		res := env.register(t, "ada@acme.test")

		require.NoError(t, env.Authz.Check(ctx, res.UserID,
			PermManageRoles, PermManageUsers, PermCreateProject, PermApproveVacation))
	})

	t.Run("check is conjunctive", func(t *testing.T) {
		env := newTestEnv(t)
		res := env.register(t, "ada@acme.test")

		hr, err := env.Store.Roles().GetRoleByName(ctx, RoleHR)
		require.NoError(t, err)
		require.NoError(t, env.Store.Users().AssignRole(ctx, res.UserID, hr.ID))

		// HR holds manage_users but not manage_roles; requiring both denies.
		require.NoError(t, env.Authz.Check(ctx, res.UserID, PermManageUsers))
		err = env.Authz.Check(ctx, res.UserID, PermManageUsers, PermManageRoles)
		require.ErrorIs(t, err, ErrPermissionDenied)
		require.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("no required permissions always passes", func(t *testing.T) {
		env := newTestEnv(t)
		res := env.register(t, "ada@acme.test")
		require.NoError(t, env.Authz.Check(ctx, res.UserID))
	})

	t.Run("unknown user is denied", func(t *testing.T) {
		env := newTestEnv(t)
		err := env.Authz.Check(ctx, "missing-user", PermManageUsers)
		require.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("grant changes apply without reissuing tokens", func(t *testing.T) {
		env := newTestEnv(t)
		res := env.register(t, "ada@acme.test")

		member, err := env.Store.Roles().GetRoleByName(ctx, RoleTeamMember)
		require.NoError(t, err)
		require.NoError(t, env.Store.Users().AssignRole(ctx, res.UserID, member.ID))

		err = env.Authz.Check(ctx, res.UserID, PermCreateProject)
		require.ErrorIs(t, err, ErrPermissionDenied)

		perm, err := env.Store.Permissions().GetPermissionByTitle(ctx, PermCreateProject)
		require.NoError(t, err)
		require.NoError(t, env.Roles.AttachPermission(ctx, member.ID, perm.ID))

		require.NoError(t, env.Authz.Check(ctx, res.UserID, PermCreateProject))
	})
}

func TestResolvePermissions(t *testing.T) {
	ctx := context.Background()

	t.Run("TeamLead resolves to its seeded grants", func(t *testing.T) {
		env := newTestEnv(t)
		res := env.register(t, "ada@acme.test")

		lead, err := env.Store.Roles().GetRoleByName(ctx, RoleTeamLead)
		require.NoError(t, err)
		require.NoError(t, env.Store.Users().AssignRole(ctx, res.UserID, lead.ID))

		granted, err := env.Authz.ResolvePermissions(ctx, res.UserID)
		require.NoError(t, err)
		require.Len(t, granted, 2)
		require.Contains(t, granted, PermCreateProject)
		require.Contains(t, granted, PermApproveVacation)
	})

	t.Run("user without a role holds nothing", func(t *testing.T) {
		env := newTestEnv(t)
		res := env.register(t, "ada@acme.test")

		ceo, err := env.Store.Roles().GetRoleByName(ctx, RoleCEO)
		require.NoError(t, err)
		require.NoError(t, env.Store.Roles().DeleteRole(ctx, ceo.ID))

		granted, err := env.Authz.ResolvePermissions(ctx, res.UserID)
		require.NoError(t, err)
		require.Empty(t, granted)
	})
}
