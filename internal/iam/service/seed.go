package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/teamforge/iam/internal/iam/domain"
	"github.com/teamforge/iam/internal/iam/store"
	"github.com/teamforge/iam/pkg/idx"
	"github.com/teamforge/iam/pkg/slogx"
)

// Built-in permission titles. Handlers reference these when gating
// operations; the seeder guarantees they exist before the server accepts
// traffic.
const (
	PermManageRoles     = "manage_roles"
	PermManageUsers     = "manage_users"
	PermCreateProject   = "create_project"
	PermApproveVacation = "approve_vacation_request"
)

// Built-in role names.
const (
	RoleCEO        = "CEO"
	RoleHR         = "HR"
	RoleTeamLead   = "TeamLead"
	RoleTeamMember = "TeamMember"
)

// seedRoleGrants maps each built-in role to the permissions it starts with.
// TeamMember intentionally starts with none.
var seedRoleGrants = map[string][]string{
	RoleCEO:        {PermManageRoles, PermManageUsers, PermCreateProject, PermApproveVacation},
	RoleHR:         {PermManageUsers, PermApproveVacation},
	RoleTeamLead:   {PermCreateProject, PermApproveVacation},
	RoleTeamMember: {},
}

// Seed installs the default role and permission catalog. It is idempotent:
// existing roles and permissions are left untouched, so operator edits to
// grants survive restarts. The whole pass runs in one transaction.
func Seed(ctx context.Context, s store.Store) error {
	l := slogx.FromContext(ctx)

	return s.WithTx(ctx, func(tx store.Tx) error {
		seedPerms := []domain.Permission{
			{Title: PermManageRoles, Description: "Manage the role and permission catalog"},
			{Title: PermManageUsers, Description: "Manage users within the company"},
			{Title: PermCreateProject, Description: "Create projects"},
			{Title: PermApproveVacation, Description: "Approve vacation requests"},
		}

		perms := make(map[string]string, len(seedPerms))
		for _, p := range seedPerms {
			existing, err := tx.Permissions().GetPermissionByTitle(ctx, p.Title)
			if err == nil {
				perms[p.Title] = existing.ID
				continue
			}
			if !errors.Is(err, store.ErrNotFound) {
				return err
			}

			p.ID = idx.New().String()
			if err := tx.Permissions().CreatePermission(ctx, p); err != nil {
				return err
			}
			perms[p.Title] = p.ID
			l.Info("seeded permission", slog.String("title", p.Title))
		}

		for name, grants := range seedRoleGrants {
			if _, err := tx.Roles().GetRoleByName(ctx, name); err == nil {
				continue
			} else if !errors.Is(err, store.ErrNotFound) {
				return err
			}

			role := domain.Role{ID: idx.New().String(), Name: name}
			if err := tx.Roles().CreateRole(ctx, role); err != nil {
				return err
			}
			for _, title := range grants {
				if err := tx.Roles().AttachPermission(ctx, role.ID, perms[title]); err != nil {
					return err
				}
			}
			l.Info("seeded role",
				slog.String("name", name),
				slog.Int("permissions", len(grants)),
			)
		}

		return nil
	})
}
