package sqlite

import (
	"context"

	"github.com/teamforge/iam/internal/iam/domain"
)

type rolesRepo struct {
	q querier
}

func (r *rolesRepo) CreateRole(ctx context.Context, role domain.Role) error {
	ts := now()
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO roles (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		role.ID, role.Name, ts, ts,
	)
	return mapConstraint(err)
}

func (r *rolesRepo) GetRoleByID(ctx context.Context, id string) (domain.Role, error) {
	var role domain.Role
	err := r.q.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at FROM roles WHERE id = ?`, id,
	).Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		return domain.Role{}, mapNotFound(err)
	}
	return role, nil
}

func (r *rolesRepo) GetRoleByName(ctx context.Context, name string) (domain.Role, error) {
	var role domain.Role
	err := r.q.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at FROM roles WHERE name = ?`, name,
	).Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		return domain.Role{}, mapNotFound(err)
	}
	return role, nil
}

func (r *rolesRepo) ListRoles(ctx context.Context) ([]domain.Role, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, name, created_at, updated_at FROM roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *rolesRepo) UpdateRoleName(ctx context.Context, roleID, name string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE roles SET name = ?, updated_at = ? WHERE id = ?`,
		name, now(), roleID)
	if err != nil {
		return mapConstraint(err)
	}
	return affectedOrNotFound(res, nil)
}

func (r *rolesRepo) DeleteRole(ctx context.Context, roleID string) error {
	return affectedOrNotFound(r.q.ExecContext(ctx,
		`DELETE FROM roles WHERE id = ?`, roleID))
}

func (r *rolesRepo) AttachPermission(ctx context.Context, roleID, permissionID string) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT OR IGNORE INTO role_permissions (role_id, permission_id) VALUES (?, ?)`,
		roleID, permissionID)
	return err
}

func (r *rolesRepo) DetachPermission(ctx context.Context, roleID, permissionID string) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM role_permissions WHERE role_id = ? AND permission_id = ?`,
		roleID, permissionID)
	return err
}

func (r *rolesRepo) ListRolePermissions(ctx context.Context, roleID string) ([]domain.Permission, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT p.id, p.title, p.description, p.created_at, p.updated_at
		 FROM permissions p
		 JOIN role_permissions rp ON rp.permission_id = p.id
		 WHERE rp.role_id = ?
		 ORDER BY p.title`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []domain.Permission
	for rows.Next() {
		var p domain.Permission
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}
