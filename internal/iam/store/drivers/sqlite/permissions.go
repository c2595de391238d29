package sqlite

import (
	"context"

	"github.com/teamforge/iam/internal/iam/domain"
)

type permissionsRepo struct {
	q querier
}

func (r *permissionsRepo) CreatePermission(ctx context.Context, p domain.Permission) error {
	ts := now()
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO permissions (id, title, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Description, ts, ts,
	)
	return mapConstraint(err)
}

func (r *permissionsRepo) GetPermissionByID(ctx context.Context, id string) (domain.Permission, error) {
	var p domain.Permission
	err := r.q.QueryRowContext(ctx,
		`SELECT id, title, description, created_at, updated_at FROM permissions WHERE id = ?`, id,
	).Scan(&p.ID, &p.Title, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Permission{}, mapNotFound(err)
	}
	return p, nil
}

func (r *permissionsRepo) GetPermissionByTitle(ctx context.Context, title string) (domain.Permission, error) {
	var p domain.Permission
	err := r.q.QueryRowContext(ctx,
		`SELECT id, title, description, created_at, updated_at FROM permissions WHERE title = ?`, title,
	).Scan(&p.ID, &p.Title, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Permission{}, mapNotFound(err)
	}
	return p, nil
}

func (r *permissionsRepo) ListPermissions(ctx context.Context) ([]domain.Permission, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, title, description, created_at, updated_at FROM permissions ORDER BY title`)
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
