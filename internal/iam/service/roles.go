package service

import (
	"context"
	"errors"

	"github.com/teamforge/iam/internal/iam/domain"
	"github.com/teamforge/iam/internal/iam/store"
	"github.com/teamforge/iam/pkg/idx"
)

// RoleService manages the role and permission catalog.
type RoleService struct {
	Store store.Store
}

// CreateRole adds a new role with no permissions attached.
func (s *RoleService) CreateRole(ctx context.Context, name string) (*domain.Role, error) {
	role := domain.Role{ID: idx.New().String(), Name: name}
	if err := s.Store.Roles().CreateRole(ctx, role); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, ErrRoleNameTaken
		}
		return nil, err
	}
	return &role, nil
}

// GetRole fetches a role together with its attached permissions.
func (s *RoleService) GetRole(ctx context.Context, roleID string) (*domain.Role, []domain.Permission, error) {
	role, err := s.Store.Roles().GetRoleByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrRoleNotFound
		}
		return nil, nil, err
	}
	perms, err := s.Store.Roles().ListRolePermissions(ctx, roleID)
	if err != nil {
		return nil, nil, err
	}
	return &role, perms, nil
}

// ListRoles returns the full role catalog.
func (s *RoleService) ListRoles(ctx context.Context) ([]domain.Role, error) {
	return s.Store.Roles().ListRoles(ctx)
}

// RenameRole changes a role's name. The new name must be unique.
func (s *RoleService) RenameRole(ctx context.Context, roleID, name string) (*domain.Role, error) {
	if err := s.Store.Roles().UpdateRoleName(ctx, roleID, name); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, ErrRoleNotFound
		case errors.Is(err, store.ErrAlreadyExists):
			return nil, ErrRoleNameTaken
		}
		return nil, err
	}
	role, err := s.Store.Roles().GetRoleByID(ctx, roleID)
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// DeleteRole removes a role. Users holding it fall back to no role and hence
// no permissions.
func (s *RoleService) DeleteRole(ctx context.Context, roleID string) error {
	if err := s.Store.Roles().DeleteRole(ctx, roleID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrRoleNotFound
		}
		return err
	}
	return nil
}

// AttachPermission grants a permission to a role. Attaching an already
// attached permission is a no-op.
func (s *RoleService) AttachPermission(ctx context.Context, roleID, permissionID string) error {
	if _, err := s.Store.Roles().GetRoleByID(ctx, roleID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrRoleNotFound
		}
		return err
	}
	if _, err := s.Store.Permissions().GetPermissionByID(ctx, permissionID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrPermissionNotFound
		}
		return err
	}

	if err := s.Store.Roles().AttachPermission(ctx, roleID, permissionID); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil
		}
		return err
	}
	return nil
}

// DetachPermission revokes a permission from a role. Detaching a permission
// that is not attached is a no-op.
func (s *RoleService) DetachPermission(ctx context.Context, roleID, permissionID string) error {
	if _, err := s.Store.Roles().GetRoleByID(ctx, roleID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrRoleNotFound
		}
		return err
	}
	return s.Store.Roles().DetachPermission(ctx, roleID, permissionID)
}

// ListPermissions returns the permission catalog.
func (s *RoleService) ListPermissions(ctx context.Context) ([]domain.Permission, error) {
	return s.Store.Permissions().ListPermissions(ctx)
}

// CreatePermission adds a new permission to the catalog.
func (s *RoleService) CreatePermission(ctx context.Context, title, description string) (*domain.Permission, error) {
	perm := domain.Permission{ID: idx.New().String(), Title: title, Description: description}
	if err := s.Store.Permissions().CreatePermission(ctx, perm); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, ErrPermissionTitleTaken
		}
		return nil, err
	}
	return &perm, nil
}
