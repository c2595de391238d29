package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/teamforge/iam/internal/iam/store"
	"github.com/teamforge/iam/pkg/slogx"
)

// AuthzService answers "may this user perform this operation" by resolving
// the caller's role grants on every check. Grant changes take effect on the
// next request without waiting for token expiry.
type AuthzService struct {
	Store store.Store
}

// ResolvePermissions returns the set of permission titles granted to the
// user through their role. A user without a role holds no permissions.
func (s *AuthzService) ResolvePermissions(ctx context.Context, userID string) (map[string]struct{}, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	granted := make(map[string]struct{})
	if user.RoleID == nil {
		return granted, nil
	}

	perms, err := s.Store.Roles().ListRolePermissions(ctx, *user.RoleID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Role deleted after assignment; treat as no grants.
			return granted, nil
		}
		return nil, err
	}

	for _, p := range perms {
		granted[p.Title] = struct{}{}
	}
	return granted, nil
}

// Check verifies the user holds every required permission. It fails closed:
// lookup errors, a missing role, and missing grants all deny. The returned
// error identifies the caller but never which permission was missing.
func (s *AuthzService) Check(ctx context.Context, userID string, required ...string) error {
	if len(required) == 0 {
		return nil
	}

	granted, err := s.ResolvePermissions(ctx, userID)
	if err != nil {
		slogx.FromContext(ctx).Warn("permission resolution failed",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
		return ErrPermissionDenied
	}

	for _, perm := range required {
		if _, ok := granted[perm]; !ok {
			return ErrPermissionDenied
		}
	}
	return nil
}
