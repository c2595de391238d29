package service

import (
	"context"
	"errors"

	"github.com/teamforge/iam/internal/iam/domain"
	"github.com/teamforge/iam/internal/iam/store"
)

// UserService covers profile reads, profile updates, role assignment, and
// activation toggling.
type UserService struct {
	Store store.Store
}

// GetProfile returns the user record for the given ID.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpdateProfile changes the user's first and last name.
func (s *UserService) UpdateProfile(ctx context.Context, userID, firstName, lastName string) (*domain.User, error) {
	if err := s.Store.Users().UpdateProfile(ctx, userID, firstName, lastName); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.GetProfile(ctx, userID)
}

// AssignRole attaches a role to a user. The role must exist.
func (s *UserService) AssignRole(ctx context.Context, userID, roleID string) error {
	if _, err := s.Store.Roles().GetRoleByID(ctx, roleID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrRoleNotFound
		}
		return err
	}
	if err := s.Store.Users().AssignRole(ctx, userID, roleID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// SetActive toggles a user's activation state. Actors cannot deactivate
// themselves and cannot touch users of another company. Deactivation revokes
// the target's session in the same transaction.
func (s *UserService) SetActive(ctx context.Context, actorID, actorCompanyID, targetID string, active bool) error {
	if actorID == targetID {
		return ErrSelfDeactivation
	}

	target, err := s.Store.Users().GetUserByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if target.CompanyIDOrEmpty() != actorCompanyID {
		return ErrCompanyMismatch
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().SetActive(ctx, targetID, active); err != nil {
			return err
		}
		if !active {
			return tx.Users().ClearRefreshToken(ctx, targetID)
		}
		return nil
	})
}
