package service

import (
	"fmt"

	"github.com/teamforge/iam/internal/iam/domain"
)

// Service sentinels. Each wraps a domain error kind so the request layer can
// map it to a status code with errors.Is while callers still match the
// specific failure. Credential failures deliberately share one sentinel: the
// response must not reveal whether the email exists.
var (
	ErrEmailTaken         = fmt.Errorf("email already registered: %w", domain.ErrConflict)
	ErrRoleNotSeeded      = fmt.Errorf("built-in role missing, seed the database: %w", domain.ErrNotFound)
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	ErrUserDeactivated    = fmt.Errorf("user is deactivated: %w", domain.ErrForbidden)
	ErrInvalidRefresh     = fmt.Errorf("invalid refresh token: %w", domain.ErrUnauthorized)
	ErrInvalidEphemeral   = fmt.Errorf("invalid or expired token: %w", domain.ErrBadRequest)
	ErrOTPNotEnrolled     = fmt.Errorf("one-time password not enrolled: %w", domain.ErrBadRequest)
	ErrInvalidOTPCode     = fmt.Errorf("invalid one-time code: %w", domain.ErrBadRequest)

	ErrUserNotFound         = fmt.Errorf("user not found: %w", domain.ErrNotFound)
	ErrRoleNotFound         = fmt.Errorf("role not found: %w", domain.ErrNotFound)
	ErrRoleNameTaken        = fmt.Errorf("role name already exists: %w", domain.ErrConflict)
	ErrPermissionNotFound   = fmt.Errorf("permission not found: %w", domain.ErrNotFound)
	ErrPermissionTitleTaken = fmt.Errorf("permission title already exists: %w", domain.ErrConflict)

	ErrPermissionDenied = fmt.Errorf("permission denied: %w", domain.ErrForbidden)
	ErrSelfDeactivation = fmt.Errorf("cannot change your own activation state: %w", domain.ErrForbidden)
	ErrCompanyMismatch  = fmt.Errorf("user belongs to another company: %w", domain.ErrForbidden)

	ErrRegistrationFailed = fmt.Errorf("failed to register company: %w", domain.ErrInternal)
)
