package httpx

import (
	"context"
	"net/http"
)

// PermissionChecker answers whether a user holds every listed permission.
// A non-nil error denies the request.
type PermissionChecker interface {
	Check(ctx context.Context, userID string, required ...string) error
}

// RequirePermissions gates a handler on the caller holding ALL of the listed
// permissions. Grants are resolved per request, so catalog changes apply
// without reissuing tokens. Must run after AuthnMiddleware.
func RequirePermissions(checker PermissionChecker, required ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			userID := UserIDFromContext(ctx)
			if userID == "" {
				writeBearerError(w, "missing bearer token")
				return
			}

			if err := checker.Check(ctx, userID, required...); err != nil {
				writePermissionError(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RFC 6750-compliant error response for insufficient permissions. The
// response never names the missing capabilities, so a denied caller learns
// nothing about the permission catalog.
func writePermissionError(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer error="insufficient_scope"`)
	WriteError(w, http.StatusForbidden, "insufficient permissions")
}
