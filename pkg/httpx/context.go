package httpx

import (
	"context"

	"github.com/teamforge/iam/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeyUserID    ctxKey = "user_id"
	CtxKeyCompanyID ctxKey = "company_id"
	CtxKeyClaims    ctxKey = "claims"
)

// UserIDFromContext returns the authenticated user's ID, or "" when the
// request carried no valid session.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyUserID).(string); ok {
		return v
	}
	return ""
}

// CompanyIDFromContext returns the authenticated user's company ID, or "".
func CompanyIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyCompanyID).(string); ok {
		return v
	}
	return ""
}

// ClaimsFromContext returns the verified session claims when present.
func ClaimsFromContext(ctx context.Context) (jwtx.Claims, bool) {
	c, ok := ctx.Value(CtxKeyClaims).(jwtx.Claims)
	return c, ok
}
