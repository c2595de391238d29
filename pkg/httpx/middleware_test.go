package httpx_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/teamforge/iam/pkg/httpx"
	"github.com/teamforge/iam/pkg/jwtx"
)

func newCodec(t *testing.T) *jwtx.HS256 {
	t.Helper()
	codec, err := jwtx.NewHS256([]byte("0123456789abcdef0123456789abcdef"), "iam-test")
	require.NoError(t, err)
	return codec
}

func signToken(t *testing.T, codec *jwtx.HS256, use string) string {
	t.Helper()
	token, err := codec.Sign(jwtx.NewSessionClaims(
		"user-1", "company-1", false, use, 15*time.Minute, "iam-test", time.Now().UTC()))
	require.NoError(t, err)
	return token
}

func TestChain(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), mw("outer"), mw("inner"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestAuthnMiddleware(t *testing.T) {
	codec := newCodec(t)

	protected := httpx.AuthnMiddleware(codec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{
			"user_id":    httpx.UserIDFromContext(r.Context()),
			"company_id": httpx.CompanyIDFromContext(r.Context()),
		})
	}))

	t.Run("valid access token passes identity through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, codec, jwtx.TokenUseAccess))
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), "user-1")
		require.Contains(t, rec.Body.String(), "company-1")
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")
	})

	t.Run("refresh token is not an access credential", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, codec, jwtx.TokenUseRefresh))
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("identity headers are stamped for downstream hops", func(t *testing.T) {
		echo := httpx.AuthnMiddleware(codec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			httpx.WriteJSON(w, http.StatusOK, map[string]string{
				"user":    r.Header.Get(httpx.HeaderUserID),
				"company": r.Header.Get(httpx.HeaderCompanyID),
			})
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, codec, jwtx.TokenUseAccess))
		// Client-supplied identity headers must be replaced, never forwarded.
		req.Header.Set(httpx.HeaderUserID, "attacker")
		req.Header.Set(httpx.HeaderCompanyID, "attacker-co")
		rec := httptest.NewRecorder()

		echo.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"user":"user-1"`)
		require.Contains(t, rec.Body.String(), `"company":"company-1"`)
		require.NotContains(t, rec.Body.String(), "attacker")
	})

	t.Run("spoofed identity headers are stripped on rejected requests", func(t *testing.T) {
		var seen string
		echo := httpx.AuthnMiddleware(codec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = r.Header.Get(httpx.HeaderUserID)
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(httpx.HeaderUserID, "attacker")
		rec := httptest.NewRecorder()

		echo.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Empty(t, seen)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

type stubChecker struct {
	deny bool
}

func (s *stubChecker) Check(_ context.Context, _ string, _ ...string) error {
	if s.deny {
		return errors.New("denied")
	}
	return nil
}

func TestRequirePermissions(t *testing.T) {
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	withUser := func(req *http.Request) *http.Request {
		return req.WithContext(context.WithValue(req.Context(), httpx.CtxKeyUserID, "user-1"))
	}

	t.Run("grants pass", func(t *testing.T) {
		h := httpx.RequirePermissions(&stubChecker{}, "manage_users")(okHandler)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodGet, "/", nil)))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("denial is a 403", func(t *testing.T) {
		h := httpx.RequirePermissions(&stubChecker{deny: true}, "manage_users")(okHandler)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodGet, "/", nil)))
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "insufficient_scope")
		// The response must not name the capabilities the caller lacked.
		require.NotContains(t, rec.Header().Get("WWW-Authenticate"), "manage_users")
		require.NotContains(t, rec.Body.String(), "manage_users")
	})

	t.Run("anonymous request is a 401", func(t *testing.T) {
		h := httpx.RequirePermissions(&stubChecker{}, "manage_users")(okHandler)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
