package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/teamforge/iam/internal/iam/cache"
	"github.com/teamforge/iam/internal/iam/service"
	"github.com/teamforge/iam/internal/iam/store"
	"github.com/teamforge/iam/pkg/httpx"
	"github.com/teamforge/iam/pkg/jwtx"
	"github.com/teamforge/iam/pkg/slogx"
)

// operationPermissions binds each protected operation to the capability set
// it requires. Declared as data and consulted at route registration, so the
// whole permission surface is auditable in one place instead of scattered
// across handlers.
var operationPermissions = map[string][]string{
	"users.assign_role":       {service.PermManageUsers},
	"users.set_active":        {service.PermManageUsers},
	"roles.create":            {service.PermManageRoles},
	"roles.list":              {service.PermManageRoles},
	"roles.get":               {service.PermManageRoles},
	"roles.rename":            {service.PermManageRoles},
	"roles.delete":            {service.PermManageRoles},
	"roles.attach_permission": {service.PermManageRoles},
	"roles.detach_permission": {service.PermManageRoles},
	"permissions.list":        {service.PermManageRoles},
	"permissions.create":      {service.PermManageRoles},
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store
	cache cache.Cache

	AuthService  *service.AuthService
	AuthzService *service.AuthzService
	OTPService   *service.OTPService
	RoleService  *service.RoleService
	UserService  *service.UserService
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	c cache.Cache,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		cache:        c,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerOTP()
	r.registerUsers()
	r.registerRoles()
	r.registerSystem()
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// requires gates a handler on the permission set declared for op. An unknown
// operation name panics at route registration so an unguarded admin route
// cannot ship.
func (r *Router) requires(op string) httpx.Middleware {
	required, ok := operationPermissions[op]
	if !ok {
		panic("httprouter: no permission declaration for operation " + op)
	}
	return httpx.RequirePermissions(r.AuthzService, required...)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{AuthService: r.AuthService}

	// Public credential endpoints get the strict limit (brute force surface).
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/verify-otp",
		httpx.Chain(http.HandlerFunc(h.HandleVerifyOTP),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/forgot-password",
		httpx.Chain(http.HandlerFunc(h.HandleForgotPassword),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/reset-password",
		httpx.Chain(http.HandlerFunc(h.HandleResetPassword),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/verify-email",
		httpx.Chain(http.HandlerFunc(h.HandleVerifyEmail),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// Refresh tokens arrive in the body, not the Authorization header.
	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerOTP() {
	h := &OTPHandler{OTPService: r.OTPService}

	r.Mux.Handle("POST /v1/otp/setup",
		httpx.Chain(http.HandlerFunc(h.HandleSetup),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{UserService: r.UserService}

	r.Mux.Handle("GET /v1/users/me",
		httpx.Chain(http.HandlerFunc(h.HandleGetMe),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("PATCH /v1/users/me",
		httpx.Chain(http.HandlerFunc(h.HandleUpdateMe),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// Administration endpoints carry a declared permission set, resolved per
	// request so grant changes apply immediately.
	r.Mux.Handle("PUT /v1/users/{id}/role",
		httpx.Chain(http.HandlerFunc(h.HandleAssignRole),
			httpx.AuthnMiddleware(r.verifier),
			r.requires("users.assign_role"),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("PUT /v1/users/{id}/active",
		httpx.Chain(http.HandlerFunc(h.HandleSetActive),
			httpx.AuthnMiddleware(r.verifier),
			r.requires("users.set_active"),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerRoles() {
	h := &RolesHandler{RoleService: r.RoleService}

	secured := func(op string, handler http.HandlerFunc) http.Handler {
		return httpx.Chain(handler,
			httpx.AuthnMiddleware(r.verifier),
			r.requires(op),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("POST /v1/roles", secured("roles.create", h.HandleCreateRole))
	r.Mux.Handle("GET /v1/roles", secured("roles.list", h.HandleListRoles))
	r.Mux.Handle("GET /v1/roles/{id}", secured("roles.get", h.HandleGetRole))
	r.Mux.Handle("PATCH /v1/roles/{id}", secured("roles.rename", h.HandleRenameRole))
	r.Mux.Handle("DELETE /v1/roles/{id}", secured("roles.delete", h.HandleDeleteRole))
	r.Mux.Handle("POST /v1/roles/{id}/permissions/{permID}", secured("roles.attach_permission", h.HandleAttachPermission))
	r.Mux.Handle("DELETE /v1/roles/{id}/permissions/{permID}", secured("roles.detach_permission", h.HandleDetachPermission))

	r.Mux.Handle("GET /v1/permissions", secured("permissions.list", h.HandleListPermissions))
	r.Mux.Handle("POST /v1/permissions", secured("permissions.create", h.HandleCreatePermission))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.cache),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
