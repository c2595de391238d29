package http

import (
	"net/http"
	"time"

	"github.com/teamforge/iam/internal/iam/domain"
	"github.com/teamforge/iam/internal/iam/service"
	"github.com/teamforge/iam/pkg/httpx"
)

// UsersHandler serves profile and user administration endpoints.
type UsersHandler struct {
	UserService *service.UserService
}

type userResponse struct {
	ID            string    `json:"id"`
	CompanyID     string    `json:"company_id,omitempty"`
	Email         string    `json:"email"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Active        bool      `json:"active"`
	EmailVerified bool      `json:"email_verified"`
	OTPEnabled    bool      `json:"otp_enabled"`
	RoleID        string    `json:"role_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toUserResponse(u domain.User) userResponse {
	resp := userResponse{
		ID:            u.ID,
		CompanyID:     u.CompanyIDOrEmpty(),
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Active:        u.Active,
		EmailVerified: u.EmailVerified,
		OTPEnabled:    u.OTPEnabled,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
	if u.RoleID != nil {
		resp.RoleID = *u.RoleID
	}
	return resp
}

// HandleGetMe handles GET /v1/users/me.
func (h *UsersHandler) HandleGetMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	user, err := h.UserService.GetProfile(ctx, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(*user))
}

type updateProfileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// HandleUpdateMe handles PATCH /v1/users/me.
func (h *UsersHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var req updateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.FirstName == "" && req.LastName == "" {
		httpx.WriteError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	user, err := h.UserService.UpdateProfile(ctx, userID, req.FirstName, req.LastName)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(*user))
}

type assignRoleRequest struct {
	RoleID string `json:"role_id"`
}

// HandleAssignRole handles PUT /v1/users/{id}/role.
func (h *UsersHandler) HandleAssignRole(w http.ResponseWriter, r *http.Request) {
	var req assignRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.RoleID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "role_id is required")
		return
	}

	if err := h.UserService.AssignRole(r.Context(), r.PathValue("id"), req.RoleID); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

// HandleSetActive handles PUT /v1/users/{id}/active.
func (h *UsersHandler) HandleSetActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID := httpx.UserIDFromContext(ctx)
	if actorID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var req setActiveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.UserService.SetActive(ctx, actorID, httpx.CompanyIDFromContext(ctx),
		r.PathValue("id"), req.Active)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
