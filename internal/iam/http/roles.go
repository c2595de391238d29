package http

import (
	"net/http"
	"time"

	"github.com/teamforge/iam/internal/iam/domain"
	"github.com/teamforge/iam/internal/iam/service"
	"github.com/teamforge/iam/pkg/httpx"
)

// RolesHandler manages the role and permission catalog endpoints.
type RolesHandler struct {
	RoleService *service.RoleService
}

type roleResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type permissionResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

func toRoleResponse(r domain.Role) roleResponse {
	return roleResponse{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}

func toPermissionResponses(perms []domain.Permission) []permissionResponse {
	out := make([]permissionResponse, 0, len(perms))
	for _, p := range perms {
		out = append(out, permissionResponse{ID: p.ID, Title: p.Title, Description: p.Description})
	}
	return out
}

type createRoleRequest struct {
	Name string `json:"name"`
}

// HandleCreateRole handles POST /v1/roles.
func (h *RolesHandler) HandleCreateRole(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		httpx.WriteError(w, http.StatusBadRequest, "name is required")
		return
	}

	role, err := h.RoleService.CreateRole(r.Context(), req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toRoleResponse(*role))
}

// HandleListRoles handles GET /v1/roles.
func (h *RolesHandler) HandleListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.RoleService.ListRoles(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]roleResponse, 0, len(roles))
	for _, role := range roles {
		out = append(out, toRoleResponse(role))
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"roles": out})
}

type roleDetailResponse struct {
	roleResponse
	Permissions []permissionResponse `json:"permissions"`
}

// HandleGetRole handles GET /v1/roles/{id}.
func (h *RolesHandler) HandleGetRole(w http.ResponseWriter, r *http.Request) {
	role, perms, err := h.RoleService.GetRole(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, roleDetailResponse{
		roleResponse: toRoleResponse(*role),
		Permissions:  toPermissionResponses(perms),
	})
}

type renameRoleRequest struct {
	Name string `json:"name"`
}

// HandleRenameRole handles PATCH /v1/roles/{id}.
func (h *RolesHandler) HandleRenameRole(w http.ResponseWriter, r *http.Request) {
	var req renameRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		httpx.WriteError(w, http.StatusBadRequest, "name is required")
		return
	}

	role, err := h.RoleService.RenameRole(r.Context(), r.PathValue("id"), req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toRoleResponse(*role))
}

// HandleDeleteRole handles DELETE /v1/roles/{id}.
func (h *RolesHandler) HandleDeleteRole(w http.ResponseWriter, r *http.Request) {
	if err := h.RoleService.DeleteRole(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAttachPermission handles POST /v1/roles/{id}/permissions/{permID}.
func (h *RolesHandler) HandleAttachPermission(w http.ResponseWriter, r *http.Request) {
	err := h.RoleService.AttachPermission(r.Context(), r.PathValue("id"), r.PathValue("permID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDetachPermission handles DELETE /v1/roles/{id}/permissions/{permID}.
func (h *RolesHandler) HandleDetachPermission(w http.ResponseWriter, r *http.Request) {
	err := h.RoleService.DetachPermission(r.Context(), r.PathValue("id"), r.PathValue("permID"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListPermissions handles GET /v1/permissions.
func (h *RolesHandler) HandleListPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.RoleService.ListPermissions(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"permissions": toPermissionResponses(perms)})
}

type createPermissionRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// HandleCreatePermission handles POST /v1/permissions.
func (h *RolesHandler) HandleCreatePermission(w http.ResponseWriter, r *http.Request) {
	var req createPermissionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title == "" {
		httpx.WriteError(w, http.StatusBadRequest, "title is required")
		return
	}

	perm, err := h.RoleService.CreatePermission(r.Context(), req.Title, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, permissionResponse{
		ID: perm.ID, Title: perm.Title, Description: perm.Description,
	})
}
