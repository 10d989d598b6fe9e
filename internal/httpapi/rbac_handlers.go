package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"talentgate.org/internal/auth"
)

type createUserRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	RoleID      int64  `json:"role_id"`
	Active      *bool  `json:"active"`
}

type updateUserRequest struct {
	DisplayName *string `json:"display_name"`
	Password    *string `json:"password"`
	RoleID      *int64  `json:"role_id"`
	Active      *bool   `json:"active"`
}

type createRoleRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type createPermissionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Resource    string `json:"resource"`
	Action      string `json:"action"`
}

type grantRequest struct {
	PermissionID int64 `json:"permission_id"`
}

func (a *API) handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !a.requirePermission(w, r, auth.ResourceUsers, auth.ActionRead) {
			return
		}
		offset, limit, err := parsePage(r)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		users, err := a.store.ListUsers(r.Context(), offset, limit)
		if err != nil {
			handleStoreError(w, r, err)
			return
		}
		if users == nil {
			users = []*auth.User{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"users": users})
	case http.MethodPost:
		if !a.requirePermission(w, r, auth.ResourceUsers, auth.ActionManage) {
			return
		}
		var req createUserRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		req.Email = strings.TrimSpace(req.Email)
		if req.Email == "" {
			writeError(w, r, http.StatusBadRequest, "email is required")
			return
		}
		if req.Password == "" {
			writeError(w, r, http.StatusBadRequest, "password is required")
			return
		}
		hash, err := auth.HashPassword(req.Password, a.bcryptCost)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		user := &auth.User{
			Email:        req.Email,
			DisplayName:  strings.TrimSpace(req.DisplayName),
			PasswordHash: hash,
			RoleID:       req.RoleID,
			Active:       true,
		}
		if req.Active != nil {
			user.Active = *req.Active
		}
		if err := a.store.CreateUser(r.Context(), user); err != nil {
			handleStoreError(w, r, err)
			return
		}
		a.recorder.Record(r.Context(), "user.create", "users", user.Email)
		w.Header().Set("Location", fmt.Sprintf("/v1/users/%d", user.ID))
		writeJSON(w, http.StatusCreated, user)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	id, rest, err := pathID(r.URL.Path, "/v1/users/")
	if err != nil || len(rest) != 0 {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		if !a.requirePermission(w, r, auth.ResourceUsers, auth.ActionRead) {
			return
		}
		user, err := a.store.FindUser(r.Context(), id)
		if err != nil {
			handleStoreError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	case http.MethodPut:
		if !a.requirePermission(w, r, auth.ResourceUsers, auth.ActionManage) {
			return
		}
		var req updateUserRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		user, err := a.store.FindUser(r.Context(), id)
		if err != nil {
			handleStoreError(w, r, err)
			return
		}
		if req.DisplayName != nil {
			user.DisplayName = strings.TrimSpace(*req.DisplayName)
		}
		if req.Password != nil {
			if user.Federated {
				writeError(w, r, http.StatusBadRequest, "federated accounts have no password")
				return
			}
			hash, err := auth.HashPassword(*req.Password, a.bcryptCost)
			if err != nil {
				writeError(w, r, http.StatusBadRequest, err.Error())
				return
			}
			user.PasswordHash = hash
		}
		if req.RoleID != nil {
			user.RoleID = *req.RoleID
		}
		if req.Active != nil {
			user.Active = *req.Active
		}
		if err := a.store.UpdateUser(r.Context(), user); err != nil {
			handleStoreError(w, r, err)
			return
		}
		a.recorder.Record(r.Context(), "user.update", "users", user.Email)
		writeJSON(w, http.StatusOK, user)
	case http.MethodDelete:
		if !a.requirePermission(w, r, auth.ResourceUsers, auth.ActionManage) {
			return
		}
		if err := a.store.DeleteUser(r.Context(), id); err != nil {
			handleStoreError(w, r, err)
			return
		}
		a.recorder.Record(r.Context(), "user.delete", "users", fmt.Sprintf("id=%d", id))
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) handleRoles(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !a.requirePermission(w, r, auth.ResourceRoles, auth.ActionRead) {
			return
		}
		roles, err := a.store.ListRoles(r.Context())
		if err != nil {
			handleStoreError(w, r, err)
			return
		}
		if roles == nil {
			roles = []*auth.Role{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"roles": roles})
	case http.MethodPost:
		if !a.requirePermission(w, r, auth.ResourceRoles, auth.ActionManage) {
			return
		}
		var req createRoleRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeError(w, r, http.StatusBadRequest, "name is required")
			return
		}
		role := &auth.Role{Name: req.Name, Description: strings.TrimSpace(req.Description)}
		if err := a.store.CreateRole(r.Context(), role); err != nil {
			handleStoreError(w, r, err)
			return
		}
		a.recorder.Record(r.Context(), "role.create", "roles", role.Name)
		w.Header().Set("Location", fmt.Sprintf("/v1/roles/%d", role.ID))
		writeJSON(w, http.StatusCreated, role)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleRoleResource(w http.ResponseWriter, r *http.Request) {
	id, rest, err := pathID(r.URL.Path, "/v1/roles/")
	if err != nil {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch {
	case len(rest) == 0:
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		if !a.requirePermission(w, r, auth.ResourceRoles, auth.ActionRead) {
			return
		}
		role, err := a.store.FindRole(r.Context(), id)
		if err != nil {
			handleStoreError(w, r, err)
			return
		}
		perms, err := a.store.ListPermissionsForRole(r.Context(), id)
		if err != nil {
			handleStoreError(w, r, err)
			return
		}
		if perms == nil {
			perms = []auth.Permission{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"role": role, "permissions": perms})
	case len(rest) == 1 && rest[0] == "grants":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		if !a.requirePermission(w, r, auth.ResourceRoles, auth.ActionManage) {
			return
		}
		var req grantRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if req.PermissionID <= 0 {
			writeError(w, r, http.StatusBadRequest, "permission_id is required")
			return
		}
		if err := a.store.Grant(r.Context(), id, req.PermissionID); err != nil {
			handleStoreError(w, r, err)
			return
		}
		a.recorder.Record(r.Context(), "role.grant", "roles", fmt.Sprintf("role=%d permission=%d", id, req.PermissionID))
		w.WriteHeader(http.StatusNoContent)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) handlePermissions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !a.requirePermission(w, r, auth.ResourceRoles, auth.ActionRead) {
			return
		}
		perms, err := a.store.ListPermissions(r.Context())
		if err != nil {
			handleStoreError(w, r, err)
			return
		}
		if perms == nil {
			perms = []auth.Permission{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"permissions": perms})
	case http.MethodPost:
		if !a.requirePermission(w, r, auth.ResourceRoles, auth.ActionManage) {
			return
		}
		var req createPermissionRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		req.Resource = strings.TrimSpace(req.Resource)
		req.Action = strings.TrimSpace(req.Action)
		if req.Name == "" || req.Resource == "" || req.Action == "" {
			writeError(w, r, http.StatusBadRequest, "name, resource and action are required")
			return
		}
		perm := &auth.Permission{
			Name:        req.Name,
			Description: strings.TrimSpace(req.Description),
			Resource:    req.Resource,
			Action:      req.Action,
		}
		if err := a.store.CreatePermission(r.Context(), perm); err != nil {
			handleStoreError(w, r, err)
			return
		}
		a.recorder.Record(r.Context(), "permission.create", "roles", perm.Name)
		writeJSON(w, http.StatusCreated, perm)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}
