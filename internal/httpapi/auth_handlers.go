package httpapi

import (
	"errors"
	"net/http"
	"time"

	"talentgate.org/internal/auth"
	"talentgate.org/internal/obs"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      *auth.User `json:"user"`
}

func (a *API) handleAuthToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user, err := a.authn.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrWrongAuthMethod):
			// One generic answer for every rejection so the endpoint
			// cannot be used to probe which accounts exist or how they
			// authenticate.
			obs.ObserveLogin("password", "fail")
			a.recorder.Record(r.Context(), "auth.login_failed", "auth", "password login rejected")
			writeError(w, r, http.StatusUnauthorized, "invalid credentials")
		default:
			writeError(w, r, http.StatusInternalServerError, "authentication error")
		}
		return
	}
	if !user.Active {
		obs.ObserveLogin("password", "fail")
		a.recorder.Record(r.Context(), "auth.login_denied", "auth", "inactive account")
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, expiresAt, err := a.codec.Issue(user.Email)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token generation failed")
		return
	}

	obs.ObserveLogin("password", "ok")
	a.recorder.Record(auth.ContextWithUser(r.Context(), user), "auth.login", "auth", "password login")

	writeJSON(w, http.StatusOK, tokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	})
}

type meResponse struct {
	User        *auth.User         `json:"user"`
	Role        *auth.Role         `json:"role,omitempty"`
	Permissions []auth.Permission  `json:"permissions"`
	Activity    []*auth.AuditEntry `json:"recent_activity"`
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	resp := meResponse{User: user, Permissions: []auth.Permission{}, Activity: []*auth.AuditEntry{}}
	if user.RoleID != 0 {
		role, err := a.store.FindRole(r.Context(), user.RoleID)
		if err != nil && !errors.Is(err, auth.ErrNotFound) {
			writeError(w, r, http.StatusInternalServerError, "internal error")
			return
		}
		if err == nil {
			resp.Role = role
		}
		perms, err := a.store.ListPermissionsForRole(r.Context(), user.RoleID)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "internal error")
			return
		}
		if perms != nil {
			resp.Permissions = perms
		}
	}
	activity, err := a.store.ListAuditLogEntries(r.Context(), user.ID, 0, 10)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if activity != nil {
		resp.Activity = activity
	}
	writeJSON(w, http.StatusOK, resp)
}
