package httpapi

import (
	"errors"
	"net/http"
	"time"

	"talentgate.org/internal/auth"
	"talentgate.org/internal/obs"
	"talentgate.org/internal/sso"
)

const (
	stateCookie = "sso_state"
	nonceCookie = "sso_nonce"
)

func (a *API) handleSSOLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if a.verifier == nil {
		writeError(w, r, http.StatusServiceUnavailable, "federated login not configured")
		return
	}

	authURL, state, nonce, err := a.verifier.Begin(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "federated login unavailable")
		return
	}

	setCallbackCookie(w, r, stateCookie, state)
	setCallbackCookie(w, r, nonceCookie, nonce)
	http.Redirect(w, r, authURL, http.StatusFound)
}

func (a *API) handleSSOCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if a.verifier == nil {
		writeError(w, r, http.StatusServiceUnavailable, "federated login not configured")
		return
	}

	state, err := r.Cookie(stateCookie)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "state cookie missing")
		return
	}
	if q := r.URL.Query().Get("state"); q == "" || q != state.Value {
		writeError(w, r, http.StatusBadRequest, "state mismatch")
		return
	}
	nonce, err := r.Cookie(nonceCookie)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "nonce cookie missing")
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, r, http.StatusBadRequest, "code is required")
		return
	}
	clearCallbackCookie(w, r, stateCookie)
	clearCallbackCookie(w, r, nonceCookie)

	assertion, err := a.verifier.Exchange(r.Context(), code, nonce.Value)
	if err != nil {
		obs.ObserveLogin("sso", "fail")
		a.recorder.Record(r.Context(), "auth.sso_failed", "auth", "assertion rejected")
		writeError(w, r, http.StatusUnauthorized, "invalid assertion")
		return
	}

	user, err := a.reconciler.Reconcile(r.Context(), assertion)
	if err != nil {
		switch {
		case errors.Is(err, sso.ErrMissingDefaultRole):
			// Configuration fault, not a bad login. Surface it loudly.
			obs.LogRequest(map[string]any{
				"ts":    time.Now().UTC().Format(time.RFC3339Nano),
				"level": "error",
				"msg":   "sso default role missing",
				"error": err.Error(),
			})
			writeError(w, r, http.StatusServiceUnavailable, "federated login misconfigured")
		case errors.Is(err, sso.ErrInvalidAssertion):
			obs.ObserveLogin("sso", "fail")
			a.recorder.Record(r.Context(), "auth.sso_failed", "auth", "assertion rejected")
			writeError(w, r, http.StatusUnauthorized, "invalid assertion")
		default:
			writeError(w, r, http.StatusInternalServerError, "federated login failed")
		}
		return
	}

	token, expiresAt, err := a.codec.Issue(user.Email)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token generation failed")
		return
	}

	obs.ObserveLogin("sso", "ok")
	a.recorder.Record(auth.ContextWithUser(r.Context(), user), "auth.login", "auth", "federated login")

	writeJSON(w, http.StatusOK, tokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	})
}

func setCallbackCookie(w http.ResponseWriter, r *http.Request, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/v1/auth/sso",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearCallbackCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/v1/auth/sso",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}
