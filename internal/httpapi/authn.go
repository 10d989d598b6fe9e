package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"talentgate.org/internal/auth"
	"talentgate.org/internal/obs"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/v1/auth/token",
	"/v1/auth/sso/login",
	"/v1/auth/sso/callback",
	"/metrics",
	"/healthz",
	"/readyz",
	"/v1/info",
	"/",
}

func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		subject, err := a.codec.Validate(token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrTokenExpired):
				obs.ObserveTokenRejection("expired")
				writeError(w, r, http.StatusUnauthorized, "token expired")
			case errors.Is(err, auth.ErrTokenSignature):
				obs.ObserveTokenRejection("signature")
				writeError(w, r, http.StatusUnauthorized, "invalid token")
			default:
				obs.ObserveTokenRejection("malformed")
				writeError(w, r, http.StatusUnauthorized, "invalid token")
			}
			return
		}

		// Token subjects are looked up fresh on every request so
		// deactivation and role changes apply to already issued tokens.
		user, err := a.store.FindUserByEmail(r.Context(), subject)
		if errors.Is(err, auth.ErrNotFound) {
			writeError(w, r, http.StatusUnauthorized, "invalid token")
			return
		}
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "authentication error")
			return
		}
		if !user.Active {
			writeError(w, r, http.StatusUnauthorized, "account inactive")
			return
		}

		ctx := auth.ContextWithUser(r.Context(), user)
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requirePermission authorizes the request's user for (resource,
// action). A denial is written, counted and audited here; callers just
// return when it reports false.
func (a *API) requirePermission(w http.ResponseWriter, r *http.Request, resource, action string) bool {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return false
	}
	allowed, err := a.eval.Authorize(r.Context(), user, resource, action)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "authorization error")
		return false
	}
	if !allowed {
		obs.ObservePermissionDenial(resource, action)
		a.recorder.Record(r.Context(), "auth.permission_denied", resource, action)
		writeError(w, r, http.StatusForbidden, "permission denied")
		return false
	}
	return true
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
