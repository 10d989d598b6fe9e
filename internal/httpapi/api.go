// Package httpapi is the HTTP boundary: routing, authentication
// middleware, permission checks and JSON encoding.
package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"talentgate.org/internal/audit"
	"talentgate.org/internal/auth"
	"talentgate.org/internal/obs"
	"talentgate.org/internal/sso"
	"talentgate.org/internal/stream"
)

// ReadyProbe is a simple readiness check (for example, DB ping).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Options carries the collaborators the API needs. Verifier and
// Reconciler are nil when federated login is not configured.
type Options struct {
	Store         auth.Store
	Codec         *auth.TokenCodec
	Authenticator *auth.Authenticator
	Evaluator     *auth.Evaluator
	Verifier      sso.Verifier
	Reconciler    *sso.Reconciler
	Recorder      *audit.Recorder
	Stream        *stream.Stream
	ReadyProbe    ReadyProbe
	Version       string

	BcryptCost     int
	RateLimitRPS   float64
	RateLimitBurst int
	MaxBodyBytes   int64
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	store      auth.Store
	codec      *auth.TokenCodec
	authn      *auth.Authenticator
	eval       *auth.Evaluator
	verifier   sso.Verifier
	reconciler *sso.Reconciler
	recorder   *audit.Recorder
	stream     *stream.Stream

	bcryptCost     int
	rateLimitRPS   float64
	rateLimitBurst int
	maxBodyBytes   int64
}

func New(opts Options) *API {
	a := &API{
		mux:            http.NewServeMux(),
		readyProbe:     opts.ReadyProbe,
		version:        opts.Version,
		store:          opts.Store,
		codec:          opts.Codec,
		authn:          opts.Authenticator,
		eval:           opts.Evaluator,
		verifier:       opts.Verifier,
		reconciler:     opts.Reconciler,
		recorder:       opts.Recorder,
		stream:         opts.Stream,
		bcryptCost:     opts.BcryptCost,
		rateLimitRPS:   opts.RateLimitRPS,
		rateLimitBurst: opts.RateLimitBurst,
		maxBodyBytes:   opts.MaxBodyBytes,
	}
	if a.bcryptCost == 0 {
		a.bcryptCost = auth.DefaultBcryptCost
	}
	if a.rateLimitRPS <= 0 {
		a.rateLimitRPS = 50
	}
	if a.rateLimitBurst <= 0 {
		a.rateLimitBurst = 100
	}
	if a.maxBodyBytes <= 0 {
		a.maxBodyBytes = 1 << 20
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// authentication
	a.mux.HandleFunc("/v1/auth/token", a.handleAuthToken)
	a.mux.HandleFunc("/v1/auth/sso/login", a.handleSSOLogin)
	a.mux.HandleFunc("/v1/auth/sso/callback", a.handleSSOCallback)
	a.mux.HandleFunc("/v1/me", a.handleMe)

	// administration
	a.mux.HandleFunc("/v1/users", a.handleUsers)
	a.mux.HandleFunc("/v1/users/", a.handleUserResource)
	a.mux.HandleFunc("/v1/roles", a.handleRoles)
	a.mux.HandleFunc("/v1/roles/", a.handleRoleResource)
	a.mux.HandleFunc("/v1/permissions", a.handlePermissions)

	// recruitment data
	a.mux.HandleFunc("/v1/candidates", a.handleCandidates)
	a.mux.HandleFunc("/v1/candidates/", a.handleCandidateResource)

	// audit
	a.mux.HandleFunc("/v1/audit-logs", a.handleAuditLogs)
	a.mux.HandleFunc("/v1/audit/stream", a.Stream)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped http.Handler for the server.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = MaxBodyBytes(h, a.maxBodyBytes)
	h = RateLimit(h, a.rateLimitBurst, a.rateLimitRPS)
	h = CORS(h)
	h = SecurityHeaders(h)
	h = Logging(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "talentgate-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "talentgate-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := audit.RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func handleStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrConflict):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func parsePage(r *http.Request) (offset, limit int, err error) {
	offset, err = parseNonNegativeInt(r.URL.Query().Get("offset"), 0)
	if err != nil {
		return 0, 0, errors.New("offset must be a non-negative integer")
	}
	limit, err = parseNonNegativeInt(r.URL.Query().Get("limit"), 100)
	if err != nil || limit > 1000 {
		return 0, 0, errors.New("limit must be between 0 and 1000")
	}
	return offset, limit, nil
}

func parseNonNegativeInt(raw string, def int) (int, error) {
	if strings.TrimSpace(raw) == "" {
		return def, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val < 0 {
		return 0, errors.New("invalid integer")
	}
	return val, nil
}

// pathID extracts the trailing numeric id from /v1/<resource>/<id> style
// paths. The remainder holds any sub-resource segments.
func pathID(path, prefix string) (int64, []string, error) {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return 0, nil, errors.New("resource id is required")
	}
	parts := strings.Split(rest, "/")
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, nil, errors.New("resource id must be a positive integer")
	}
	return id, parts[1:], nil
}
