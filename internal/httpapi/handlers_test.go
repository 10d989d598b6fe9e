package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func jsonRequest(method, path, token string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
}

func TestPasswordLogin(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "rec@x.com", "correct horse", "Recruiter")

	rec := env.do(jsonRequest(http.MethodPost, "/v1/auth/token", "", map[string]string{
		"email":    "rec@x.com",
		"password": "correct horse",
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
		User  struct {
			Email        string `json:"email"`
			PasswordHash string `json:"password_hash"`
		} `json:"user"`
	}
	decodeBody(t, rec, &resp)
	if resp.Token == "" {
		t.Fatal("expected a token")
	}
	if resp.User.Email != "rec@x.com" {
		t.Fatalf("unexpected user: %+v", resp.User)
	}
	if resp.User.PasswordHash != "" {
		t.Fatal("password hash must never leave the server")
	}

	// The issued token must authenticate follow-up requests.
	me := env.do(jsonRequest(http.MethodGet, "/v1/me", resp.Token, nil))
	if me.Code != http.StatusOK {
		t.Fatalf("token rejected: %d", me.Code)
	}
}

func TestPasswordLoginRejectionsLookAlike(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "rec@x.com", "pw", "Recruiter")
	env.store.AddUser("sso@x.com", "", env.roles["Recruiter"], true)

	attempts := []map[string]string{
		{"email": "rec@x.com", "password": "wrong"},
		{"email": "nobody@x.com", "password": "wrong"},
		{"email": "sso@x.com", "password": "anything"},
	}
	var bodies []string
	for _, attempt := range attempts {
		rec := env.do(jsonRequest(http.MethodPost, "/v1/auth/token", "", attempt))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %v: expected 401, got %d", attempt, rec.Code)
		}
		var resp struct {
			Error string `json:"error"`
		}
		decodeBody(t, rec, &resp)
		bodies = append(bodies, resp.Error)
	}
	for _, msg := range bodies[1:] {
		if msg != bodies[0] {
			t.Fatalf("rejection messages differ: %v", bodies)
		}
	}
}

func TestMeReturnsRoleAndPermissions(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "rec@x.com", "pw", "Recruiter")

	rec := env.do(jsonRequest(http.MethodGet, "/v1/me", env.tokenFor(t, "rec@x.com"), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Role struct {
			Name string `json:"name"`
		} `json:"role"`
		Permissions []struct {
			Resource string `json:"resource"`
			Action   string `json:"action"`
		} `json:"permissions"`
	}
	decodeBody(t, rec, &resp)
	if resp.Role.Name != "Recruiter" {
		t.Fatalf("unexpected role %q", resp.Role.Name)
	}
	if len(resp.Permissions) != 7 {
		t.Fatalf("expected 7 recruiter permissions, got %d", len(resp.Permissions))
	}
}

func TestCandidateLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "rec@x.com", "pw", "Recruiter")
	token := env.tokenFor(t, "rec@x.com")

	rec := env.do(jsonRequest(http.MethodPost, "/v1/candidates", token, map[string]string{
		"name":  "Grace Hopper",
		"email": "grace@navy.mil",
	}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID        int64 `json:"id"`
		CreatedBy int64 `json:"created_by"`
	}
	decodeBody(t, rec, &created)
	if created.CreatedBy == 0 {
		t.Fatal("creator not recorded")
	}

	rec = env.do(jsonRequest(http.MethodPut, fmt.Sprintf("/v1/candidates/%d", created.ID), token, map[string]string{
		"name": "Rear Admiral Hopper",
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", rec.Code)
	}

	rec = env.do(jsonRequest(http.MethodGet, "/v1/candidates", token, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}

	// Recruiters cannot delete candidates.
	rec = env.do(jsonRequest(http.MethodDelete, fmt.Sprintf("/v1/candidates/%d", created.ID), token, nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("delete: expected 403, got %d", rec.Code)
	}
}

func TestPermissionDenialIsAudited(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "intern@x.com", "pw", "HR Intern")

	rec := env.do(jsonRequest(http.MethodGet, "/v1/users", env.tokenFor(t, "intern@x.com"), nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	var found bool
	for _, entry := range env.store.AuditEntries() {
		if entry.Action == "auth.permission_denied" && entry.Resource == "users" {
			found = true
			if entry.ActorID == 0 {
				t.Fatal("denial entry must name the actor")
			}
		}
	}
	if !found {
		t.Fatal("permission denial not audited")
	}
}

func TestUserAdministration(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "admin@x.com", "pw", "Super Admin")
	admin := env.tokenFor(t, "admin@x.com")

	rec := env.do(jsonRequest(http.MethodPost, "/v1/users", admin, map[string]any{
		"email":        "new@x.com",
		"password":     "initial pw",
		"display_name": "New Hire",
		"role_id":      env.roles["Sourcer"],
	}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create user: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID int64 `json:"id"`
	}
	decodeBody(t, rec, &created)

	// Duplicate email conflicts.
	rec = env.do(jsonRequest(http.MethodPost, "/v1/users", admin, map[string]any{
		"email":    "new@x.com",
		"password": "other",
	}))
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate: expected 409, got %d", rec.Code)
	}

	// The new user can log in with the initial password.
	rec = env.do(jsonRequest(http.MethodPost, "/v1/auth/token", "", map[string]string{
		"email":    "new@x.com",
		"password": "initial pw",
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("new user login: expected 200, got %d", rec.Code)
	}

	// Deactivate, then the account cannot log in.
	inactive := false
	rec = env.do(jsonRequest(http.MethodPut, fmt.Sprintf("/v1/users/%d", created.ID), admin, map[string]any{
		"active": &inactive,
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("deactivate: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = env.do(jsonRequest(http.MethodPost, "/v1/auth/token", "", map[string]string{
		"email":    "new@x.com",
		"password": "initial pw",
	}))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("inactive login: expected 401, got %d", rec.Code)
	}

	rec = env.do(jsonRequest(http.MethodDelete, fmt.Sprintf("/v1/users/%d", created.ID), admin, nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}
	rec = env.do(jsonRequest(http.MethodGet, fmt.Sprintf("/v1/users/%d", created.ID), admin, nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get deleted: expected 404, got %d", rec.Code)
	}
}

func TestRoleAndGrantAdministration(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "admin@x.com", "pw", "Super Admin")
	admin := env.tokenFor(t, "admin@x.com")

	rec := env.do(jsonRequest(http.MethodPost, "/v1/roles", admin, map[string]string{
		"name":        "Auditor",
		"description": "Read-only audit access",
	}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create role: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var role struct {
		ID int64 `json:"id"`
	}
	decodeBody(t, rec, &role)

	rec = env.do(jsonRequest(http.MethodPost, "/v1/permissions", admin, map[string]string{
		"name":     "export_reports",
		"resource": "reports",
		"action":   "export",
	}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create permission: expected 201, got %d", rec.Code)
	}
	var perm struct {
		ID int64 `json:"id"`
	}
	decodeBody(t, rec, &perm)

	rec = env.do(jsonRequest(http.MethodPost, fmt.Sprintf("/v1/roles/%d/grants", role.ID), admin, map[string]int64{
		"permission_id": perm.ID,
	}))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("grant: expected 204, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(jsonRequest(http.MethodGet, fmt.Sprintf("/v1/roles/%d", role.ID), admin, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("get role: expected 200, got %d", rec.Code)
	}
	var detail struct {
		Permissions []struct {
			Resource string `json:"resource"`
		} `json:"permissions"`
	}
	decodeBody(t, rec, &detail)
	if len(detail.Permissions) != 1 || detail.Permissions[0].Resource != "reports" {
		t.Fatalf("unexpected grants: %+v", detail.Permissions)
	}

	// A role change applies to the next request without a new token.
	env.addUser(t, "user@x.com", "pw", "HR Intern")
	token := env.tokenFor(t, "user@x.com")
	rec = env.do(jsonRequest(http.MethodGet, "/v1/audit-logs", token, nil))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 before role change, got %d", rec.Code)
	}
}

func TestAuditLogListing(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "admin@x.com", "pw", "Super Admin")
	admin := env.tokenFor(t, "admin@x.com")

	rec := env.do(jsonRequest(http.MethodPost, "/v1/candidates", admin, map[string]string{"name": "C1"}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", rec.Code)
	}

	rec = env.do(jsonRequest(http.MethodGet, "/v1/audit-logs", admin, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Entries []struct {
			Action   string `json:"action"`
			ActorID  int64  `json:"actor_id"`
			Resource string `json:"resource"`
		} `json:"entries"`
	}
	decodeBody(t, rec, &resp)
	if len(resp.Entries) == 0 {
		t.Fatal("expected audit entries")
	}
	var found bool
	for _, e := range resp.Entries {
		if e.Action == "candidate.create" && e.ActorID != 0 {
			found = true
		}
	}
	if !found {
		t.Fatalf("candidate.create entry missing: %+v", resp.Entries)
	}

	rec = env.do(jsonRequest(http.MethodGet, "/v1/audit-logs?actor_id=bogus", admin, nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad actor_id, got %d", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(jsonRequest(http.MethodGet, "/v1/auth/token", "", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != "POST" {
		t.Fatalf("unexpected Allow header %q", allow)
	}
}

func TestUnknownFieldRejected(t *testing.T) {
	env := newTestEnv(t)
	env.addUser(t, "admin@x.com", "pw", "Super Admin")

	rec := env.do(jsonRequest(http.MethodPost, "/v1/roles", env.tokenFor(t, "admin@x.com"), map[string]string{
		"name":    "X",
		"surpise": "typo",
	}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
