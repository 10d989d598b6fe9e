package auth_test

import (
	"context"
	"testing"

	"talentgate.org/internal/auth"
	"talentgate.org/internal/auth/authtest"
)

func grantPair(t *testing.T, store *authtest.Store, roleID int64, resource, action string) {
	t.Helper()
	perm := &auth.Permission{Name: resource + "_" + action, Resource: resource, Action: action}
	if err := store.CreatePermission(context.Background(), perm); err != nil {
		t.Fatalf("CreatePermission: %v", err)
	}
	if err := store.Grant(context.Background(), roleID, perm.ID); err != nil {
		t.Fatalf("Grant: %v", err)
	}
}

func TestAuthorizeRecruiterScenario(t *testing.T) {
	store := authtest.NewStore()
	role := &auth.Role{Name: "Recruiter"}
	if err := store.CreateRole(context.Background(), role); err != nil {
		t.Fatalf("CreateRole: %v", err)
	}
	grantPair(t, store, role.ID, "candidates", "create")
	user := store.AddUser("a@x.com", "pw", role.ID, false)

	eval := auth.NewEvaluator(store)

	allowed, err := eval.Authorize(context.Background(), user, "candidates", "create")
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if !allowed {
		t.Fatal("expected (candidates, create) to be allowed")
	}

	denied, err := eval.Authorize(context.Background(), user, "candidates", "delete")
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if denied {
		t.Fatal("expected (candidates, delete) to be denied")
	}
}

func TestAuthorizeDenyDefaults(t *testing.T) {
	store := authtest.NewStore()
	eval := auth.NewEvaluator(store)
	ctx := context.Background()

	if allowed, _ := eval.Authorize(ctx, nil, "users", "read"); allowed {
		t.Fatal("nil user authorized")
	}
	noRole := store.AddUser("norole@x.com", "pw", 0, false)
	if allowed, _ := eval.Authorize(ctx, noRole, "users", "read"); allowed {
		t.Fatal("user without role authorized")
	}

	empty := &auth.Role{Name: "Empty"}
	if err := store.CreateRole(ctx, empty); err != nil {
		t.Fatalf("CreateRole: %v", err)
	}
	emptyUser := store.AddUser("empty@x.com", "pw", empty.ID, false)
	if allowed, _ := eval.Authorize(ctx, emptyUser, "users", "read"); allowed {
		t.Fatal("role with zero grants authorized")
	}
}

func TestAuthorizeExactCaseSensitiveMatch(t *testing.T) {
	store := authtest.NewStore()
	role := &auth.Role{Name: "Viewer"}
	ctx := context.Background()
	if err := store.CreateRole(ctx, role); err != nil {
		t.Fatalf("CreateRole: %v", err)
	}
	grantPair(t, store, role.ID, "documents", "read")
	user := store.AddUser("v@x.com", "pw", role.ID, false)
	eval := auth.NewEvaluator(store)

	cases := []struct {
		resource, action string
		want             bool
	}{
		{"documents", "read", true},
		{"Documents", "read", false},
		{"documents", "READ", false},
		{"documents", "reads", false},
		{"document", "read", false},
	}
	for _, tc := range cases {
		got, err := eval.Authorize(ctx, user, tc.resource, tc.action)
		if err != nil {
			t.Fatalf("Authorize(%s,%s): %v", tc.resource, tc.action, err)
		}
		if got != tc.want {
			t.Fatalf("Authorize(%s,%s)=%v, want %v", tc.resource, tc.action, got, tc.want)
		}
	}
}

func TestAuthorizeSeesFreshGrants(t *testing.T) {
	store := authtest.NewStore()
	role := &auth.Role{Name: "Grower"}
	ctx := context.Background()
	if err := store.CreateRole(ctx, role); err != nil {
		t.Fatalf("CreateRole: %v", err)
	}
	user := store.AddUser("g@x.com", "pw", role.ID, false)
	eval := auth.NewEvaluator(store)

	if allowed, _ := eval.Authorize(ctx, user, "audit", "read"); allowed {
		t.Fatal("unexpected allow before grant")
	}
	grantPair(t, store, role.ID, "audit", "read")
	if allowed, _ := eval.Authorize(ctx, user, "audit", "read"); !allowed {
		t.Fatal("grant not visible on next check")
	}
}
