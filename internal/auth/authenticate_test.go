package auth_test

import (
	"context"
	"errors"
	"testing"

	"talentgate.org/internal/auth"
	"talentgate.org/internal/auth/authtest"
)

func TestAuthenticateSuccess(t *testing.T) {
	store := authtest.NewStore()
	store.AddUser("a@x.com", "correct horse", 0, false)
	authn := auth.NewAuthenticator(store)

	user, err := authn.Authenticate(context.Background(), "a@x.com", "correct horse")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if user.Email != "a@x.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestAuthenticateBadPassword(t *testing.T) {
	store := authtest.NewStore()
	store.AddUser("a@x.com", "correct horse", 0, false)
	authn := auth.NewAuthenticator(store)

	_, err := authn.Authenticate(context.Background(), "a@x.com", "battery staple")
	if !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	authn := auth.NewAuthenticator(authtest.NewStore())

	_, err := authn.Authenticate(context.Background(), "nobody@x.com", "anything")
	if !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticateFederatedOnlyAccount(t *testing.T) {
	store := authtest.NewStore()
	store.AddUser("sso@x.com", "", 0, true)
	authn := auth.NewAuthenticator(store)

	for _, password := range []string{"", "guess", "sso@x.com"} {
		_, err := authn.Authenticate(context.Background(), "sso@x.com", password)
		if err == nil {
			t.Fatalf("federated account authenticated with password %q", password)
		}
		if password != "" && !errors.Is(err, auth.ErrWrongAuthMethod) {
			t.Fatalf("expected ErrWrongAuthMethod, got %v", err)
		}
	}
}

func TestAuthenticateEmptyInput(t *testing.T) {
	authn := auth.NewAuthenticator(authtest.NewStore())
	if _, err := authn.Authenticate(context.Background(), "", "pw"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := authn.Authenticate(context.Background(), "a@x.com", ""); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticateEmailExactMatch(t *testing.T) {
	store := authtest.NewStore()
	store.AddUser("a@x.com", "pw", 0, false)
	authn := auth.NewAuthenticator(store)

	if _, err := authn.Authenticate(context.Background(), "A@X.COM", "pw"); err == nil {
		t.Fatal("email lookup should be case-sensitive")
	}
}
