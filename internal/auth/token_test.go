package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTokenIssueValidateRoundTrip(t *testing.T) {
	codec, err := NewTokenCodec("unit-test-secret", "talentgate", 30*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	token, expiresAt, err := codec.Issue("a@x.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expected future expiry, got %v", expiresAt)
	}
	subject, err := codec.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if subject != "a@x.com" {
		t.Fatalf("unexpected subject: %s", subject)
	}
}

func TestTokenExpired(t *testing.T) {
	current := time.Now()
	codec, err := NewTokenCodec("unit-test-secret", "talentgate", time.Minute,
		WithClock(func() time.Time { return current }))
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	token, _, err := codec.Issue("a@x.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	current = current.Add(2 * time.Minute)
	_, err = codec.Validate(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenTampered(t *testing.T) {
	codec, err := NewTokenCodec("unit-test-secret", "talentgate", time.Minute)
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	token, _, err := codec.Issue("a@x.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Flip a character in the payload segment; the signature no longer
	// covers the modified content.
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %s", token)
	}
	payload := []byte(parts[1])
	if payload[3] == 'A' {
		payload[3] = 'B'
	} else {
		payload[3] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	if _, err := codec.Validate(tampered); err == nil {
		t.Fatal("tampered token validated")
	}
}

func TestTokenWrongSecret(t *testing.T) {
	issuerCodec, err := NewTokenCodec("secret-one", "talentgate", time.Minute)
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	verifierCodec, err := NewTokenCodec("secret-two", "talentgate", time.Minute)
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	token, _, err := issuerCodec.Issue("a@x.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	_, err = verifierCodec.Validate(token)
	if !errors.Is(err, ErrTokenSignature) {
		t.Fatalf("expected ErrTokenSignature, got %v", err)
	}
}

func TestTokenMalformed(t *testing.T) {
	codec, err := NewTokenCodec("unit-test-secret", "talentgate", time.Minute)
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	for _, raw := range []string{"", "garbage", "a.b", "a.b.c.d"} {
		if _, err := codec.Validate(raw); !errors.Is(err, ErrTokenMalformed) {
			t.Fatalf("Validate(%q): expected ErrTokenMalformed, got %v", raw, err)
		}
	}
}

func TestTokenWrongIssuer(t *testing.T) {
	issuerCodec, err := NewTokenCodec("unit-test-secret", "other-service", time.Minute)
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	verifierCodec, err := NewTokenCodec("unit-test-secret", "talentgate", time.Minute)
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	token, _, err := issuerCodec.Issue("a@x.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := verifierCodec.Validate(token); err == nil {
		t.Fatal("token with foreign issuer validated")
	}
}

func TestNewTokenCodecValidation(t *testing.T) {
	if _, err := NewTokenCodec("", "talentgate", time.Minute); err == nil {
		t.Fatal("expected error for empty secret")
	}
	if _, err := NewTokenCodec("secret", "talentgate", 0); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}
