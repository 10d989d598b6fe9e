package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenCodec issues and validates signed session tokens. Tokens carry
// the subject email and an expiry; the server stores nothing, so expiry
// is the sole bound on token lifetime. There is no revocation list;
// deactivating an account is enforced at request time instead.
type TokenCodec struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// TokenCodecOption configures TokenCodec behavior.
type TokenCodecOption func(*TokenCodec)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) TokenCodecOption {
	return func(c *TokenCodec) {
		if fn != nil {
			c.now = fn
		}
	}
}

// NewTokenCodec constructs a codec from process-wide configuration.
// The signing key and issuer are fixed for the codec's lifetime.
func NewTokenCodec(secret, issuer string, ttl time.Duration, opts ...TokenCodecOption) (*TokenCodec, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("token secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be greater than zero")
	}
	c := &TokenCodec{
		secret: []byte(secret),
		issuer: strings.TrimSpace(issuer),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue signs a session token for the given subject email.
func (c *TokenCodec) Issue(subjectEmail string) (string, time.Time, error) {
	subjectEmail = strings.TrimSpace(subjectEmail)
	if subjectEmail == "" {
		return "", time.Time{}, errors.New("subject email is required")
	}
	now := c.now().UTC()
	expiresAt := now.Add(c.ttl)
	claims := jwt.RegisteredClaims{
		Issuer:    c.issuer,
		Subject:   subjectEmail,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		ID:        uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Validate verifies signature and expiry and returns the subject email.
// Rejections are one of ErrTokenExpired, ErrTokenSignature or
// ErrTokenMalformed.
func (c *TokenCodec) Validate(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrTokenMalformed
	}
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrTokenSignature
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return c.now().UTC() }))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, ErrTokenSignature):
			return "", ErrTokenSignature
		default:
			return "", ErrTokenMalformed
		}
	}
	if !parsed.Valid {
		return "", ErrTokenSignature
	}
	if c.issuer != "" && claims.Issuer != c.issuer {
		return "", ErrTokenSignature
	}
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return "", ErrTokenMalformed
	}
	if claims.ExpiresAt == nil {
		return "", ErrTokenMalformed
	}
	return subject, nil
}
