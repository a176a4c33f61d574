// Package auth bridges the external identity provider's session tokens
// to a caller subject. Tokens are HS256 JWTs whose "sub" claim carries
// the provider's user id; the backend only verifies, it never issues
// tokens to clients.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for tokens that are missing, expired,
// malformed, or signed with the wrong key.
var ErrInvalidToken = errors.New("auth: invalid token")

// A Verifier validates session tokens with a shared HMAC secret.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier. The secret must be at least 16
// characters.
func NewVerifier(secret string) (*Verifier, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: secret must be at least 16 characters")
	}
	return &Verifier{secret: []byte(secret)}, nil
}

// Verify parses and validates a token string and returns the subject
// claim.
func (v *Verifier) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// Subject resolves the caller's subject from the request's bearer
// token. A missing or invalid token yields an error; callers treat that
// as an anonymous request.
func (v *Verifier) Subject(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	tokenString, found := strings.CutPrefix(header, "Bearer ")
	if !found || tokenString == "" {
		return "", ErrInvalidToken
	}
	return v.Verify(tokenString)
}

// Issue signs a token for the given subject. Production tokens come
// from the identity provider; Issue exists for tests and local
// development.
func (v *Verifier) Issue(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}
