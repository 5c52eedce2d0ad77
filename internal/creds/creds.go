// Package creds abstracts where auth tokens live. The transport and REST
// layers depend on Provider only, so token storage stays swappable and the
// reconnect path can re-read a fresh token on every attempt.
package creds

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/arenahub/arena-client/pkg/types"
)

// Provider yields the current access token. ok is false when no token is
// stored (logged out, fresh install).
type Provider interface {
	CurrentToken() (token string, ok bool)
}

// Store is a Provider that the auth flow can also write through.
type Store interface {
	Provider
	SaveTokens(types.TokenPair) error
	RefreshToken() (string, bool)
	ClearTokens() error
}

// Static is a fixed-token Provider, handy in tests and one-shot tools.
type Static string

func (s Static) CurrentToken() (string, bool) { return string(s), s != "" }

// Usable reports whether a token is worth attempting a connection with.
// Empty tokens are not. Tokens that parse as a JWT with an exp claim in the
// past are not. Opaque (non-JWT) tokens pass; the backend is the judge there.
func Usable(token string) bool {
	if token == "" {
		return false
	}
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return true // not a JWT, nothing to check locally
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return exp.After(time.Now())
}
