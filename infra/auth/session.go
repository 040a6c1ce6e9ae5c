package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/framez/framez/domain"
)

// Session resolves the authenticated account's identity from the access
// token. The token is a JWT whose subject claim carries the account id;
// the backend verifies signatures, so the claim is read without local
// verification.
type Session struct {
	tokens TokenProvider
}

// NewSession creates a Session over the given token source.
func NewSession(tokens TokenProvider) *Session {
	return &Session{tokens: tokens}
}

// AccountID returns the authenticated account id. Core operations take
// this value explicitly; nothing reads it from ambient state.
func (s *Session) AccountID() (string, error) {
	token, err := s.tokens.AccessToken()
	if err != nil {
		return "", err
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("%w: parsing access token: %v", domain.ErrUnauthorized, err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("%w: access token has no subject", domain.ErrUnauthorized)
	}
	return sub, nil
}
