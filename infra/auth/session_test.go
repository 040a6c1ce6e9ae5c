package auth

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/framez/framez/domain"
)

type fixedToken string

func (f fixedToken) AccessToken() (string, error) { return string(f), nil }

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return token
}

func TestAccountID_ReadsSubjectClaim(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"sub": "user-123", "role": "authenticated"})

	id, err := NewSession(fixedToken(token)).AccountID()
	if err != nil {
		t.Fatalf("AccountID failed: %v", err)
	}
	if id != "user-123" {
		t.Fatalf("unexpected account id: %q", id)
	}
}

func TestAccountID_MissingSubject(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"role": "authenticated"})

	_, err := NewSession(fixedToken(token)).AccountID()
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAccountID_MalformedToken(t *testing.T) {
	_, err := NewSession(fixedToken("not-a-jwt")).AccountID()
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestFileTokenProvider_TrimsWhitespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("  abc.def.ghi\n"), 0o600); err != nil {
		t.Fatalf("writing token file: %v", err)
	}

	token, err := NewFileTokenProvider(path).AccessToken()
	if err != nil {
		t.Fatalf("AccessToken failed: %v", err)
	}
	if token != "abc.def.ghi" {
		t.Fatalf("unexpected token: %q", token)
	}
}

func TestFileTokenProvider_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("   \n"), 0o600); err != nil {
		t.Fatalf("writing token file: %v", err)
	}

	if _, err := NewFileTokenProvider(path).AccessToken(); err == nil {
		t.Fatalf("expected error for empty token file")
	}
}

func TestFileTokenProvider_MissingFile(t *testing.T) {
	if _, err := NewFileTokenProvider(filepath.Join(t.TempDir(), "absent")).AccessToken(); err == nil {
		t.Fatalf("expected error for missing token file")
	}
}
