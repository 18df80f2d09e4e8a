package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/labregistry/lab-registry/internal/model"
)

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	tc := NewTokenCodec("test-secret")

	token, exp, err := tc.Issue(42, "ana@lab.test", model.RoleProfessor)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if got, want := time.Until(exp).Round(time.Minute), TokenTTL; got != want {
		t.Errorf("expiry %v from now, want %v", got, want)
	}

	claims, err := tc.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != 42 || claims.Email != "ana@lab.test" || claims.Role != model.RoleProfessor {
		t.Errorf("claims = %+v", claims)
	}
	if !claims.ExpiresAt.Equal(exp.Truncate(time.Second)) {
		t.Errorf("ExpiresAt = %v, want %v", claims.ExpiresAt, exp.Truncate(time.Second))
	}
}

func TestVerifyFailuresCollapse(t *testing.T) {
	tc := NewTokenCodec("test-secret")
	token, _, err := tc.Issue(7, "x@lab.test", model.RoleTecnico)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Wrong secret, structural garbage and a truncated token must all be
	// indistinguishable from each other.
	other := NewTokenCodec("different-secret")
	for name, raw := range map[string]string{
		"wrong secret": token,
		"garbage":      "not.a.token",
		"empty":        "",
		"truncated":    token[:len(token)-10],
	} {
		codec := tc
		if name == "wrong secret" {
			codec = other
		}
		if _, err := codec.Verify(raw); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("%s: err = %v, want ErrInvalidToken", name, err)
		}
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	tc := NewTokenCodec("test-secret")
	token, _, err := tc.Issue(7, "x@lab.test", model.RoleVoluntario)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Move the verifier's clock past the embedded expiry.
	tc.now = func() time.Time { return time.Now().Add(TokenTTL + time.Minute) }
	if _, err := tc.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token: err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsUnknownRole(t *testing.T) {
	tc := NewTokenCodec("test-secret")
	token, _, err := tc.Issue(7, "x@lab.test", model.Role("INTRUDER"))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := tc.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("unknown role: err = %v, want ErrInvalidToken", err)
	}
}

func TestIssueTokensAreUnique(t *testing.T) {
	tc := NewTokenCodec("test-secret")
	a, _, err := tc.Issue(1, "a@lab.test", model.RoleAdmin)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	b, _, err := tc.Issue(1, "a@lab.test", model.RoleAdmin)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if a == b {
		t.Error("two tokens for the same claims are identical")
	}
	if HashToken(a) == HashToken(b) {
		t.Error("token hashes collide")
	}
}

func TestHashTokenDeterministic(t *testing.T) {
	h1, h2 := HashToken("raw-token"), HashToken("raw-token")
	if h1 != h2 {
		t.Error("hash is not deterministic")
	}
	if len(h1) != 64 || strings.ToLower(h1) != h1 {
		t.Errorf("hash %q is not lowercase sha256 hex", h1)
	}
}
