package utils

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/iliyamo/auth-service/internal/model"
)

const testSecret = "unit-test-secret"

func TestIssueVerifyRoundTrip(t *testing.T) {
	ttl := 90 * time.Second
	raw, err := IssueToken(testSecret, "user-42", model.RoleAdmin, TokenTypeAccess, ttl)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	claims, err := VerifyToken(testSecret, raw)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if claims.Subject != "user-42" {
		t.Errorf("subject = %q, want user-42", claims.Subject)
	}
	if claims.Role != model.RoleAdmin {
		t.Errorf("role = %q, want admin", claims.Role)
	}
	if claims.Type != TokenTypeAccess {
		t.Errorf("type = %q, want access", claims.Type)
	}
	// exp - iat must equal the ttl within clock rounding.
	got := claims.ExpiresAt.Sub(claims.IssuedAt)
	if got < ttl-time.Second || got > ttl+time.Second {
		t.Errorf("exp - iat = %s, want %s (±1s)", got, ttl)
	}
}

func TestVerifyExpired(t *testing.T) {
	raw, err := IssueToken(testSecret, "user-1", model.RoleUser, TokenTypeAccess, -2*time.Second)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := VerifyToken(testSecret, raw); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	raw, err := IssueToken(testSecret, "user-1", model.RoleUser, TokenTypeRefresh, time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := VerifyToken("another-secret", raw); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("err = %v, want ErrTokenMalformed", err)
	}
}

func TestVerifyTampered(t *testing.T) {
	raw, err := IssueToken(testSecret, "user-1", model.RoleUser, TokenTypeAccess, time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", raw)
	}
	tampered := parts[0] + "." + parts[1] + ".AAAA" + parts[2][4:]
	if _, err := VerifyToken(testSecret, tampered); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("err = %v, want ErrTokenMalformed", err)
	}
	if _, err := VerifyToken(testSecret, "not-a-token"); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("garbage err = %v, want ErrTokenMalformed", err)
	}
}

func TestVerifyUnknownRoleIsGuest(t *testing.T) {
	raw, err := IssueToken(testSecret, "user-1", model.Role("superuser"), TokenTypeAccess, time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	claims, err := VerifyToken(testSecret, raw)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if claims.Role != model.RoleGuest {
		t.Errorf("role = %q, want guest for unrecognized role claim", claims.Role)
	}
}

func TestHashToken(t *testing.T) {
	a := HashToken("token-a")
	if a != HashToken("token-a") {
		t.Error("HashToken not deterministic")
	}
	if a == HashToken("token-b") {
		t.Error("distinct tokens collided")
	}
	if len(a) != 64 {
		t.Errorf("digest length = %d, want 64 hex chars", len(a))
	}
}

func TestNewSecret(t *testing.T) {
	a, err := NewSecret()
	if err != nil {
		t.Fatalf("NewSecret: %v", err)
	}
	b, err := NewSecret()
	if err != nil {
		t.Fatalf("NewSecret: %v", err)
	}
	if len(a) != 64 || a == b {
		t.Errorf("secrets should be 64 hex chars and unique: %q %q", a, b)
	}
}
