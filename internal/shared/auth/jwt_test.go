package auth

import (
	"context"
	"testing"
	"time"
)

func TestIssuerRoundTrip(t *testing.T) {
	issuer, err := NewIssuer("secret", "dev", time.Hour)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	token, err := issuer.Sign(Session{UserID: "user-1", Email: "a@example.com", Role: RoleAdmin})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	got, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.UserID != "user-1" || !got.IsAdmin() {
		t.Fatalf("unexpected session %+v", got)
	}
}

func TestIssuerRejectsExpiredAndForeignTokens(t *testing.T) {
	issuer, _ := NewIssuer("secret", "dev", time.Minute)
	issuer.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	token, err := issuer.Sign(Session{UserID: "user-1"})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	issuer.now = func() time.Time { return time.Date(2026, 1, 1, 0, 5, 0, 0, time.UTC) }
	if _, err := issuer.Verify(token); err != ErrInvalidToken {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}

	other, _ := NewIssuer("other", "dev", time.Hour)
	fresh, _ := other.Sign(Session{UserID: "user-1"})
	issuer.now = time.Now
	if _, err := issuer.Verify(fresh); err != ErrInvalidToken {
		t.Fatalf("expected foreign token to be rejected, got %v", err)
	}
}

func TestNewIssuerRequiresSecretInProduction(t *testing.T) {
	if _, err := NewIssuer("", "production", 0); err == nil {
		t.Fatalf("expected error without secret in production")
	}
}

func TestRoleResolverAllowlist(t *testing.T) {
	r := NewRoleResolver([]string{" Admin@Example.com "})
	if r.RoleFor("admin@example.com") != RoleAdmin {
		t.Fatalf("expected admin role")
	}
	if r.RoleFor("client@example.com") != RoleClient {
		t.Fatalf("expected client role")
	}
}

func TestSessionContext(t *testing.T) {
	ctx := WithSession(context.Background(), Session{UserID: "u"})
	s, ok := FromContext(ctx)
	if !ok || s.UserID != "u" {
		t.Fatalf("expected session from context")
	}
	if !s.CanAccess("u") || s.CanAccess("other") {
		t.Fatalf("unexpected access decision")
	}
}
