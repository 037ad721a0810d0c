package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/gviz-app/gviz-api/internal/domain"
)

func TestIssueAndParse_Success(t *testing.T) {
	t.Parallel()

	issuer := NewIssuer([]byte("super-secret"), time.Hour)

	tok, err := issuer.Issue(domain.UserID("user-123"))
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	claims, err := issuer.Parse(tok)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if claims.Subject != "user-123" {
		t.Fatalf("subject mismatch: got %q want %q", claims.Subject, "user-123")
	}
	if claims.ID == "" {
		t.Fatalf("expected non-empty jti")
	}
}

func TestIssue_FreshJTIPerCall(t *testing.T) {
	t.Parallel()

	issuer := NewIssuer([]byte("secret"), time.Hour)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		tok, err := issuer.Issue(domain.UserID("u1"))
		if err != nil {
			t.Fatalf("Issue error: %v", err)
		}
		claims, err := issuer.Parse(tok)
		if err != nil {
			t.Fatalf("Parse error: %v", err)
		}
		if seen[claims.ID] {
			t.Fatalf("duplicate jti %q", claims.ID)
		}
		seen[claims.ID] = true
	}
}

func TestIssue_ExpiryIsIssuedAtPlusTTL(t *testing.T) {
	t.Parallel()

	issuer := NewIssuer([]byte("secret"), time.Hour)

	tok, err := issuer.Issue(domain.UserID("u1"))
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	claims, err := issuer.Parse(tok)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	got := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	if got != time.Hour {
		t.Fatalf("expiry - issuedAt = %v, want %v", got, time.Hour)
	}
}

func TestParse_Expired(t *testing.T) {
	t.Parallel()

	issuer := NewIssuer([]byte("secret"), -time.Second)

	tok, err := issuer.Issue(domain.UserID("u1"))
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	_, err = issuer.Parse(tok)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestParse_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewIssuer([]byte("right-secret"), time.Hour).Issue(domain.UserID("u2"))
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	_, err = NewIssuer([]byte("wrong-secret"), time.Hour).Parse(tok)
	if !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed for wrong secret, got %v", err)
	}
}

func TestParse_MalformedString(t *testing.T) {
	t.Parallel()

	_, err := NewIssuer([]byte("k"), time.Hour).Parse("not.a.jwt")
	if !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected ErrTokenMalformed, got %v", err)
	}
}
