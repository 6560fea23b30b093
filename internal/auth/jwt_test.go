package auth

import (
	"testing"
	"time"

	"github.com/promoraffle/promoraffle/internal/model"
)

func TestIssueAndParse(t *testing.T) {
	tokens := NewTokens("test-secret-key")

	token, claims, err := tokens.Issue(&model.User{ID: 7, Username: "admin", Role: model.RoleAdmin})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if claims.ID == "" {
		t.Error("expected a token id")
	}

	got, err := tokens.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.UserID != 7 || got.Username != "admin" || got.Role != model.RoleAdmin {
		t.Errorf("unexpected claims: %+v", got)
	}
	if got.ID != claims.ID {
		t.Errorf("expected jti %q, got %q", claims.ID, got.ID)
	}
}

func TestParseWrongSecret(t *testing.T) {
	token, _, _ := NewTokens("secret1").Issue(&model.User{ID: 1, Username: "a", Role: model.RoleViewer})

	if _, err := NewTokens("secret2").Parse(token); err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestParseInvalid(t *testing.T) {
	if _, err := NewTokens("secret").Parse("not-a-token"); err == nil {
		t.Error("expected error for invalid token")
	}
}

func TestParseExpired(t *testing.T) {
	issued := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tokens := NewTokens("secret")
	tokens.Now = func() time.Time { return issued }

	token, _, err := tokens.Issue(&model.User{ID: 1, Username: "a", Role: model.RoleViewer})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tokens.Now = func() time.Time { return issued.Add(DefaultTTL + time.Minute) }
	if _, err := tokens.Parse(token); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword(hash, "correct horse") {
		t.Error("expected password to match")
	}
	if CheckPassword(hash, "wrong horse") {
		t.Error("expected wrong password to fail")
	}
}
