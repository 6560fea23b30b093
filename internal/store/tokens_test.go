package store

import (
	"context"
	"testing"
	"time"

	"github.com/promoraffle/promoraffle/internal/db"
)

func TestRevokeAndCheckToken(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	revoked, err := IsTokenRevoked(ctx, database, "jti-1")
	if err != nil {
		t.Fatalf("IsTokenRevoked: %v", err)
	}
	if revoked {
		t.Error("expected token not to be revoked")
	}

	if err := RevokeToken(ctx, database, "jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}
	// Revoking twice is harmless.
	if err := RevokeToken(ctx, database, "jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("second RevokeToken: %v", err)
	}

	revoked, _ = IsTokenRevoked(ctx, database, "jti-1")
	if !revoked {
		t.Error("expected token to be revoked")
	}
	revoked, _ = IsTokenRevoked(ctx, database, "jti-2")
	if revoked {
		t.Error("expected different token not to be revoked")
	}
}

func TestPurgeExpiredTokens(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	RevokeToken(ctx, database, "old", now.Add(-time.Hour))
	RevokeToken(ctx, database, "fresh", now.Add(time.Hour))

	n, err := PurgeExpiredTokens(ctx, database, now)
	if err != nil {
		t.Fatalf("PurgeExpiredTokens: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 purged, got %d", n)
	}
	if revoked, _ := IsTokenRevoked(ctx, database, "fresh"); !revoked {
		t.Error("unexpired revocation was purged")
	}
}
