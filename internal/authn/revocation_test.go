package authn_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/assetgrid/assetgrid/internal/authn"
	_ "github.com/assetgrid/assetgrid/testing"
)

func newRevocationList(t *testing.T) (*authn.RevocationList, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return authn.NewRevocationList(client), mr
}

func TestRevokeRoundTrip(t *testing.T) {
	list, _ := newRevocationList(t)
	ctx := context.Background()

	revoked, err := list.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if revoked {
		t.Fatalf("fresh token id must not be revoked")
	}

	if err := list.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	revoked, err = list.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if !revoked {
		t.Fatalf("expected token id to be revoked")
	}
}

func TestRevokeEntryExpiresWithToken(t *testing.T) {
	list, mr := newRevocationList(t)
	ctx := context.Background()

	if err := list.Revoke(ctx, "jti-2", time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	revoked, err := list.IsRevoked(ctx, "jti-2")
	if err != nil {
		t.Fatalf("is revoked: %v", err)
	}
	if revoked {
		t.Fatalf("entry must expire with the token's own lifetime")
	}
}

func TestRevokeAlreadyExpiredTokenIsNoop(t *testing.T) {
	list, mr := newRevocationList(t)
	ctx := context.Background()

	if err := list.Revoke(ctx, "jti-3", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if mr.Exists("revoked_token:jti-3") {
		t.Fatalf("expired token must not be stored")
	}
}

func TestRevokeRequiresTokenID(t *testing.T) {
	list, _ := newRevocationList(t)
	if err := list.Revoke(context.Background(), "", time.Now().Add(time.Hour)); err == nil {
		t.Fatalf("expected error for empty token id")
	}
}
