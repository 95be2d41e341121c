package authn

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationList tracks revoked token IDs in Redis. Entries carry a TTL
// equal to the remaining token lifetime, so the list never grows beyond
// the set of tokens that could still be replayed. This is not a permission
// cache: roles and grants are still resolved from storage on every request.
type RevocationList struct {
	client *redis.Client
	now    func() time.Time
}

// NewRevocationList constructs a RevocationList.
func NewRevocationList(client *redis.Client) *RevocationList {
	return &RevocationList{client: client, now: time.Now}
}

func (l *RevocationList) key(tokenID string) string {
	return "revoked_token:" + tokenID
}

// Revoke marks the token ID as revoked until its natural expiry.
func (l *RevocationList) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return errors.New("authn: token id required")
	}
	ttl := expiresAt.Sub(l.now())
	if ttl <= 0 {
		// Already expired; the verifier rejects it anyway.
		return nil
	}
	return l.client.Set(ctx, l.key(tokenID), "1", ttl).Err()
}

// IsRevoked reports whether the token ID has been revoked.
func (l *RevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	_, err := l.client.Get(ctx, l.key(tokenID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
