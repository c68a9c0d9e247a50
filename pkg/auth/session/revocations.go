package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	redisclient "github.com/angelmondragon/farmconnect-backend/pkg/redis"
)

type revocationStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
}

type revocationKeyer interface {
	RevokedSessionKey(tokenID string) string
}

// RevocationChecker exposes the read-only surface needed by middleware.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Revocations tracks access tokens that were invalidated before they expired.
type Revocations struct {
	store revocationStore
	keyer revocationKeyer
	now   func() time.Time
}

// NewRevocations constructs a Redis backed revocation list.
func NewRevocations(client *redisclient.Client) (*Revocations, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &Revocations{store: client, keyer: client, now: time.Now}, nil
}

// Revoke marks tokenID as unusable until expiresAt; the entry then ages out on its own.
func (r *Revocations) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	tokenID = strings.TrimSpace(tokenID)
	if tokenID == "" {
		return fmt.Errorf("token id is required")
	}
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	return r.store.Set(ctx, r.keyer.RevokedSessionKey(tokenID), "1", ttl)
}

// IsRevoked reports whether tokenID was revoked.
func (r *Revocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	tokenID = strings.TrimSpace(tokenID)
	if tokenID == "" {
		return false, fmt.Errorf("token id is required")
	}
	return r.store.Exists(ctx, r.keyer.RevokedSessionKey(tokenID))
}
