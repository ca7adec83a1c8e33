package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// PanelUnlocks tracks which panel capability tokens are currently unlocked.
// Key format: panel:unlock:<token id>
//
// The flag lets an unlock survive client reloads while still being revocable
// server-side: locking the panel deletes the flag, after which the token is
// dead even though its signature is still valid.
type PanelUnlocks struct {
	client *redis.Client
}

func NewPanelUnlocks(client *redis.Client) *PanelUnlocks {
	return &PanelUnlocks{client: client}
}

// Mark records an unlocked token until ttl elapses.
func (p *PanelUnlocks) Mark(ctx context.Context, tokenID string, ttl time.Duration) error {
	return p.client.Set(ctx, p.key(tokenID), "1", ttl).Err()
}

// IsUnlocked reports whether the token is still marked unlocked.
func (p *PanelUnlocks) IsUnlocked(ctx context.Context, tokenID string) (bool, error) {
	n, err := p.client.Exists(ctx, p.key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("unlock check: %w", err)
	}
	return n > 0, nil
}

// Clear revokes the token's unlock.
func (p *PanelUnlocks) Clear(ctx context.Context, tokenID string) error {
	return p.client.Del(ctx, p.key(tokenID)).Err()
}

func (p *PanelUnlocks) key(tokenID string) string {
	return "panel:unlock:" + tokenID
}
