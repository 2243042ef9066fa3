package access

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "card-vault:perms:"

// PermissionStore loads role -> permission mappings from persistent storage.
type PermissionStore interface {
	PermissionsForRole(ctx context.Context, role string) ([]string, error)
}

// CachedSource serves permission sets from Redis with a TTL, falling back to
// the store on miss or cache failure. Mappings can therefore change in the
// database and take effect within the TTL, or immediately via Invalidate,
// without restarting the vault.
type CachedSource struct {
	store  PermissionStore
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedSource builds a source. A nil client disables caching and every
// lookup hits the store directly.
func NewCachedSource(store PermissionStore, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedSource {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedSource{store: store, client: client, ttl: ttl, logger: logger}
}

// Permissions implements PermissionSource.
func (s *CachedSource) Permissions(ctx context.Context, role string) ([]string, error) {
	if s.client != nil {
		cached, err := s.client.Get(ctx, cacheKeyPrefix+role).Result()
		if err == nil {
			var perms []string
			if jsonErr := json.Unmarshal([]byte(cached), &perms); jsonErr == nil {
				return perms, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn("permission cache read failed", zap.String("role", role), zap.Error(err))
		}
	}

	perms, err := s.store.PermissionsForRole(ctx, role)
	if err != nil {
		return nil, err
	}

	if s.client != nil {
		if payload, err := json.Marshal(perms); err == nil {
			if err := s.client.Set(ctx, cacheKeyPrefix+role, payload, s.ttl).Err(); err != nil {
				s.logger.Warn("permission cache write failed", zap.String("role", role), zap.Error(err))
			}
		}
	}
	return perms, nil
}

// Invalidate drops the cached permission set for a role so the next lookup
// reloads it from storage.
func (s *CachedSource) Invalidate(ctx context.Context, role string) {
	if s.client == nil {
		return
	}
	if err := s.client.Del(ctx, cacheKeyPrefix+role).Err(); err != nil {
		s.logger.Warn("permission cache invalidation failed", zap.String("role", role), zap.Error(err))
	}
}
