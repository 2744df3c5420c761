package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"liyu1981.xyz/field-presence-service/pkg/common"
	"liyu1981.xyz/field-presence-service/pkg/models"
	"liyu1981.xyz/field-presence-service/pkg/tracker"
)

const (
	presenceKeyPrefix = "presence:"
	onlineSetKey      = "online_users"
)

// PresenceMirror wraps the authoritative presence store and copies every
// write into Redis for other services to read. The database stays the source
// of truth: mirror failures are logged and never fail the write.
type PresenceMirror struct {
	inner  tracker.PresenceStore
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// NewPresenceMirror keeps mirrored entries for ttl, normally the presence timeout.
func NewPresenceMirror(inner tracker.PresenceStore, client *redis.Client, ttl time.Duration) *PresenceMirror {
	return &PresenceMirror{
		inner:  inner,
		redis:  client,
		ttl:    ttl,
		logger: common.GetLoggerWith(common.LoggerNamePresenceCache),
	}
}

func (pm *PresenceMirror) GetPresence(ctx context.Context, employeeID string) (*models.Presence, error) {
	return pm.inner.GetPresence(ctx, employeeID)
}

func (pm *PresenceMirror) ListStaleOnline(ctx context.Context, cutoff time.Time) ([]string, error) {
	return pm.inner.ListStaleOnline(ctx, cutoff)
}

func (pm *PresenceMirror) UpsertPresence(ctx context.Context, presence *models.Presence) error {
	if err := pm.inner.UpsertPresence(ctx, presence); err != nil {
		return err
	}

	if err := pm.mirror(ctx, presence); err != nil {
		pm.logger.Warn("Failed to mirror presence",
			zap.String("employee_id", presence.EmployeeID),
			zap.Error(err),
		)
	}
	return nil
}

func (pm *PresenceMirror) mirror(ctx context.Context, presence *models.Presence) error {
	data, err := json.Marshal(presence)
	if err != nil {
		return fmt.Errorf("failed to marshal presence data: %w", err)
	}

	pipe := pm.redis.Pipeline()
	pipe.Set(ctx, presenceKeyPrefix+presence.EmployeeID, data, pm.ttl*2)
	if presence.IsOnline {
		pipe.SAdd(ctx, onlineSetKey, presence.EmployeeID)
	} else {
		pipe.SRem(ctx, onlineSetKey, presence.EmployeeID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to update presence: %w", err)
	}
	return nil
}

// Mirrored reads back what other services see for an employee.
func (pm *PresenceMirror) Mirrored(ctx context.Context, employeeID string) (*models.Presence, error) {
	data, err := pm.redis.Get(ctx, presenceKeyPrefix+employeeID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get presence: %w", err)
	}

	var presence models.Presence
	if err := json.Unmarshal(data, &presence); err != nil {
		return nil, fmt.Errorf("failed to unmarshal presence data: %w", err)
	}
	return &presence, nil
}

func (pm *PresenceMirror) OnlineEmployees(ctx context.Context) ([]string, error) {
	return pm.redis.SMembers(ctx, onlineSetKey).Result()
}
