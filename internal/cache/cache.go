// FilePath: internal/cache/cache.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pondworks/pondgate/internal/config"
	"github.com/pondworks/pondgate/internal/errors"
	"github.com/pondworks/pondgate/internal/models"
	"github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"
)

// LatestStatusKey is the single well-known key holding the most recent
// station state. Its absence after TTL expiry is itself the staleness
// signal for downstream readers.
const LatestStatusKey = "latest_status"

// Client wraps the Redis connection used for the latest-status cache.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// New creates a cache client. The connection is verified by Ping, not
// merely constructed.
func New(ctx context.Context, cfg config.RedisConfig, ttl time.Duration) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("error connecting to Redis: %w", err)
	}

	nuts.L.Infof("[Cache] Connected to Redis at %s:%d (db %d)", cfg.Host, cfg.Port, cfg.DB)
	return &Client{rdb: rdb, ttl: ttl}, nil
}

// Ping verifies the connection is still healthy.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// SetLatestStatus serializes the status and stores it under the
// well-known key with the configured expiry.
func (c *Client) SetLatestStatus(ctx context.Context, status *models.LatestStatus) error {
	payload, err := json.Marshal(status)
	if err != nil {
		return errors.NewCacheWriteError("failed to serialize latest status", err)
	}
	if err := c.rdb.Set(ctx, LatestStatusKey, payload, c.ttl).Err(); err != nil {
		return errors.NewCacheWriteError("failed to store latest status", err)
	}
	return nil
}

// GetLatestStatus fetches the cached status. The second return value is
// false when the key is absent (expired or never written).
func (c *Client) GetLatestStatus(ctx context.Context) (*models.LatestStatus, bool, error) {
	payload, err := c.rdb.Get(ctx, LatestStatusKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.NewInternalError("failed to read latest status", err)
	}
	var status models.LatestStatus
	if err := json.Unmarshal(payload, &status); err != nil {
		return nil, false, errors.NewInternalError("corrupt latest status entry", err)
	}
	return &status, true, nil
}

// Close releases the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}
