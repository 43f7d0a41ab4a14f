package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tourdesk/travel-backend/internal/models"
)

const workloadKeyPrefix = "workload:guide:"

// WorkloadCache stores computed tour guide workloads in Redis
type WorkloadCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisClient parses a redis:// URL and verifies the server answers
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// NewWorkloadCache creates a cache whose entries expire after ttl
func NewWorkloadCache(client redis.Cmdable, ttl time.Duration) *WorkloadCache {
	return &WorkloadCache{client: client, ttl: ttl}
}

// Get returns the cached workload and whether it was present
func (c *WorkloadCache) Get(ctx context.Context, guideID int64) (*models.Workload, bool, error) {
	data, err := c.client.Get(ctx, workloadKey(guideID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read workload cache: %w", err)
	}

	var workload models.Workload
	if err := json.Unmarshal(data, &workload); err != nil {
		// Drop entries we can no longer decode.
		c.client.Del(ctx, workloadKey(guideID))
		return nil, false, nil
	}
	return &workload, true, nil
}

// Set stores a workload until the TTL passes
func (c *WorkloadCache) Set(ctx context.Context, workload *models.Workload) error {
	data, err := json.Marshal(workload)
	if err != nil {
		return fmt.Errorf("failed to encode workload: %w", err)
	}
	if err := c.client.Set(ctx, workloadKey(workload.TourGuideID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write workload cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached workloads of the given guides
func (c *WorkloadCache) Invalidate(ctx context.Context, guideIDs ...int64) error {
	if len(guideIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(guideIDs))
	for _, id := range guideIDs {
		keys = append(keys, workloadKey(id))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate workload cache: %w", err)
	}
	return nil
}

func workloadKey(guideID int64) string {
	return fmt.Sprintf("%s%d", workloadKeyPrefix, guideID)
}
