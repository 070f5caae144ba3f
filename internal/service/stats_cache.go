package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/pkg/logger"
)

// StatsCache 关注计数的 Redis 缓存，关注/取关时删除双方的 key。
// nil 接收者上的方法均为空操作
type StatsCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewStatsCache(client redis.Cmdable, ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &StatsCache{client: client, ttl: ttl}
}

func statsKey(userID uint) string { return fmt.Sprintf("relstats:%d", userID) }

func (c *StatsCache) Get(ctx context.Context, userID uint) (*RelationStats, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, statsKey(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("read relation stats failed", zap.Uint("user_id", userID), zap.Error(err))
		}
		return nil, false
	}
	var st RelationStats
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, false
	}
	return &st, true
}

func (c *StatsCache) Set(ctx context.Context, userID uint, st *RelationStats) error {
	if c == nil {
		return nil
	}
	payload, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, statsKey(userID), payload, c.ttl).Err()
}

func (c *StatsCache) Invalidate(ctx context.Context, userIDs ...uint) {
	if c == nil || len(userIDs) == 0 {
		return
	}
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = statsKey(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logger.Warn("invalidate relation stats failed", zap.Uints("user_ids", userIDs), zap.Error(err))
	}
}
