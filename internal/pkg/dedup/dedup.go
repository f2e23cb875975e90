package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "fanya:reminder:sent:"

// Guard 基于 Redis SetNX 的一次性闸门。
//
// 提醒调度器用它保证同一个待办在窗口内只发一封提醒邮件，
// 多副本部署时由 Redis 做全局裁决。
type Guard struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewGuard 创建一次性闸门。ttl 决定同一个键多久之后可以再次放行。
func NewGuard(rdb *redis.Client, ttl time.Duration) *Guard {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Guard{
		rdb: rdb,
		ttl: ttl,
	}
}

// Once 对指定键尝试放行。第一次调用返回 true，
// ttl 内的后续调用返回 false。
func (g *Guard) Once(ctx context.Context, key string) (bool, error) {
	if g == nil || g.rdb == nil || key == "" {
		return true, nil
	}
	ok, err := g.rdb.SetNX(ctx, keyPrefix+hashKey(key), "1", g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("guard setnx: %w", err)
	}
	return ok, nil
}

// Reset 清除指定键，让下一次 Once 重新放行。
func (g *Guard) Reset(ctx context.Context, key string) error {
	if g == nil || g.rdb == nil || key == "" {
		return nil
	}
	if err := g.rdb.Del(ctx, keyPrefix+hashKey(key)).Err(); err != nil {
		return fmt.Errorf("guard del: %w", err)
	}
	return nil
}

func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
