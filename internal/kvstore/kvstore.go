package kvstore

import (
	"context"
	"time"
)

// Store 注入式的键值存储抽象
// 限流计数和会话令牌都通过它读写，核心逻辑不依赖任何进程级全局map
// 单机部署用内存实现，多实例部署用Redis实现共享状态
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Incr 原子自增，键不存在时从0开始
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
