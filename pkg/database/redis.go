package database

import (
	"context"

	"finboard-assistant-go/pkg/log"

	"github.com/go-redis/redis/v8"
)

var RDB *redis.Client

// InitRedis 初始化 Redis 客户端连接（会话主存储）。
// 与其他依赖不同，Redis 连接失败不再是致命错误：
// 会话存储具备本地降级路径，启动时只记录告警。
func InitRedis(addr, password string, db int) {
	RDB = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// 测试连接；失败时由 failover 仓库在运行时降级
	ctx := context.Background()
	if err := RDB.Ping(ctx).Err(); err != nil {
		log.Error("Redis 连接测试失败，会话存储将按需降级到本地存储", err)
		return
	}

	log.Info("Redis client connected successfully")
}
