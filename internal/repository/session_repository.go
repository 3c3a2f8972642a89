// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"finboard-assistant-go/internal/model"

	"github.com/go-redis/redis/v8"
)

// ErrSessionNotFound 表示引用的会话不存在或已过期。
var ErrSessionNotFound = errors.New("session not found")

// ErrUserNotFound 表示该用户名下没有任何会话。
var ErrUserNotFound = errors.New("user has no sessions")

// SessionRepository 定义了会话持久化的操作接口。
// 所有操作都以 tenantID 作为硬性分区边界，跨租户访问在键空间上即被隔离。
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	Get(ctx context.Context, tenantID, sessionID string) (*model.Session, error)
	// Save 全量写回一条会话记录并续期 TTL。调用方负责先读后改。
	Save(ctx context.Context, session *model.Session) error
	Delete(ctx context.Context, tenantID, sessionID string) error
	ListByUser(ctx context.Context, tenantID, userID string) ([]*model.Session, error)
	Ping(ctx context.Context) error
}

type redisSessionRepository struct {
	redisClient *redis.Client
	ttl         time.Duration
}

// NewSessionRepository 创建一个基于 Redis 的 SessionRepository 实例。
// 会话以 JSON 序列化存储，每次写入续期 TTL。
func NewSessionRepository(redisClient *redis.Client, ttl time.Duration) SessionRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisSessionRepository{redisClient: redisClient, ttl: ttl}
}

func sessionKey(tenantID, sessionID string) string {
	return fmt.Sprintf("tenant:%s:session:%s", tenantID, sessionID)
}

func userSessionsKey(tenantID, userID string) string {
	return fmt.Sprintf("tenant:%s:user:%s:sessions", tenantID, userID)
}

// Create 持久化一条新会话，并将其登记到用户的会话索引集合中。
func (r *redisSessionRepository) Create(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	key := sessionKey(session.TenantID, session.SessionID)
	if err := r.redisClient.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session: %w", err)
	}

	// 用户会话索引：分析聚合按需遍历该集合
	idxKey := userSessionsKey(session.TenantID, session.UserID)
	if err := r.redisClient.SAdd(ctx, idxKey, session.SessionID).Err(); err != nil {
		return fmt.Errorf("failed to index session for user: %w", err)
	}
	// 索引的存活期跟随会话，取一个宽松的上限
	_ = r.redisClient.Expire(ctx, idxKey, r.ttl*7).Err()
	return nil
}

// Get 按租户与会话 ID 读取会话，键过期或不存在时返回 ErrSessionNotFound。
func (r *redisSessionRepository) Get(ctx context.Context, tenantID, sessionID string) (*model.Session, error) {
	jsonData, err := r.redisClient.Get(ctx, sessionKey(tenantID, sessionID)).Result()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session model.Session
	if err := json.Unmarshal([]byte(jsonData), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// Save 全量写回会话并续期 TTL。
func (r *redisSessionRepository) Save(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	key := sessionKey(session.TenantID, session.SessionID)
	if err := r.redisClient.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete 删除会话记录并从用户索引中摘除。
func (r *redisSessionRepository) Delete(ctx context.Context, tenantID, sessionID string) error {
	session, err := r.Get(ctx, tenantID, sessionID)
	if err != nil {
		return err
	}
	if err := r.redisClient.Del(ctx, sessionKey(tenantID, sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	_ = r.redisClient.SRem(ctx, userSessionsKey(tenantID, session.UserID), sessionID).Err()
	return nil
}

// ListByUser 返回用户名下当前仍然存活的全部会话。
// 索引集合中可能残留已过期会话的 ID，读取时跳过。
func (r *redisSessionRepository) ListByUser(ctx context.Context, tenantID, userID string) ([]*model.Session, error) {
	ids, err := r.redisClient.SMembers(ctx, userSessionsKey(tenantID, userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list user sessions: %w", err)
	}

	sessions := make([]*model.Session, 0, len(ids))
	for _, id := range ids {
		session, getErr := r.Get(ctx, tenantID, id)
		if getErr == ErrSessionNotFound {
			// 会话已过期，顺手清理索引
			_ = r.redisClient.SRem(ctx, userSessionsKey(tenantID, userID), id).Err()
			continue
		}
		if getErr != nil {
			return nil, getErr
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// Ping 检查 Redis 连接是否可用。
func (r *redisSessionRepository) Ping(ctx context.Context) error {
	return r.redisClient.Ping(ctx).Err()
}
