package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"finboard-assistant-go/internal/model"
)

// memorySessionRepository 是进程内的本地会话存储，
// 作为 Redis 不可用时的降级目标，语义与主存储一致。
// 本地无法强制执行 TTL，降级期间的会话保留到显式结束为止。
type memorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string][]byte // key: tenantID/sessionID，存 JSON 以隔离调用方持有的指针
}

// NewMemorySessionRepository 创建一个内存会话存储实例。
func NewMemorySessionRepository() SessionRepository {
	return &memorySessionRepository{
		sessions: make(map[string][]byte),
	}
}

func memKey(tenantID, sessionID string) string {
	return tenantID + "/" + sessionID
}

// Create 实现 SessionRepository。
func (r *memorySessionRepository) Create(ctx context.Context, session *model.Session) error {
	return r.Save(ctx, session)
}

// Get 实现 SessionRepository。
func (r *memorySessionRepository) Get(_ context.Context, tenantID, sessionID string) (*model.Session, error) {
	r.mu.RLock()
	data, exists := r.sessions[memKey(tenantID, sessionID)]
	r.mu.RUnlock()

	if !exists {
		return nil, ErrSessionNotFound
	}
	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// Save 实现 SessionRepository。
func (r *memorySessionRepository) Save(_ context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	r.mu.Lock()
	r.sessions[memKey(session.TenantID, session.SessionID)] = data
	r.mu.Unlock()
	return nil
}

// Delete 实现 SessionRepository。
func (r *memorySessionRepository) Delete(_ context.Context, tenantID, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := memKey(tenantID, sessionID)
	if _, exists := r.sessions[key]; !exists {
		return ErrSessionNotFound
	}
	delete(r.sessions, key)
	return nil
}

// ListByUser 实现 SessionRepository，全量扫描后按用户过滤。
// 降级存储中的会话量很小，线性扫描足够。
func (r *memorySessionRepository) ListByUser(_ context.Context, tenantID, userID string) ([]*model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sessions []*model.Session
	for _, data := range r.sessions {
		var session model.Session
		if err := json.Unmarshal(data, &session); err != nil {
			continue
		}
		if session.TenantID == tenantID && session.UserID == userID {
			s := session
			sessions = append(sessions, &s)
		}
	}
	return sessions, nil
}

// Ping 实现 SessionRepository，本地存储永远可用。
func (r *memorySessionRepository) Ping(_ context.Context) error {
	return nil
}
