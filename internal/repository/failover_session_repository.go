package repository

import (
	"context"
	"errors"
	"sync/atomic"

	"finboard-assistant-go/internal/model"
	"finboard-assistant-go/pkg/log"
)

// FailoverSessionRepository 在主存储与本地降级存储之间做单向切换。
// 任一主存储操作出现运行时错误（非 NotFound）后，降级标志在进程
// 剩余生命周期内保持置位，后续所有操作直接走本地存储，不再尝试重连。
type FailoverSessionRepository struct {
	primary  SessionRepository
	fallback SessionRepository
	degraded atomic.Bool
}

// NewFailoverSessionRepository 创建带降级保护的会话存储。
func NewFailoverSessionRepository(primary, fallback SessionRepository) *FailoverSessionRepository {
	return &FailoverSessionRepository{primary: primary, fallback: fallback}
}

// Degraded 返回当前是否处于降级状态。
func (r *FailoverSessionRepository) Degraded() bool {
	return r.degraded.Load()
}

// PrimaryHealthy 探测主存储可用性，用于健康检查上报。
// 只上报，不会因探测成功而解除降级。
func (r *FailoverSessionRepository) PrimaryHealthy(ctx context.Context) bool {
	return r.primary.Ping(ctx) == nil
}

// trip 置位降级标志并记录日志，只在第一次切换时打告警。
func (r *FailoverSessionRepository) trip(err error) {
	if r.degraded.CompareAndSwap(false, true) {
		log.Error("会话主存储不可用，已切换到本地降级存储（进程内不再回切）", err)
	}
}

// operational 判断错误是否为运行故障。NotFound 是正常的业务结果，不触发降级。
func operational(err error) bool {
	return err != nil && !errors.Is(err, ErrSessionNotFound)
}

// Create 实现 SessionRepository。
func (r *FailoverSessionRepository) Create(ctx context.Context, session *model.Session) error {
	if !r.degraded.Load() {
		err := r.primary.Create(ctx, session)
		if !operational(err) {
			return err
		}
		r.trip(err)
	}
	return r.fallback.Create(ctx, session)
}

// Get 实现 SessionRepository。
func (r *FailoverSessionRepository) Get(ctx context.Context, tenantID, sessionID string) (*model.Session, error) {
	if !r.degraded.Load() {
		session, err := r.primary.Get(ctx, tenantID, sessionID)
		if !operational(err) {
			return session, err
		}
		r.trip(err)
	}
	return r.fallback.Get(ctx, tenantID, sessionID)
}

// Save 实现 SessionRepository。
func (r *FailoverSessionRepository) Save(ctx context.Context, session *model.Session) error {
	if !r.degraded.Load() {
		err := r.primary.Save(ctx, session)
		if !operational(err) {
			return err
		}
		r.trip(err)
	}
	return r.fallback.Save(ctx, session)
}

// Delete 实现 SessionRepository。
func (r *FailoverSessionRepository) Delete(ctx context.Context, tenantID, sessionID string) error {
	if !r.degraded.Load() {
		err := r.primary.Delete(ctx, tenantID, sessionID)
		if !operational(err) {
			return err
		}
		r.trip(err)
	}
	return r.fallback.Delete(ctx, tenantID, sessionID)
}

// ListByUser 实现 SessionRepository。
func (r *FailoverSessionRepository) ListByUser(ctx context.Context, tenantID, userID string) ([]*model.Session, error) {
	if !r.degraded.Load() {
		sessions, err := r.primary.ListByUser(ctx, tenantID, userID)
		if !operational(err) {
			return sessions, err
		}
		r.trip(err)
	}
	return r.fallback.ListByUser(ctx, tenantID, userID)
}

// Ping 实现 SessionRepository。降级后本地存储始终可用。
func (r *FailoverSessionRepository) Ping(ctx context.Context) error {
	if r.degraded.Load() {
		return r.fallback.Ping(ctx)
	}
	return r.primary.Ping(ctx)
}
