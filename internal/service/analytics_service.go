package service

import (
	"context"

	"finboard-assistant-go/internal/config"
	"finboard-assistant-go/internal/model"
	"finboard-assistant-go/internal/repository"
)

// AnalyticsService 定义了用户级统计聚合的接口。
// 聚合总是按需从该用户的全部会话重新计算，不做增量持久化，
// 因此结果不会出现累计漂移。
type AnalyticsService interface {
	UserAnalytics(ctx context.Context, tenantID, userID string) (*model.UserAnalytics, error)
}

type analyticsService struct {
	repo repository.SessionRepository
	cfg  config.AssistantConfig
}

// NewAnalyticsService 创建一个新的 AnalyticsService 实例。
func NewAnalyticsService(repo repository.SessionRepository, cfg config.AssistantConfig) AnalyticsService {
	return &analyticsService{repo: repo, cfg: cfg}
}

// UserAnalytics 汇总用户名下所有会话的计数器并计算平均会话时长。
// 用户没有任何会话时返回 ErrUserNotFound。
func (s *analyticsService) UserAnalytics(ctx context.Context, tenantID, userID string) (*model.UserAnalytics, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout())
	defer cancel()

	sessions, err := s.repo.ListByUser(storeCtx, tenantID, userID)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, repository.ErrUserNotFound
	}

	agg := &model.UserAnalytics{
		UserID:            userID,
		TotalSessions:     len(sessions),
		CommonQueries:     make(map[string]int),
		SuccessfulActions: make(map[string]int),
		PreferredTopics:   make(map[string]int),
	}

	var totalDurationMs int64
	for _, session := range sessions {
		agg.TotalMessages += session.Analytics.TotalMessages
		for k, v := range session.Analytics.CommonQueries {
			agg.CommonQueries[k] += v
		}
		for k, v := range session.Analytics.SuccessfulActions {
			agg.SuccessfulActions[k] += v
		}
		for k, v := range session.Analytics.PreferredTopics {
			agg.PreferredTopics[k] += v
		}
		totalDurationMs += session.LastActiveAt.Sub(session.CreatedAt).Milliseconds()
	}
	agg.AvgSessionDurationMs = totalDurationMs / int64(len(sessions))
	return agg, nil
}
