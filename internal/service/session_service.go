package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"finboard-assistant-go/internal/config"
	"finboard-assistant-go/internal/model"
	"finboard-assistant-go/internal/repository"
	"finboard-assistant-go/pkg/log"
	"finboard-assistant-go/pkg/tasks"

	"github.com/google/uuid"
)

// ErrSessionEnded 表示对已结束会话的写操作被拒绝。
var ErrSessionEnded = errors.New("session already ended")

// ErrInvalidStateTransition 表示状态机不允许请求的状态流转。
var ErrInvalidStateTransition = errors.New("invalid conversation state transition")

// ValidationError 表示请求缺少必填字段或字段值非法，
// 带字段级信息立即返回，绝不部分处理。
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Message)
}

// AddMessageRequest 是追加一条消息所需的输入，ID 与时间戳由服务端分配。
type AddMessageRequest struct {
	Type     model.MessageType
	Content  string
	Intent   string
	Metadata *model.MessageMetadata
}

// ContextPatch 是对会话焦点上下文的部分更新，nil 字段保持原值。
// ClearHighlight 为 true 时显式清除高亮实体。
type ContextPatch struct {
	ActiveScenario    *model.Scenario
	HighlightedEntity *string
	ClearHighlight    bool
	LastAction        *string
}

// SessionService 定义了会话生命周期与会话记忆的业务接口。
type SessionService interface {
	Create(ctx context.Context, tenantID, userID string, prefs *model.Preferences) (*model.Session, error)
	Get(ctx context.Context, tenantID, sessionID string) (*model.Session, error)
	AddMessage(ctx context.Context, tenantID, sessionID string, req AddMessageRequest) (*model.Message, error)
	Messages(ctx context.Context, tenantID, sessionID string) ([]model.Message, error)
	UpdateContext(ctx context.Context, tenantID, sessionID string, patch ContextPatch) error
	HighlightEntity(ctx context.Context, tenantID, sessionID string, name *string) error
	SetScenario(ctx context.Context, tenantID, sessionID string, scenario model.Scenario) error
	RecordAction(ctx context.Context, tenantID, sessionID, label string) error
	UpdateState(ctx context.Context, tenantID, sessionID string, state model.ConversationState, topic string) error
	SearchSimilar(ctx context.Context, tenantID, query string, limit int) []model.SimilarSnippet
	End(ctx context.Context, tenantID, sessionID string) error
}

type sessionService struct {
	repo       repository.SessionRepository
	vectorRepo repository.VectorRepository
	embedder   Embedder
	queue      EmbeddingQueue
	archiver   TranscriptArchiver
	cfg        config.AssistantConfig

	// 每个 sessionId 一把互斥锁，序列化本进程内的读-改-写窗口。
	// 存储层没有 compare-and-swap，跨进程多写方仍是 last-write-wins。
	locks sync.Map
}

// Embedder 抽象了向量化能力（pkg/embedding.Client 的最小子集）。
type Embedder interface {
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// NewSessionService 创建一个新的 SessionService 实例。
// queue 与 archiver 允许为 nil，此时对应的尽力而为环节被跳过。
func NewSessionService(repo repository.SessionRepository, vectorRepo repository.VectorRepository, embedder Embedder, queue EmbeddingQueue, archiver TranscriptArchiver, cfg config.AssistantConfig) SessionService {
	return &sessionService{
		repo:       repo,
		vectorRepo: vectorRepo,
		embedder:   embedder,
		queue:      queue,
		archiver:   archiver,
		cfg:        cfg,
	}
}

func (s *sessionService) lockFor(tenantID, sessionID string) *sync.Mutex {
	key := tenantID + "/" + sessionID
	mu, _ := s.locks.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Create 创建一条新会话：生成 ID、填充默认上下文与统计、
// 初始状态为 greeting，带 TTL 持久化。
func (s *sessionService) Create(ctx context.Context, tenantID, userID string, prefs *model.Preferences) (*model.Session, error) {
	if tenantID == "" {
		return nil, &ValidationError{Field: "tenantId", Message: "is required"}
	}
	if userID == "" {
		return nil, &ValidationError{Field: "userId", Message: "is required"}
	}

	now := time.Now()
	session := &model.Session{
		SessionID:    uuid.NewString(),
		TenantID:     tenantID,
		UserID:       userID,
		CreatedAt:    now,
		LastActiveAt: now,
		Flow: model.ConversationFlow{
			Messages: []model.Message{},
			State:    model.StateGreeting,
		},
		Context: model.SessionContext{
			ActiveScenario: model.ScenarioNone,
		},
		Analytics: model.NewSessionAnalytics(),
	}
	if prefs != nil {
		session.Preferences = *prefs
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout())
	defer cancel()
	if err := s.repo.Create(storeCtx, session); err != nil {
		return nil, err
	}
	log.Infow("会话已创建", "tenantId", tenantID, "userId", userID, "sessionId", session.SessionID)
	return session, nil
}

// Get 读取一条会话。
func (s *sessionService) Get(ctx context.Context, tenantID, sessionID string) (*model.Session, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout())
	defer cancel()
	return s.repo.Get(storeCtx, tenantID, sessionID)
}

// mutate 在会话粒度的互斥锁内执行读-改-写：
// 读取 → 应用变更 → 推进 lastActiveAt（单调不减）→ 全量写回并续期 TTL。
// 已结束的会话拒绝任何变更。
func (s *sessionService) mutate(ctx context.Context, tenantID, sessionID string, fn func(*model.Session) error) error {
	mu := s.lockFor(tenantID, sessionID)
	mu.Lock()
	defer mu.Unlock()

	storeCtx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout())
	defer cancel()

	session, err := s.repo.Get(storeCtx, tenantID, sessionID)
	if err != nil {
		return err
	}
	if session.Ended() {
		return ErrSessionEnded
	}

	if err := fn(session); err != nil {
		return err
	}

	if now := time.Now(); now.After(session.LastActiveAt) {
		session.LastActiveAt = now
	}
	return s.repo.Save(storeCtx, session)
}

// AddMessage 追加一条消息（仅追加，不可变），更新会话统计，
// 并对达到最小长度的用户消息尽力而为地投递向量化任务。
func (s *sessionService) AddMessage(ctx context.Context, tenantID, sessionID string, req AddMessageRequest) (*model.Message, error) {
	if !req.Type.Valid() {
		return nil, &ValidationError{Field: "type", Message: "must be one of user, assistant, system"}
	}
	if req.Content == "" {
		return nil, &ValidationError{Field: "content", Message: "is required"}
	}

	msg := model.Message{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Type:      req.Type,
		Content:   req.Content,
		Intent:    req.Intent,
		Metadata:  req.Metadata,
	}

	err := s.mutate(ctx, tenantID, sessionID, func(session *model.Session) error {
		session.Flow.Messages = append(session.Flow.Messages, msg)
		session.Analytics.TotalMessages++
		if req.Intent != "" {
			session.Analytics.CommonQueries[req.Intent]++
			session.Flow.Intent = req.Intent
		}

		switch req.Type {
		case model.MessageTypeUser:
			session.Flow.AwaitingResponse = true
			// 首条用户消息把状态机从 greeting 推进到 active
			if session.Flow.State == model.StateGreeting {
				session.Flow.State = model.StateActive
			}
		case model.MessageTypeAssistant:
			session.Flow.AwaitingResponse = false
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 尽力而为：向量化任务丢失绝不回滚已完成的追加
	if s.queue != nil && req.Type == model.MessageTypeUser && len(req.Content) >= s.cfg.MinEmbedLength {
		task := tasks.EmbeddingTask{
			TenantID:  tenantID,
			SessionID: sessionID,
			MessageID: msg.ID,
			Content:   msg.Content,
			Intent:    msg.Intent,
			Timestamp: msg.Timestamp,
		}
		if err := s.queue.Enqueue(ctx, task); err != nil {
			log.Errorf("投递向量化任务失败（忽略）: session=%s, message=%s, err=%v", sessionID, msg.ID, err)
		}
	}
	return &msg, nil
}

// Messages 返回会话的完整有序消息序列。
func (s *sessionService) Messages(ctx context.Context, tenantID, sessionID string) ([]model.Message, error) {
	session, err := s.Get(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	return session.Flow.Messages, nil
}

// UpdateContext 对会话焦点上下文做字段级部分更新。
func (s *sessionService) UpdateContext(ctx context.Context, tenantID, sessionID string, patch ContextPatch) error {
	if patch.ActiveScenario != nil && !patch.ActiveScenario.Valid() {
		return &ValidationError{Field: "activeScenario", Message: "unknown scenario"}
	}
	return s.mutate(ctx, tenantID, sessionID, func(session *model.Session) error {
		if patch.ActiveScenario != nil {
			session.Context.ActiveScenario = *patch.ActiveScenario
		}
		if patch.ClearHighlight {
			session.Context.HighlightedEntity = nil
		} else if patch.HighlightedEntity != nil {
			session.Context.HighlightedEntity = patch.HighlightedEntity
		}
		if patch.LastAction != nil {
			session.Context.LastAction = *patch.LastAction
		}
		return nil
	})
}

// HighlightEntity 设置或清除当前高亮实体（name 为 nil 时清除）。
func (s *sessionService) HighlightEntity(ctx context.Context, tenantID, sessionID string, name *string) error {
	return s.mutate(ctx, tenantID, sessionID, func(session *model.Session) error {
		session.Context.HighlightedEntity = name
		return nil
	})
}

// SetScenario 切换当前激活的分析场景。
func (s *sessionService) SetScenario(ctx context.Context, tenantID, sessionID string, scenario model.Scenario) error {
	if !scenario.Valid() {
		return &ValidationError{Field: "scenario", Message: "unknown scenario"}
	}
	return s.mutate(ctx, tenantID, sessionID, func(session *model.Session) error {
		session.Context.ActiveScenario = scenario
		return nil
	})
}

// RecordAction 记录一次成功执行的动作并累加计数。
func (s *sessionService) RecordAction(ctx context.Context, tenantID, sessionID, label string) error {
	if label == "" {
		return &ValidationError{Field: "action", Message: "is required"}
	}
	return s.mutate(ctx, tenantID, sessionID, func(session *model.Session) error {
		session.Context.LastAction = label
		session.Analytics.SuccessfulActions[label]++
		return nil
	})
}

// UpdateState 按状态机规则推进会话状态，可同时设置当前话题。
func (s *sessionService) UpdateState(ctx context.Context, tenantID, sessionID string, state model.ConversationState, topic string) error {
	if !state.Valid() {
		return &ValidationError{Field: "state", Message: "unknown conversation state"}
	}
	return s.mutate(ctx, tenantID, sessionID, func(session *model.Session) error {
		if !session.Flow.State.CanTransitionTo(state) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, session.Flow.State, state)
		}
		session.Flow.State = state
		if topic != "" {
			session.Flow.CurrentTopic = topic
			session.Analytics.PreferredTopics[topic]++
		}
		return nil
	})
}

// SearchSimilar 将查询向量化后在租户范围内做语义检索。
// 任何依赖失败都降级为空结果，调用方总能拿到合法切片。
func (s *sessionService) SearchSimilar(ctx context.Context, tenantID, query string, limit int) []model.SimilarSnippet {
	if query == "" {
		return []model.SimilarSnippet{}
	}

	embedCtx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout())
	defer cancel()
	vector, err := s.embedder.CreateEmbedding(embedCtx, query)
	if err != nil {
		log.Errorf("语义检索向量化失败（返回空结果）: %v", err)
		return []model.SimilarSnippet{}
	}

	searchCtx, cancelSearch := context.WithTimeout(ctx, s.cfg.QueryTimeout())
	defer cancelSearch()
	snippets, err := s.vectorRepo.Search(searchCtx, tenantID, vector, limit)
	if err != nil {
		log.Errorf("语义检索失败（返回空结果）: %v", err)
		return []model.SimilarSnippet{}
	}
	return snippets
}

// End 显式结束会话：写入终态作为最后一次写，然后尽力而为地
// 将完整转录归档到对象存储（合规留痕）。
func (s *sessionService) End(ctx context.Context, tenantID, sessionID string) error {
	var transcript []model.Message
	err := s.mutate(ctx, tenantID, sessionID, func(session *model.Session) error {
		session.Flow.State = model.StateEnded
		session.Flow.AwaitingResponse = false
		transcript = session.Flow.Messages
		return nil
	})
	if err != nil {
		return err
	}

	if s.archiver != nil {
		data, merr := json.Marshal(transcript)
		if merr == nil {
			if aerr := s.archiver.Archive(ctx, tenantID, sessionID, data); aerr != nil {
				log.Errorf("会话转录归档失败（忽略）: session=%s, err=%v", sessionID, aerr)
			}
		}
	}
	log.Infow("会话已结束", "tenantId", tenantID, "sessionId", sessionID)
	return nil
}
