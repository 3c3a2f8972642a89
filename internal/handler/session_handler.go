// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"finboard-assistant-go/internal/model"
	"finboard-assistant-go/internal/repository"
	"finboard-assistant-go/internal/service"
	"finboard-assistant-go/pkg/token"

	"github.com/gin-gonic/gin"
)

// SessionHandler 处理与会话生命周期及会话记忆相关的 API 请求。
type SessionHandler struct {
	sessionService   service.SessionService
	analyticsService service.AnalyticsService
}

// NewSessionHandler 创建一个新的 SessionHandler。
func NewSessionHandler(sessionService service.SessionService, analyticsService service.AnalyticsService) *SessionHandler {
	return &SessionHandler{
		sessionService:   sessionService,
		analyticsService: analyticsService,
	}
}

// respondError 将业务错误映射为统一的响应信封。
func respondError(c *gin.Context, err error) {
	var vErr *service.ValidationError
	switch {
	case errors.Is(err, repository.ErrSessionNotFound), errors.Is(err, repository.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": err.Error(), "data": nil})
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": vErr.Error(), "data": nil})
	case errors.Is(err, service.ErrSessionEnded), errors.Is(err, service.ErrInvalidStateTransition):
		c.JSON(http.StatusConflict, gin.H{"code": http.StatusConflict, "message": err.Error(), "data": nil})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "internal error", "data": nil})
	}
}

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "success", "data": data})
}

func claimsFrom(c *gin.Context) *token.CustomClaims {
	return c.MustGet("claims").(*token.CustomClaims)
}

type createSessionRequest struct {
	UserID      string             `json:"userId"`
	Preferences *model.Preferences `json:"preferences"`
}

// CreateSession 处理创建会话的请求。
// userId 缺省时取自 token claims；tenantId 永远取自 claims。
func (h *SessionHandler) CreateSession(c *gin.Context) {
	claims := claimsFrom(c)

	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "invalid request body", "data": nil})
		return
	}
	userID := req.UserID
	if userID == "" {
		userID = claims.UserID
	}

	session, err := h.sessionService.Create(c.Request.Context(), claims.TenantID, userID, req.Preferences)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"sessionId": session.SessionID, "session": session})
}

// GetSession 处理读取会话的请求。
func (h *SessionHandler) GetSession(c *gin.Context) {
	claims := claimsFrom(c)
	session, err := h.sessionService.Get(c.Request.Context(), claims.TenantID, c.Param("sessionId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, session)
}

type addMessageRequest struct {
	Type     string                 `json:"type"`
	Content  string                 `json:"content"`
	Intent   string                 `json:"intent"`
	Metadata *model.MessageMetadata `json:"metadata"`
}

// AddMessage 处理向会话日志追加消息的请求。
func (h *SessionHandler) AddMessage(c *gin.Context) {
	claims := claimsFrom(c)

	var req addMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "invalid request body", "data": nil})
		return
	}

	msg, err := h.sessionService.AddMessage(c.Request.Context(), claims.TenantID, c.Param("sessionId"), service.AddMessageRequest{
		Type:     model.MessageType(req.Type),
		Content:  req.Content,
		Intent:   req.Intent,
		Metadata: req.Metadata,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, msg)
}

// GetMessages 处理读取完整消息序列的请求。
func (h *SessionHandler) GetMessages(c *gin.Context) {
	claims := claimsFrom(c)
	messages, err := h.sessionService.Messages(c.Request.Context(), claims.TenantID, c.Param("sessionId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, messages)
}

type updateContextRequest struct {
	ActiveScenario    *string `json:"activeScenario"`
	HighlightedEntity *string `json:"highlightedEntity"`
	ClearHighlight    bool    `json:"clearHighlight"`
	LastAction        *string `json:"lastAction"`
}

// UpdateContext 处理会话上下文的部分更新请求。
func (h *SessionHandler) UpdateContext(c *gin.Context) {
	claims := claimsFrom(c)

	var req updateContextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "invalid request body", "data": nil})
		return
	}

	patch := service.ContextPatch{
		HighlightedEntity: req.HighlightedEntity,
		ClearHighlight:    req.ClearHighlight,
		LastAction:        req.LastAction,
	}
	if req.ActiveScenario != nil {
		scenario := model.Scenario(*req.ActiveScenario)
		patch.ActiveScenario = &scenario
	}

	if err := h.sessionService.UpdateContext(c.Request.Context(), claims.TenantID, c.Param("sessionId"), patch); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

type highlightRequest struct {
	// Entity 为 null 时清除当前高亮
	Entity *string `json:"entity"`
}

// HighlightEntity 处理设置/清除高亮实体的请求。
func (h *SessionHandler) HighlightEntity(c *gin.Context) {
	claims := claimsFrom(c)

	var req highlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "invalid request body", "data": nil})
		return
	}

	if err := h.sessionService.HighlightEntity(c.Request.Context(), claims.TenantID, c.Param("sessionId"), req.Entity); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

type scenarioRequest struct {
	Scenario string `json:"scenario"`
}

// SetScenario 处理切换分析场景的请求。
func (h *SessionHandler) SetScenario(c *gin.Context) {
	claims := claimsFrom(c)

	var req scenarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "invalid request body", "data": nil})
		return
	}

	if err := h.sessionService.SetScenario(c.Request.Context(), claims.TenantID, c.Param("sessionId"), model.Scenario(req.Scenario)); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

type actionRequest struct {
	Action string `json:"action"`
}

// RecordAction 处理记录成功动作的请求。
func (h *SessionHandler) RecordAction(c *gin.Context) {
	claims := claimsFrom(c)

	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "invalid request body", "data": nil})
		return
	}

	if err := h.sessionService.RecordAction(c.Request.Context(), claims.TenantID, c.Param("sessionId"), req.Action); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

type stateRequest struct {
	State string `json:"state"`
	Topic string `json:"topic"`
}

// UpdateState 处理推进会话状态机的请求。
func (h *SessionHandler) UpdateState(c *gin.Context) {
	claims := claimsFrom(c)

	var req stateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "invalid request body", "data": nil})
		return
	}

	if err := h.sessionService.UpdateState(c.Request.Context(), claims.TenantID, c.Param("sessionId"), model.ConversationState(req.State), req.Topic); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

// EndSession 处理显式结束会话的请求。
func (h *SessionHandler) EndSession(c *gin.Context) {
	claims := claimsFrom(c)
	if err := h.sessionService.End(c.Request.Context(), claims.TenantID, c.Param("sessionId")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

// SearchSimilar 处理跨会话语义检索的请求。
// 依赖失败在服务层降级为空结果，这里永远返回 200。
func (h *SessionHandler) SearchSimilar(c *gin.Context) {
	claims := claimsFrom(c)

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "field \"q\": is required", "data": nil})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))

	snippets := h.sessionService.SearchSimilar(c.Request.Context(), claims.TenantID, query, limit)
	respondOK(c, snippets)
}

// GetAnalytics 处理读取用户生命周期统计的请求。
func (h *SessionHandler) GetAnalytics(c *gin.Context) {
	claims := claimsFrom(c)
	analytics, err := h.analyticsService.UserAnalytics(c.Request.Context(), claims.TenantID, c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, analytics)
}
