// Package model 包含了应用的数据模型定义。
package model

import (
	"encoding/json"
	"time"
)

// MessageType 表示一条消息的来源。
type MessageType string

const (
	MessageTypeUser      MessageType = "user"
	MessageTypeAssistant MessageType = "assistant"
	MessageTypeSystem    MessageType = "system"
)

// Valid 检查消息类型是否合法。
func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeUser, MessageTypeAssistant, MessageTypeSystem:
		return true
	}
	return false
}

// ConversationState 表示会话状态机的当前状态。
// 状态流转：greeting → active ↔ awaiting_input → ended（终态）。
type ConversationState string

const (
	StateGreeting      ConversationState = "greeting"
	StateActive        ConversationState = "active"
	StateAwaitingInput ConversationState = "awaiting_input"
	StateEnded         ConversationState = "ended"
)

// Valid 检查会话状态是否合法。
func (s ConversationState) Valid() bool {
	switch s {
	case StateGreeting, StateActive, StateAwaitingInput, StateEnded:
		return true
	}
	return false
}

// CanTransitionTo 检查状态机是否允许从当前状态流转到目标状态。
// ended 是终态，任何状态都可以直接结束。
func (s ConversationState) CanTransitionTo(next ConversationState) bool {
	if s == StateEnded {
		return false
	}
	if next == StateEnded {
		return true
	}
	switch s {
	case StateGreeting:
		return next == StateActive || next == StateAwaitingInput
	case StateActive:
		return next == StateAwaitingInput || next == StateActive
	case StateAwaitingInput:
		return next == StateActive || next == StateAwaitingInput
	}
	return false
}

// Scenario 表示仪表盘当前激活的分析场景。
type Scenario string

const (
	ScenarioNone            Scenario = "none"
	ScenarioTransferWindow  Scenario = "transfer_window"
	ScenarioWageNegotiation Scenario = "wage_negotiation"
	ScenarioBudgetReview    Scenario = "budget_review"
	ScenarioCashflow        Scenario = "cashflow"
)

// Valid 检查场景枚举值是否合法。
func (s Scenario) Valid() bool {
	switch s {
	case ScenarioNone, ScenarioTransferWindow, ScenarioWageNegotiation,
		ScenarioBudgetReview, ScenarioCashflow:
		return true
	}
	return false
}

// MessageMetadata 是消息的附加信息。已知字段显式建模，
// Extra 字段承载调用方自定义的不透明扩展数据。
type MessageMetadata struct {
	Source     string          `json:"source,omitempty"`
	Confidence float64         `json:"confidence,omitempty"`
	LatencyMs  int64           `json:"latencyMs,omitempty"`
	Entity     string          `json:"entity,omitempty"`
	Extra      json.RawMessage `json:"extra,omitempty"`
}

// Message 代表会话日志中的一条消息。消息一旦追加即不可变。
type Message struct {
	ID        string           `json:"id"`
	Timestamp time.Time        `json:"timestamp"`
	Type      MessageType      `json:"type"`
	Content   string           `json:"content"`
	Intent    string           `json:"intent,omitempty"`
	Metadata  *MessageMetadata `json:"metadata,omitempty"`
}

// ConversationFlow 保存一次会话的消息序列与对话流转状态。
type ConversationFlow struct {
	Messages         []Message         `json:"messages"`
	CurrentTopic     string            `json:"currentTopic,omitempty"`
	Intent           string            `json:"intent,omitempty"`
	AwaitingResponse bool              `json:"awaitingResponse"`
	State            ConversationState `json:"conversationState"`
}

// SessionContext 是每个会话的可变焦点状态，驱动前端高亮与意图延续。
// HighlightedEntity 最多只有一个，nil 表示清除高亮。
type SessionContext struct {
	ActiveScenario    Scenario `json:"activeScenario"`
	HighlightedEntity *string  `json:"highlightedEntity"`
	LastAction        string   `json:"lastAction,omitempty"`
}

// Preferences 是创建会话时设定的用户偏好，此后不会被系统自动修改。
type Preferences struct {
	ResponseStyle    string             `json:"responseStyle,omitempty"`
	AnalysisDepth    string             `json:"analysisDepth,omitempty"`
	VoiceEnabled     bool               `json:"voiceEnabled"`
	PreferredMetrics []string           `json:"preferredMetrics,omitempty"`
	AlertThresholds  map[string]float64 `json:"alertThresholds,omitempty"`
}

// SessionAnalytics 是单个会话内的统计计数，所有计数单调不减。
type SessionAnalytics struct {
	TotalMessages     int            `json:"totalMessages"`
	CommonQueries     map[string]int `json:"commonQueries"`
	SuccessfulActions map[string]int `json:"successfulActions"`
	PreferredTopics   map[string]int `json:"preferredTopics"`
}

// NewSessionAnalytics 返回一个初始化好计数 map 的统计对象。
func NewSessionAnalytics() SessionAnalytics {
	return SessionAnalytics{
		CommonQueries:     make(map[string]int),
		SuccessfulActions: make(map[string]int),
		PreferredTopics:   make(map[string]int),
	}
}

// Session 代表一次用户与助手之间持续跟踪的会话。
// SessionID 在租户内唯一；LastActiveAt 单调不减；Messages 仅追加。
type Session struct {
	SessionID    string           `json:"sessionId"`
	TenantID     string           `json:"tenantId"`
	UserID       string           `json:"userId"`
	CreatedAt    time.Time        `json:"createdAt"`
	LastActiveAt time.Time        `json:"lastActiveAt"`
	Flow         ConversationFlow `json:"conversationFlow"`
	Context      SessionContext   `json:"context"`
	Preferences  Preferences      `json:"preferences"`
	Analytics    SessionAnalytics `json:"analytics"`
}

// Ended 判断会话是否已进入终态。
func (s *Session) Ended() bool {
	return s.Flow.State == StateEnded
}

// UserAnalytics 是按需从用户的全部会话重新汇总出的生命周期统计。
type UserAnalytics struct {
	UserID               string         `json:"userId"`
	TotalSessions        int            `json:"totalSessions"`
	TotalMessages        int            `json:"totalMessages"`
	AvgSessionDurationMs int64          `json:"avgSessionDurationMs"`
	CommonQueries        map[string]int `json:"commonQueries"`
	SuccessfulActions    map[string]int `json:"successfulActions"`
	PreferredTopics      map[string]int `json:"preferredTopics"`
}
