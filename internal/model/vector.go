package model

import "time"

// ConversationVector 代表存储在 Elasticsearch 会话向量索引中的文档结构。
// 每条达到最小长度的用户消息写入一次，写入后不再更新，
// 会话结束后依然保留以支持跨会话召回。
type ConversationVector struct {
	VectorID  string    `json:"vector_id"` // 唯一标识：tenantId:sessionId:messageId
	TenantID  string    `json:"tenant_id"`
	SessionID string    `json:"session_id"`
	MessageID string    `json:"message_id"`
	Content   string    `json:"content"`
	Intent    string    `json:"intent,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Vector    []float32 `json:"vector"` // 消息内容的向量表示
}

// SimilarSnippet 是语义检索返回给前端的会话片段。
type SimilarSnippet struct {
	SessionID string    `json:"sessionId"`
	MessageID string    `json:"messageId"`
	Content   string    `json:"content"`
	Intent    string    `json:"intent,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Score     float64   `json:"score"`
}
