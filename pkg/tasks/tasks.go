// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

import "time"

// EmbeddingTask represents one user message waiting to be embedded and
// written into the conversation vector index. Produced best-effort on
// message append; a lost task never fails the originating append.
type EmbeddingTask struct {
	TenantID  string    `json:"tenant_id"`
	SessionID string    `json:"session_id"`
	MessageID string    `json:"message_id"`
	Content   string    `json:"content"`
	Intent    string    `json:"intent,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
