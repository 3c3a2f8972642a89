// Package pipeline 定义了消息向量化入库的核心流程。
package pipeline

import (
	"context"
	"fmt"

	"finboard-assistant-go/internal/model"
	"finboard-assistant-go/internal/repository"
	"finboard-assistant-go/pkg/embedding"
	"finboard-assistant-go/pkg/log"
	"finboard-assistant-go/pkg/tasks"
)

// Processor 封装了消息向量化的所有依赖和逻辑。
// 它消费 Kafka 中的向量化任务：调用 embedding 客户端生成向量，
// 然后以租户+会话+消息的复合 ID 写入会话向量索引。
type Processor struct {
	embeddingClient embedding.Client
	vectorRepo      repository.VectorRepository
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(embeddingClient embedding.Client, vectorRepo repository.VectorRepository) *Processor {
	return &Processor{
		embeddingClient: embeddingClient,
		vectorRepo:      vectorRepo,
	}
}

// Process 处理一条向量化任务。返回错误时由消费端决定重试策略。
func (p *Processor) Process(ctx context.Context, task tasks.EmbeddingTask) error {
	if task.TenantID == "" || task.SessionID == "" || task.MessageID == "" {
		// 缺关键字段的任务无法定位，丢弃而不是重试
		log.Warnf("[Processor] 丢弃缺少标识字段的向量化任务: %+v", task)
		return nil
	}

	vector, err := p.embeddingClient.CreateEmbedding(ctx, task.Content)
	if err != nil {
		return fmt.Errorf("failed to embed message %s: %w", task.MessageID, err)
	}

	doc := model.ConversationVector{
		VectorID:  fmt.Sprintf("%s:%s:%s", task.TenantID, task.SessionID, task.MessageID),
		TenantID:  task.TenantID,
		SessionID: task.SessionID,
		MessageID: task.MessageID,
		Content:   task.Content,
		Intent:    task.Intent,
		Timestamp: task.Timestamp,
		Vector:    vector,
	}
	if err := p.vectorRepo.Index(ctx, doc); err != nil {
		return fmt.Errorf("failed to index vector for message %s: %w", task.MessageID, err)
	}

	log.Debugf("[Processor] 消息向量化入库完成: %s", doc.VectorID)
	return nil
}
