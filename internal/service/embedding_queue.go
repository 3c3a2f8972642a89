package service

import (
	"context"

	"finboard-assistant-go/internal/config"
	"finboard-assistant-go/pkg/kafka"
	"finboard-assistant-go/pkg/tasks"
)

// EmbeddingQueue 抽象了向量化任务的异步投递通道。
type EmbeddingQueue interface {
	Enqueue(ctx context.Context, task tasks.EmbeddingTask) error
}

// kafkaEmbeddingQueue 把任务投递到 Kafka，由 pipeline 消费端向量化入库。
type kafkaEmbeddingQueue struct{}

// NewKafkaEmbeddingQueue 创建基于 Kafka 的投递通道。
// 生产者须已通过 kafka.InitProducer 初始化。
func NewKafkaEmbeddingQueue(_ config.KafkaConfig) EmbeddingQueue {
	return &kafkaEmbeddingQueue{}
}

// Enqueue 实现 EmbeddingQueue。
func (q *kafkaEmbeddingQueue) Enqueue(ctx context.Context, task tasks.EmbeddingTask) error {
	return kafka.ProduceEmbeddingTask(ctx, task)
}
