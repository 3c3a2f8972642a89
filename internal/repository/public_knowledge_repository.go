package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"finboard-assistant-go/internal/model"
	"finboard-assistant-go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
)

// PublicKnowledgeRepository 定义了公开知识源（快速、低敏）的访问接口。
type PublicKnowledgeRepository interface {
	Search(ctx context.Context, tenantID, query string, limit int) ([]model.KnowledgeResult, error)
	Ping(ctx context.Context) error
}

type esPublicKnowledgeRepository struct {
	esClient  *elasticsearch.Client
	indexName string
}

// NewPublicKnowledgeRepository 创建一个基于 Elasticsearch 的公开知识源实例。
func NewPublicKnowledgeRepository(esClient *elasticsearch.Client, indexName string) PublicKnowledgeRepository {
	return &esPublicKnowledgeRepository{esClient: esClient, indexName: indexName}
}

// Search 对公开知识索引做全文检索，结果置信度由 ES 得分按 max_score 归一化。
func (r *esPublicKnowledgeRepository) Search(ctx context.Context, tenantID, query string, limit int) ([]model.KnowledgeResult, error) {
	if limit <= 0 {
		limit = 5
	}

	var buf bytes.Buffer
	esQuery := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"multi_match": map[string]interface{}{
						"query":  query,
						"fields": []string{"title^2", "content", "topic"},
					},
				},
				// 租户过滤是硬性安全边界，不是可选条件
				"filter": map[string]interface{}{
					"term": map[string]interface{}{"tenant_id": tenantID},
				},
			},
		},
		"size": limit,
	}
	if err := json.NewEncoder(&buf).Encode(esQuery); err != nil {
		return nil, fmt.Errorf("failed to encode es query: %w", err)
	}

	res, err := r.esClient.Search(
		r.esClient.Search.WithContext(ctx),
		r.esClient.Search.WithIndex(r.indexName),
		r.esClient.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		bodyBytes, _ := io.ReadAll(res.Body)
		log.Errorf("[PublicKnowledge] Elasticsearch 返回错误, status: %s, body: %s", res.Status(), string(bodyBytes))
		return nil, fmt.Errorf("elasticsearch returned an error: %s", res.Status())
	}

	var esResponse struct {
		Hits struct {
			MaxScore float64 `json:"max_score"`
			Hits     []struct {
				Source model.PublicDocument `json:"_source"`
				Score  float64              `json:"_score"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("failed to decode es response: %w", err)
	}

	results := make([]model.KnowledgeResult, 0, len(esResponse.Hits.Hits))
	for _, hit := range esResponse.Hits.Hits {
		confidence := 0.0
		if esResponse.Hits.MaxScore > 0 {
			confidence = hit.Score / esResponse.Hits.MaxScore
		}
		results = append(results, model.KnowledgeResult{
			ID:         hit.Source.DocID,
			Title:      hit.Source.Title,
			Content:    hit.Source.Content,
			Topic:      hit.Source.Topic,
			Source:     model.SourcePublic,
			Confidence: confidence,
		})
	}
	return results, nil
}

// Ping 检查 Elasticsearch 是否可达。
func (r *esPublicKnowledgeRepository) Ping(ctx context.Context) error {
	res, err := r.esClient.Ping(r.esClient.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch ping returned status: %s", res.Status())
	}
	return nil
}
