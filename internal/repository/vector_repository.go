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

// VectorRepository 定义了会话语义向量索引的访问接口。
// 向量记录写入一次后不再更新，且不设 TTL，支持跨会话召回。
type VectorRepository interface {
	Index(ctx context.Context, doc model.ConversationVector) error
	Search(ctx context.Context, tenantID string, vector []float32, limit int) ([]model.SimilarSnippet, error)
	Ping(ctx context.Context) error
}

type esVectorRepository struct {
	esClient  *elasticsearch.Client
	indexName string
}

// NewVectorRepository 创建一个基于 Elasticsearch 的向量索引实例。
func NewVectorRepository(esClient *elasticsearch.Client, indexName string) VectorRepository {
	return &esVectorRepository{esClient: esClient, indexName: indexName}
}

// Index 以 vector_id 为文档 ID 写入一条向量记录，重复写入幂等覆盖同一 ID。
func (r *esVectorRepository) Index(ctx context.Context, doc model.ConversationVector) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation vector: %w", err)
	}

	res, err := r.esClient.Index(
		r.indexName,
		bytes.NewReader(data),
		r.esClient.Index.WithContext(ctx),
		r.esClient.Index.WithDocumentID(doc.VectorID),
	)
	if err != nil {
		return fmt.Errorf("failed to index conversation vector: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		bodyBytes, _ := io.ReadAll(res.Body)
		log.Errorf("[VectorRepo] 写入向量文档失败, status: %s, body: %s", res.Status(), string(bodyBytes))
		return fmt.Errorf("elasticsearch index returned an error: %s", res.Status())
	}
	return nil
}

// Search 在租户范围内做 kNN 相似检索，返回按相似度排序的会话片段。
func (r *esVectorRepository) Search(ctx context.Context, tenantID string, vector []float32, limit int) ([]model.SimilarSnippet, error) {
	if limit <= 0 {
		limit = 5
	}

	var buf bytes.Buffer
	esQuery := map[string]interface{}{
		"knn": map[string]interface{}{
			"field":          "vector",
			"query_vector":   vector,
			"k":              limit,
			"num_candidates": limit * 10,
			// 租户过滤是硬性安全边界，在 kNN 阶段即生效
			"filter": map[string]interface{}{
				"term": map[string]interface{}{"tenant_id": tenantID},
			},
		},
		"size": limit,
	}
	if err := json.NewEncoder(&buf).Encode(esQuery); err != nil {
		return nil, fmt.Errorf("failed to encode knn query: %w", err)
	}

	res, err := r.esClient.Search(
		r.esClient.Search.WithContext(ctx),
		r.esClient.Search.WithIndex(r.indexName),
		r.esClient.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch knn search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		bodyBytes, _ := io.ReadAll(res.Body)
		log.Errorf("[VectorRepo] kNN 检索失败, status: %s, body: %s", res.Status(), string(bodyBytes))
		return nil, fmt.Errorf("elasticsearch returned an error: %s", res.Status())
	}

	var esResponse struct {
		Hits struct {
			Hits []struct {
				Source model.ConversationVector `json:"_source"`
				Score  float64                  `json:"_score"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("failed to decode knn response: %w", err)
	}

	snippets := make([]model.SimilarSnippet, 0, len(esResponse.Hits.Hits))
	for _, hit := range esResponse.Hits.Hits {
		snippets = append(snippets, model.SimilarSnippet{
			SessionID: hit.Source.SessionID,
			MessageID: hit.Source.MessageID,
			Content:   hit.Source.Content,
			Intent:    hit.Source.Intent,
			Timestamp: hit.Source.Timestamp,
			Score:     hit.Score,
		})
	}
	return snippets, nil
}

// Ping 检查 Elasticsearch 是否可达。
func (r *esVectorRepository) Ping(ctx context.Context) error {
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
