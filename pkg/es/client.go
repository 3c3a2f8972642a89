// Package es 提供了与 Elasticsearch 交互的客户端功能。
package es

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"finboard-assistant-go/internal/config"
	"finboard-assistant-go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
)

var ESClient *elasticsearch.Client

// InitES 初始化 Elasticsearch 客户端，并确保两个索引存在：
// 公开知识索引（全文检索）与会话向量索引（kNN 语义检索）。
func InitES(esCfg config.ElasticsearchConfig, vectorDims int) error {
	cfg := elasticsearch.Config{
		Addresses: []string{esCfg.Addresses},
		Username:  esCfg.Username,
		Password:  esCfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return err
	}
	ESClient = client

	if err := createIndexIfNotExists(esCfg.PublicIndexName, publicKnowledgeMapping); err != nil {
		return err
	}
	return createIndexIfNotExists(esCfg.VectorIndexName, conversationVectorMapping(vectorDims))
}

// publicKnowledgeMapping 是公开知识索引的映射，按租户分区。
const publicKnowledgeMapping = `{
	"mappings": {
		"properties": {
			"doc_id": { "type": "keyword" },
			"tenant_id": { "type": "keyword" },
			"title": { "type": "text" },
			"content": { "type": "text" },
			"topic": { "type": "keyword" },
			"category": { "type": "keyword" }
		}
	}
}`

// conversationVectorMapping 返回会话向量索引的映射。
// 向量维度由 embedding 配置决定，使用 cosine 相似度。
func conversationVectorMapping(dims int) string {
	if dims <= 0 {
		dims = 256
	}
	return fmt.Sprintf(`{
	"mappings": {
		"properties": {
			"vector_id": { "type": "keyword" },
			"tenant_id": { "type": "keyword" },
			"session_id": { "type": "keyword" },
			"message_id": { "type": "keyword" },
			"content": { "type": "text" },
			"intent": { "type": "keyword" },
			"timestamp": { "type": "date" },
			"vector": {
				"type": "dense_vector",
				"dims": %d,
				"index": true,
				"similarity": "cosine"
			}
		}
	}
}`, dims)
}

// createIndexIfNotExists 检查索引是否存在，如果不存在则创建它
func createIndexIfNotExists(indexName, mapping string) error {
	res, err := ESClient.Indices.Exists([]string{indexName})
	if err != nil {
		log.Errorf("检查索引是否存在时出错: %v", err)
		return err
	}
	// 如果 res.StatusCode 是 200，说明索引已存在
	if !res.IsError() && res.StatusCode == http.StatusOK {
		log.Infof("索引 '%s' 已存在", indexName)
		return nil
	}
	// 如果 res.StatusCode 是 404，说明索引不存在，需要创建
	if res.StatusCode != http.StatusNotFound {
		log.Errorf("检查索引 '%s' 是否存在时收到意外的状态码: %d", indexName, res.StatusCode)
		return fmt.Errorf("检查索引是否存在时收到意外的状态码: %d", res.StatusCode)
	}

	res, err = ESClient.Indices.Create(
		indexName,
		ESClient.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		log.Errorf("创建索引 '%s' 失败: %v", indexName, err)
		return err
	}
	if res.IsError() {
		log.Errorf("创建索引 '%s' 时 Elasticsearch 返回错误: %s", indexName, res.String())
		return errors.New("创建索引时 Elasticsearch 返回错误")
	}

	log.Infof("索引 '%s' 创建成功", indexName)
	return nil
}
