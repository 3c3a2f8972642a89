package repository

import (
	"context"
	"fmt"

	"finboard-assistant-go/internal/model"

	"gorm.io/gorm"
)

// SecureKnowledgeRepository 定义了机密知识库的访问接口。
// 查询强制按租户与机密等级过滤，等级集合为空时直接返回空结果（fail-closed）。
type SecureKnowledgeRepository interface {
	Search(ctx context.Context, tenantID, query string, tiers []model.ConfidentialityTier, limit int) ([]model.SecureRecord, error)
	Insert(ctx context.Context, record *model.SecureRecord) error
}

type secureKnowledgeRepository struct {
	db *gorm.DB
}

// NewSecureKnowledgeRepository 创建一个基于 MySQL 的机密知识库实例。
func NewSecureKnowledgeRepository(db *gorm.DB) SecureKnowledgeRepository {
	return &secureKnowledgeRepository{db: db}
}

// Search 在允许的机密等级范围内做关键词检索，按相关度降序返回。
func (r *secureKnowledgeRepository) Search(ctx context.Context, tenantID, query string, tiers []model.ConfidentialityTier, limit int) ([]model.SecureRecord, error) {
	if len(tiers) == 0 {
		return []model.SecureRecord{}, nil
	}
	if limit <= 0 {
		limit = 5
	}

	pattern := "%" + query + "%"
	var records []model.SecureRecord
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Where("confidentiality IN ?", tiers).
		Where("title LIKE ? OR content LIKE ? OR topic LIKE ?", pattern, pattern, pattern).
		Order("relevance DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("secure knowledge search failed: %w", err)
	}
	return records, nil
}

// Insert 写入一条机密知识记录（内容装载工具使用）。
func (r *secureKnowledgeRepository) Insert(ctx context.Context, record *model.SecureRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to insert secure record: %w", err)
	}
	return nil
}
