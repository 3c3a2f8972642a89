package model

// ConfidentialityTier 是知识记录的机密等级标签。
type ConfidentialityTier string

const (
	TierRestricted   ConfidentialityTier = "restricted"
	TierConfidential ConfidentialityTier = "confidential"
	TierSecret       ConfidentialityTier = "secret"
)

// SensitivityLevel 是查询敏感度的分级结果。
type SensitivityLevel string

const (
	SensitivityLow    SensitivityLevel = "low"
	SensitivityMedium SensitivityLevel = "medium"
	SensitivityHigh   SensitivityLevel = "high"
)

// SensitivityResult 是敏感度分类器的输出。
type SensitivityResult struct {
	RequiresSecureData bool             `json:"requiresSecureData"`
	Level              SensitivityLevel `json:"level"`
	MatchedKeywords    []string         `json:"matchedKeywords"`
}

// KnowledgeSource 标识结果来自哪个知识源。
type KnowledgeSource string

const (
	SourcePublic KnowledgeSource = "public"
	SourceSecure KnowledgeSource = "secure"
)

// KnowledgeResult 是联邦查询中来自任一知识源的单条结果。
type KnowledgeResult struct {
	ID              string              `json:"id"`
	Title           string              `json:"title"`
	Content         string              `json:"content"`
	Topic           string              `json:"topic,omitempty"`
	Source          KnowledgeSource     `json:"source"`
	Confidentiality ConfidentialityTier `json:"confidentiality,omitempty"`
	Confidence      float64             `json:"confidence"`
	LatencyMs       int64               `json:"latencyMs"`
}

// KnowledgeResponse 是 query_knowledge 返回的完整信封。
// 即使所有知识源全部失败，调用方也总能拿到结构完整的响应。
type KnowledgeResponse struct {
	Results             []KnowledgeResult `json:"results"`
	PrimarySource       KnowledgeSource   `json:"primarySource"`
	TotalLatencyMs      int64             `json:"totalLatencyMs"`
	SensitivityDetected bool              `json:"sensitivityDetected"`
	Recommendations     []string          `json:"recommendations"`
}

// SecureRecord 对应于 MySQL 中的 secure_knowledge 表，
// 存放带机密等级标签的内部知识记录。
type SecureRecord struct {
	ID              uint                `gorm:"primaryKey;autoIncrement" json:"id"`
	TenantID        string              `gorm:"type:varchar(64);not null;index" json:"tenantId"`
	Title           string              `gorm:"type:varchar(255);not null" json:"title"`
	Content         string              `gorm:"type:text;not null" json:"content"`
	Topic           string              `gorm:"type:varchar(64);index" json:"topic"`
	Confidentiality ConfidentialityTier `gorm:"type:varchar(32);not null;index" json:"confidentiality"`
	Relevance       float64             `gorm:"not null;default:0" json:"relevance"`
}

func (SecureRecord) TableName() string {
	return "secure_knowledge"
}

// PublicDocument 代表存储在 Elasticsearch 公开知识索引中的文档结构。
type PublicDocument struct {
	DocID    string `json:"doc_id"`
	TenantID string `json:"tenant_id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Topic    string `json:"topic"`
	Category string `json:"category"`
}
