// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Log           LogConfig           `mapstructure:"log"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	Embedding     EmbeddingConfig     `mapstructure:"embedding"`
	Assistant     AssistantConfig     `mapstructure:"assistant"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig 存储 MySQL 数据库的配置（机密知识库）。
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 存储 Redis 的配置（会话主存储）。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig 存储 JWT 相关的配置。
type JWTConfig struct {
	Secret                 string `mapstructure:"secret"`
	AccessTokenExpireHours int    `mapstructure:"access_token_expire_hours"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// KafkaConfig 存储 Kafka 相关的配置（异步向量化管道）。
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
}

// ElasticsearchConfig 存储 Elasticsearch 相关的配置。
// PublicIndexName 是公开知识库索引，VectorIndexName 是会话语义向量索引。
type ElasticsearchConfig struct {
	Addresses       string `mapstructure:"addresses"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	PublicIndexName string `mapstructure:"public_index_name"`
	VectorIndexName string `mapstructure:"vector_index_name"`
}

// MinIOConfig 存储 MinIO 对象存储的配置（会话转录归档）。
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// EmbeddingConfig 存储 Embedding 模型相关的配置。
// Provider 为 "hash" 时使用确定性伪向量（默认），为 "openai" 时调用兼容 API。
type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider"`
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`
}

// AssistantConfig 存储会话核心的行为参数。
type AssistantConfig struct {
	SessionTTLHours int     `mapstructure:"session_ttl_hours"`
	MinEmbedLength  int     `mapstructure:"min_embed_length"`
	ResultCap       int     `mapstructure:"result_cap"`
	RankTieEpsilon  float64 `mapstructure:"rank_tie_epsilon"`
	QueryTimeoutMs  int     `mapstructure:"query_timeout_ms"`
	StoreTimeoutMs  int     `mapstructure:"store_timeout_ms"`
}

// SessionTTL 返回会话过期时间，未配置时默认 24 小时。
func (c AssistantConfig) SessionTTL() time.Duration {
	if c.SessionTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// QueryTimeout 返回单个知识源查询的超时时间，默认 3 秒。
func (c AssistantConfig) QueryTimeout() time.Duration {
	if c.QueryTimeoutMs <= 0 {
		return 3 * time.Second
	}
	return time.Duration(c.QueryTimeoutMs) * time.Millisecond
}

// StoreTimeout 返回单次存储操作的超时时间，默认 2 秒。
func (c AssistantConfig) StoreTimeout() time.Duration {
	if c.StoreTimeoutMs <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.StoreTimeoutMs) * time.Millisecond
}

// Init 初始化配置加载，从指定的路径读取 YAML 文件并解析到 Conf 变量中。
func Init(configPath string) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("读取配置文件失败: %w", err))
	}

	if err := viper.Unmarshal(&Conf); err != nil {
		panic(fmt.Errorf("无法将配置解析到结构体中: %w", err))
	}
}
