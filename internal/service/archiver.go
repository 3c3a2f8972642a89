package service

import (
	"context"

	"finboard-assistant-go/pkg/storage"
)

// TranscriptArchiver 抽象了会话结束时的转录归档能力。
type TranscriptArchiver interface {
	Archive(ctx context.Context, tenantID, sessionID string, transcript []byte) error
}

// minioArchiver 把转录写入 MinIO 对象存储。
type minioArchiver struct{}

// NewMinioArchiver 创建基于 MinIO 的转录归档器。
// 客户端须已通过 storage.InitMinIO 初始化。
func NewMinioArchiver() TranscriptArchiver {
	return &minioArchiver{}
}

// Archive 实现 TranscriptArchiver。
func (a *minioArchiver) Archive(ctx context.Context, tenantID, sessionID string, transcript []byte) error {
	return storage.ArchiveTranscript(ctx, tenantID, sessionID, transcript)
}
