package handler

import (
	"finboard-assistant-go/internal/repository"

	"github.com/gin-gonic/gin"
)

// HealthHandler 上报核心依赖的健康状态。
type HealthHandler struct {
	failover   *repository.FailoverSessionRepository
	vectorRepo repository.VectorRepository
}

// NewHealthHandler 创建一个新的 HealthHandler。
func NewHealthHandler(failover *repository.FailoverSessionRepository, vectorRepo repository.VectorRepository) *HealthHandler {
	return &HealthHandler{failover: failover, vectorRepo: vectorRepo}
}

// Check 返回各依赖的健康位。本地降级存储永远可用；
// degraded 置位说明主存储在本进程生命周期内已被放弃。
func (h *HealthHandler) Check(c *gin.Context) {
	ctx := c.Request.Context()
	respondOK(c, gin.H{
		"primaryStoreHealthy":  !h.failover.Degraded() && h.failover.PrimaryHealthy(ctx),
		"semanticIndexHealthy": h.vectorRepo.Ping(ctx) == nil,
		"fallbackStoreHealthy": true,
		"degraded":             h.failover.Degraded(),
	})
}
