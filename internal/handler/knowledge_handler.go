package handler

import (
	"net/http"

	"finboard-assistant-go/internal/service"

	"github.com/gin-gonic/gin"
)

// KnowledgeHandler 处理联邦知识查询的 API 请求。
type KnowledgeHandler struct {
	knowledgeService service.KnowledgeService
}

// NewKnowledgeHandler 创建一个新的 KnowledgeHandler。
func NewKnowledgeHandler(knowledgeService service.KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{knowledgeService: knowledgeService}
}

type queryKnowledgeRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"maxResults"`
}

// QueryKnowledge 处理一次联邦知识查询。
// 调用者角色取自 token claims，不接受请求体里的角色声明。
// 服务层保证即便所有知识源失败也返回结构完整的信封，因此这里永远 200。
func (h *KnowledgeHandler) QueryKnowledge(c *gin.Context) {
	claims := claimsFrom(c)

	var req queryKnowledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "invalid request body", "data": nil})
		return
	}
	if req.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "field \"query\": is required", "data": nil})
		return
	}

	resp := h.knowledgeService.Query(c.Request.Context(), claims.TenantID, req.Query, claims.Role, req.MaxResults)
	respondOK(c, resp)
}
