package service

import (
	"context"
	"fmt"
	"time"

	"finboard-assistant-go/internal/config"
	"finboard-assistant-go/internal/model"
	"finboard-assistant-go/internal/repository"
	"finboard-assistant-go/pkg/log"
)

// KnowledgeService 定义了联邦知识查询的接口。
// Query 永远返回结构完整的响应：任一知识源失败只会让该源的
// 结果缺席，并在 recommendations 中留下可观测的说明。
type KnowledgeService interface {
	Query(ctx context.Context, tenantID, query, callerRole string, maxResults int) model.KnowledgeResponse
}

type knowledgeService struct {
	publicRepo repository.PublicKnowledgeRepository
	secureRepo repository.SecureKnowledgeRepository
	cfg        config.AssistantConfig
}

// NewKnowledgeService 创建一个新的 KnowledgeService 实例。
func NewKnowledgeService(publicRepo repository.PublicKnowledgeRepository, secureRepo repository.SecureKnowledgeRepository, cfg config.AssistantConfig) KnowledgeService {
	return &knowledgeService{
		publicRepo: publicRepo,
		secureRepo: secureRepo,
		cfg:        cfg,
	}
}

// Query 执行安全感知的联邦查询：
// 1. 总是先查公开源并记录延迟；
// 2. 对查询文本做敏感度分级；
// 3. 敏感且角色有权限时，附加查询机密源（按允许的等级过滤）；
// 4. 敏感但角色无权限时，完全跳过机密源（fail-closed），
//    并给出一条说明性的 recommendation，拒绝从不静默发生；
// 5. 两路结果合并进排序器后截断返回。
func (s *knowledgeService) Query(ctx context.Context, tenantID, query, callerRole string, maxResults int) model.KnowledgeResponse {
	start := time.Now()
	resp := model.KnowledgeResponse{
		Results:         []model.KnowledgeResult{},
		PrimarySource:   model.SourcePublic,
		Recommendations: []string{},
	}

	var merged []model.KnowledgeResult

	// 1. 公开源：有界超时，失败只产生空贡献
	publicStart := time.Now()
	publicCtx, cancelPublic := context.WithTimeout(ctx, s.cfg.QueryTimeout())
	publicResults, err := s.publicRepo.Search(publicCtx, tenantID, query, maxResults)
	cancelPublic()
	publicLatency := time.Since(publicStart).Milliseconds()
	if err != nil {
		log.Errorf("[KnowledgeRouter] 公开知识源查询失败: %v", err)
		resp.Recommendations = append(resp.Recommendations, "Public knowledge source was unavailable; results may be incomplete.")
	} else {
		for i := range publicResults {
			publicResults[i].LatencyMs = publicLatency
		}
		merged = append(merged, publicResults...)
	}

	// 2. 敏感度分级
	sensitivity := ClassifySensitivity(query)
	resp.SensitivityDetected = sensitivity.RequiresSecureData

	// 3/4. 机密源：仅在敏感且角色被授权时触达
	if sensitivity.RequiresSecureData {
		tiers := PermittedTiers(callerRole)
		if len(tiers) == 0 {
			// fail-closed：不触达机密源，也不暴露机密数据是否存在
			log.Infow("机密源访问被拒绝",
				"role", callerRole,
				"sensitivityLevel", sensitivity.Level,
				"matchedTerms", len(sensitivity.MatchedKeywords),
			)
			resp.Recommendations = append(resp.Recommendations,
				fmt.Sprintf("Query touches sensitive financial terms but role %q has no clearance for confidential data; only public sources were consulted.", callerRole))
		} else {
			secureStart := time.Now()
			secureCtx, cancelSecure := context.WithTimeout(ctx, s.cfg.QueryTimeout())
			records, err := s.secureRepo.Search(secureCtx, tenantID, query, tiers, maxResults)
			cancelSecure()
			secureLatency := time.Since(secureStart).Milliseconds()
			if err != nil {
				log.Errorf("[KnowledgeRouter] 机密知识源查询失败: %v", err)
				resp.Recommendations = append(resp.Recommendations, "Secure knowledge source was unavailable; results may be incomplete.")
			} else {
				for _, rec := range records {
					merged = append(merged, model.KnowledgeResult{
						ID:              fmt.Sprintf("secure-%d", rec.ID),
						Title:           rec.Title,
						Content:         rec.Content,
						Topic:           rec.Topic,
						Source:          model.SourceSecure,
						Confidentiality: rec.Confidentiality,
						Confidence:      rec.Relevance,
						LatencyMs:       secureLatency,
					})
				}
			}
		}
	}

	// 5. 合并排序
	resp.Results = rankResults(merged, maxResults, s.cfg.RankTieEpsilon, s.cfg.ResultCap)
	resp.TotalLatencyMs = time.Since(start).Milliseconds()
	return resp
}
