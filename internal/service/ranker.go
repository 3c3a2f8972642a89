package service

import (
	"math"
	"sort"

	"finboard-assistant-go/internal/model"
)

// defaultRankTieEpsilon 是置信度视为并列的阈值。
const defaultRankTieEpsilon = 0.1

// defaultResultCap 是排序后结果的硬上限。
const defaultResultCap = 5

// rankResults 合并多个知识源的结果并排序：置信度降序；
// 两条结果置信度差在 epsilon 以内时视为并列，按延迟升序取胜：
// 对话场景下近似同质的结果优先选择更快的来源。
// 最终截断到 min(limit, cap)。
func rankResults(results []model.KnowledgeResult, limit int, epsilon float64, cap int) []model.KnowledgeResult {
	if epsilon <= 0 {
		epsilon = defaultRankTieEpsilon
	}
	if cap <= 0 {
		cap = defaultResultCap
	}

	ranked := make([]model.KnowledgeResult, len(results))
	copy(ranked, results)

	sort.SliceStable(ranked, func(i, j int) bool {
		di := ranked[i]
		dj := ranked[j]
		if math.Abs(di.Confidence-dj.Confidence) < epsilon {
			return di.LatencyMs < dj.LatencyMs
		}
		return di.Confidence > dj.Confidence
	})

	if limit <= 0 || limit > cap {
		limit = cap
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
