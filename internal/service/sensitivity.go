// Package service 包含了应用的业务逻辑层。
package service

import (
	"strings"

	"finboard-assistant-go/internal/model"
)

// sensitiveTerms 是固定的敏感词表。俱乐部财务领域里涉及薪酬、
// 合同与转会条款的查询都可能触及机密数据。词表刻意包含重叠词
// （如 release 与 release clause），命中条数即敏感强度信号。
var sensitiveTerms = []string{
	"wage",
	"salary",
	"contract",
	"transfer fee",
	"bonus",
	"termination clause",
	"release clause",
	"release",
	"clause",
	"payroll",
	"buyout",
	"agent fee",
	"signing fee",
	"wage bill",
	"compensation",
}

// ClassifySensitivity 对查询文本做敏感度分级。
// 纯函数：大小写不敏感的子串匹配，无 I/O，结果完全确定。
// 0 命中 → low（无需机密源）；1–2 命中 → medium；3+ 命中 → high。
func ClassifySensitivity(query string) model.SensitivityResult {
	lower := strings.ToLower(query)

	var matched []string
	for _, term := range sensitiveTerms {
		if strings.Contains(lower, term) {
			matched = append(matched, term)
		}
	}

	result := model.SensitivityResult{MatchedKeywords: matched}
	switch {
	case len(matched) == 0:
		result.Level = model.SensitivityLow
		result.RequiresSecureData = false
	case len(matched) <= 2:
		result.Level = model.SensitivityMedium
		result.RequiresSecureData = true
	default:
		result.Level = model.SensitivityHigh
		result.RequiresSecureData = true
	}
	return result
}
