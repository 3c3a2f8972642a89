package service

import "finboard-assistant-go/internal/model"

// rolePermissions 是角色到可见机密等级的固定映射表。
// 未列出的角色没有任何机密等级权限（fail-closed）。
var rolePermissions = map[string][]model.ConfidentialityTier{
	"board":      {model.TierRestricted, model.TierConfidential, model.TierSecret},
	"legal":      {model.TierRestricted, model.TierConfidential, model.TierSecret},
	"finance":    {model.TierRestricted, model.TierConfidential},
	"management": {model.TierRestricted},
}

// PermittedTiers 返回角色可访问的机密等级集合。
// 纯函数；返回副本，调用方修改不会影响权限表。
func PermittedTiers(role string) []model.ConfidentialityTier {
	tiers, ok := rolePermissions[role]
	if !ok {
		return nil
	}
	out := make([]model.ConfidentialityTier, len(tiers))
	copy(out, tiers)
	return out
}

// TierPermitted 检查角色是否可以看到指定机密等级的记录。
func TierPermitted(role string, tier model.ConfidentialityTier) bool {
	for _, t := range PermittedTiers(role) {
		if t == tier {
			return true
		}
	}
	return false
}
