package service

import (
	"testing"

	"finboard-assistant-go/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestPermittedTiersTable(t *testing.T) {
	tests := []struct {
		role string
		want []model.ConfidentialityTier
	}{
		{"board", []model.ConfidentialityTier{model.TierRestricted, model.TierConfidential, model.TierSecret}},
		{"legal", []model.ConfidentialityTier{model.TierRestricted, model.TierConfidential, model.TierSecret}},
		{"finance", []model.ConfidentialityTier{model.TierRestricted, model.TierConfidential}},
		{"management", []model.ConfidentialityTier{model.TierRestricted}},
		{"general", nil},
		{"", nil},
		{"intern", nil},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			assert.Equal(t, tt.want, PermittedTiers(tt.role))
		})
	}
}

func TestPermittedTiersReturnsCopy(t *testing.T) {
	tiers := PermittedTiers("finance")
	tiers[0] = model.TierSecret

	// mutating the returned slice must not widen the permission table
	assert.Equal(t, model.TierRestricted, PermittedTiers("finance")[0])
}

func TestTierPermitted(t *testing.T) {
	assert.True(t, TierPermitted("board", model.TierSecret))
	assert.True(t, TierPermitted("finance", model.TierConfidential))
	assert.False(t, TierPermitted("finance", model.TierSecret))
	assert.False(t, TierPermitted("management", model.TierConfidential))
	assert.False(t, TierPermitted("general", model.TierRestricted))
}
