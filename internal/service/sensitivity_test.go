package service

import (
	"testing"

	"finboard-assistant-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifySensitivityNoMatches(t *testing.T) {
	result := ClassifySensitivity("show me the club history")

	assert.False(t, result.RequiresSecureData)
	assert.Equal(t, model.SensitivityLow, result.Level)
	assert.Empty(t, result.MatchedKeywords)
}

func TestClassifySensitivitySingleMatch(t *testing.T) {
	result := ClassifySensitivity("what is the player's salary?")

	assert.True(t, result.RequiresSecureData)
	assert.Equal(t, model.SensitivityMedium, result.Level)
	assert.Equal(t, []string{"salary"}, result.MatchedKeywords)
}

func TestClassifySensitivityHighLevel(t *testing.T) {
	result := ClassifySensitivity("What is the release clause value?")

	require.True(t, result.RequiresSecureData)
	assert.Equal(t, model.SensitivityHigh, result.Level)
	assert.GreaterOrEqual(t, len(result.MatchedKeywords), 3)
}

func TestClassifySensitivityCaseInsensitive(t *testing.T) {
	lower := ClassifySensitivity("transfer fee for the striker")
	upper := ClassifySensitivity("TRANSFER FEE for the striker")

	assert.Equal(t, lower, upper)
}

func TestClassifySensitivityDeterministic(t *testing.T) {
	query := "What is the release clause value?"
	first := ClassifySensitivity(query)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, ClassifySensitivity(query))
	}
}
