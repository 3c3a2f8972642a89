package service

import (
	"testing"

	"finboard-assistant-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankResultsConfidenceDescending(t *testing.T) {
	results := []model.KnowledgeResult{
		{ID: "low", Confidence: 0.3, LatencyMs: 10},
		{ID: "high", Confidence: 0.9, LatencyMs: 500},
		{ID: "mid", Confidence: 0.6, LatencyMs: 10},
	}

	ranked := rankResults(results, 5, 0.1, 5)

	require.Len(t, ranked, 3)
	assert.Equal(t, "high", ranked[0].ID)
	assert.Equal(t, "mid", ranked[1].ID)
	assert.Equal(t, "low", ranked[2].ID)
}

func TestRankResultsTieBreakByLatency(t *testing.T) {
	// confidences within epsilon: the cheaper source wins
	results := []model.KnowledgeResult{
		{ID: "slow", Confidence: 0.85, LatencyMs: 400},
		{ID: "fast", Confidence: 0.80, LatencyMs: 12},
	}

	ranked := rankResults(results, 5, 0.1, 5)

	require.Len(t, ranked, 2)
	assert.Equal(t, "fast", ranked[0].ID)
	assert.Equal(t, "slow", ranked[1].ID)
}

func TestRankResultsTruncatesToCap(t *testing.T) {
	var results []model.KnowledgeResult
	for i := 0; i < 10; i++ {
		results = append(results, model.KnowledgeResult{
			ID:         string(rune('a' + i)),
			Confidence: float64(10-i) / 10.0,
		})
	}

	assert.Len(t, rankResults(results, 8, 0.01, 5), 5)
	assert.Len(t, rankResults(results, 3, 0.01, 5), 3)
	assert.Len(t, rankResults(results, 0, 0.01, 5), 5)
}

func TestRankResultsDoesNotMutateInput(t *testing.T) {
	results := []model.KnowledgeResult{
		{ID: "b", Confidence: 0.2},
		{ID: "a", Confidence: 0.9},
	}

	_ = rankResults(results, 5, 0.1, 5)

	assert.Equal(t, "b", results[0].ID)
}

func TestRankResultsEmptyInput(t *testing.T) {
	assert.Empty(t, rankResults(nil, 5, 0.1, 5))
}
