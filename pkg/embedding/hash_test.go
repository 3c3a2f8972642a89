package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashProviderDeterministic(t *testing.T) {
	p := NewHashProvider(64)
	ctx := context.Background()

	first, err := p.CreateEmbedding(ctx, "what is the current wage bill")
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		again, err := p.CreateEmbedding(ctx, "what is the current wage bill")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestHashProviderDimensions(t *testing.T) {
	p := NewHashProvider(128)
	vec, err := p.CreateEmbedding(context.Background(), "transfer budget")
	require.NoError(t, err)
	assert.Len(t, vec, 128)

	// non-positive dims fall back to the default
	p = NewHashProvider(0)
	vec, err = p.CreateEmbedding(context.Background(), "transfer budget")
	require.NoError(t, err)
	assert.Len(t, vec, defaultDims)
}

func TestHashProviderUnitNorm(t *testing.T) {
	p := NewHashProvider(64)
	vec, err := p.CreateEmbedding(context.Background(), "squad depth analysis for next season")
	require.NoError(t, err)

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestHashProviderDistinguishesInputs(t *testing.T) {
	p := NewHashProvider(64)
	ctx := context.Background()

	a, err := p.CreateEmbedding(ctx, "wage negotiation for the captain")
	require.NoError(t, err)
	b, err := p.CreateEmbedding(ctx, "stadium expansion cashflow")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
