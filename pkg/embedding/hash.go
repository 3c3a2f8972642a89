package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

const defaultDims = 256

// hashProvider derives a deterministic pseudo-vector from token hashes.
// Identical input always yields the identical vector, which makes it
// suitable for tests and offline deployments. Its numeric properties do
// not carry real semantic meaning; genuine recall quality requires the
// OpenAI-compatible provider.
type hashProvider struct {
	dims int
}

// NewHashProvider creates a deterministic embedding provider with the
// given vector dimensionality.
func NewHashProvider(dims int) Client {
	if dims <= 0 {
		dims = defaultDims
	}
	return &hashProvider{dims: dims}
}

// CreateEmbedding implements Client. It never fails and performs no I/O.
func (p *hashProvider) CreateEmbedding(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, p.dims)
	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) == 0 {
		tokens = []string{text}
	}

	for _, tok := range tokens {
		h := fnv.New64a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum64()
		// spread each token over a handful of buckets
		for i := 0; i < 4; i++ {
			idx := int((sum >> (i * 16)) % uint64(p.dims))
			vec[idx] += 1.0
		}
	}

	// L2 normalize so cosine similarity behaves
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1.0 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec, nil
}
