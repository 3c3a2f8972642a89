package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"finboard-assistant-go/internal/model"
	"finboard-assistant-go/pkg/embedding"
	"finboard-assistant-go/pkg/tasks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureVectorRepo struct {
	indexed []model.ConversationVector
	err     error
}

func (c *captureVectorRepo) Index(_ context.Context, doc model.ConversationVector) error {
	if c.err != nil {
		return c.err
	}
	c.indexed = append(c.indexed, doc)
	return nil
}

func (c *captureVectorRepo) Search(_ context.Context, _ string, _ []float32, _ int) ([]model.SimilarSnippet, error) {
	return nil, nil
}

func (c *captureVectorRepo) Ping(_ context.Context) error { return nil }

func sampleTask() tasks.EmbeddingTask {
	return tasks.EmbeddingTask{
		TenantID:  "club-1",
		SessionID: "s1",
		MessageID: "m1",
		Content:   "when does the winger's contract expire",
		Intent:    "contract_query",
		Timestamp: time.Now(),
	}
}

func TestProcessorIndexesEmbeddedMessage(t *testing.T) {
	repo := &captureVectorRepo{}
	p := NewProcessor(embedding.NewHashProvider(32), repo)

	require.NoError(t, p.Process(context.Background(), sampleTask()))
	require.Len(t, repo.indexed, 1)

	doc := repo.indexed[0]
	assert.Equal(t, "club-1:s1:m1", doc.VectorID)
	assert.Equal(t, "club-1", doc.TenantID)
	assert.Equal(t, "contract_query", doc.Intent)
	assert.Len(t, doc.Vector, 32)
}

func TestProcessorDropsTasksMissingIdentifiers(t *testing.T) {
	repo := &captureVectorRepo{}
	p := NewProcessor(embedding.NewHashProvider(32), repo)

	task := sampleTask()
	task.MessageID = ""
	// dropped, not retried: no error surfaces to the consumer
	require.NoError(t, p.Process(context.Background(), task))
	assert.Empty(t, repo.indexed)
}

func TestProcessorPropagatesIndexError(t *testing.T) {
	repo := &captureVectorRepo{err: errors.New("es unavailable")}
	p := NewProcessor(embedding.NewHashProvider(32), repo)

	err := p.Process(context.Background(), sampleTask())
	assert.Error(t, err)
}
