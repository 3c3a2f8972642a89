package service

import (
	"context"
	"testing"

	"finboard-assistant-go/internal/model"
	"finboard-assistant-go/internal/repository"
	"finboard-assistant-go/pkg/embedding"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserAnalyticsAggregatesAcrossSessions(t *testing.T) {
	repo := repository.NewMemorySessionRepository()
	sessions := NewSessionService(repo, &fakeVectorRepo{}, embedding.NewHashProvider(32), nil, nil, testConfig())
	analytics := NewAnalyticsService(repo, testConfig())
	ctx := context.Background()

	first, err := sessions.Create(ctx, "club-1", "user-1", nil)
	require.NoError(t, err)
	second, err := sessions.Create(ctx, "club-1", "user-1", nil)
	require.NoError(t, err)

	for _, id := range []string{first.SessionID, second.SessionID} {
		_, err := sessions.AddMessage(ctx, "club-1", id, AddMessageRequest{
			Type: model.MessageTypeUser, Content: "what is the transfer budget?", Intent: "budget_query",
		})
		require.NoError(t, err)
	}
	require.NoError(t, sessions.RecordAction(ctx, "club-1", first.SessionID, "open_budget_chart"))
	require.NoError(t, sessions.UpdateState(ctx, "club-1", first.SessionID, model.StateActive, "budget"))

	agg, err := analytics.UserAnalytics(ctx, "club-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", agg.UserID)
	assert.Equal(t, 2, agg.TotalSessions)
	assert.Equal(t, 2, agg.TotalMessages)
	assert.Equal(t, 2, agg.CommonQueries["budget_query"])
	assert.Equal(t, 1, agg.SuccessfulActions["open_budget_chart"])
	assert.Equal(t, 1, agg.PreferredTopics["budget"])
	assert.GreaterOrEqual(t, agg.AvgSessionDurationMs, int64(0))
}

func TestUserAnalyticsRecomputedOnDemand(t *testing.T) {
	repo := repository.NewMemorySessionRepository()
	sessions := NewSessionService(repo, &fakeVectorRepo{}, embedding.NewHashProvider(32), nil, nil, testConfig())
	analytics := NewAnalyticsService(repo, testConfig())
	ctx := context.Background()

	created, err := sessions.Create(ctx, "club-1", "user-1", nil)
	require.NoError(t, err)

	agg, err := analytics.UserAnalytics(ctx, "club-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, agg.TotalMessages)

	_, err = sessions.AddMessage(ctx, "club-1", created.SessionID, AddMessageRequest{
		Type: model.MessageTypeUser, Content: "show me the cashflow forecast",
	})
	require.NoError(t, err)

	// no incremental state: the aggregate reflects the stored sessions as-is
	agg, err = analytics.UserAnalytics(ctx, "club-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, agg.TotalMessages)
}

func TestUserAnalyticsUnknownUser(t *testing.T) {
	analytics := NewAnalyticsService(repository.NewMemorySessionRepository(), testConfig())

	_, err := analytics.UserAnalytics(context.Background(), "club-1", "ghost")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestUserAnalyticsScopedToTenant(t *testing.T) {
	repo := repository.NewMemorySessionRepository()
	sessions := NewSessionService(repo, &fakeVectorRepo{}, embedding.NewHashProvider(32), nil, nil, testConfig())
	analytics := NewAnalyticsService(repo, testConfig())
	ctx := context.Background()

	_, err := sessions.Create(ctx, "club-1", "user-1", nil)
	require.NoError(t, err)

	_, err = analytics.UserAnalytics(ctx, "club-2", "user-1")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}
