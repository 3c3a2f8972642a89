package repository

import (
	"context"
	"testing"
	"time"

	"finboard-assistant-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSession(tenantID, userID, sessionID string) *model.Session {
	now := time.Now().UTC().Truncate(time.Millisecond)
	entity := "FC United"
	return &model.Session{
		SessionID:    sessionID,
		TenantID:     tenantID,
		UserID:       userID,
		CreatedAt:    now,
		LastActiveAt: now,
		Flow: model.ConversationFlow{
			Messages: []model.Message{
				{ID: "m1", Timestamp: now, Type: model.MessageTypeUser, Content: "show me the wage bill"},
			},
			CurrentTopic:     "wages",
			Intent:           "wage_query",
			AwaitingResponse: true,
			State:            model.StateActive,
		},
		Context: model.SessionContext{
			ActiveScenario:    model.ScenarioWageNegotiation,
			HighlightedEntity: &entity,
			LastAction:        "open_wage_chart",
		},
		Preferences: model.Preferences{ResponseStyle: "concise", VoiceEnabled: true},
		Analytics:   model.NewSessionAnalytics(),
	}
}

func TestMemoryRepositoryRoundTrip(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()

	original := sampleSession("club-1", "user-1", "s1")
	original.Analytics.TotalMessages = 1
	original.Analytics.CommonQueries["wage_query"] = 1
	require.NoError(t, repo.Create(ctx, original))

	got, err := repo.Get(ctx, "club-1", "s1")
	require.NoError(t, err)
	assert.Equal(t, original.SessionID, got.SessionID)
	assert.Equal(t, original.Flow, got.Flow)
	assert.Equal(t, original.Preferences, got.Preferences)
	assert.Equal(t, original.Analytics, got.Analytics)
	require.NotNil(t, got.Context.HighlightedEntity)
	assert.Equal(t, "FC United", *got.Context.HighlightedEntity)
	assert.True(t, got.CreatedAt.Equal(original.CreatedAt))
}

func TestMemoryRepositoryIsolatesCallerPointers(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()

	original := sampleSession("club-1", "user-1", "s1")
	require.NoError(t, repo.Create(ctx, original))

	// mutating the caller's copy must not affect the stored state
	original.Flow.CurrentTopic = "something else"
	original.Flow.Messages = append(original.Flow.Messages, model.Message{ID: "m2"})

	got, err := repo.Get(ctx, "club-1", "s1")
	require.NoError(t, err)
	assert.Equal(t, "wages", got.Flow.CurrentTopic)
	assert.Len(t, got.Flow.Messages, 1)
}

func TestMemoryRepositoryGetMissing(t *testing.T) {
	repo := NewMemorySessionRepository()

	_, err := repo.Get(context.Background(), "club-1", "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryRepositorySaveOverwrites(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()

	s := sampleSession("club-1", "user-1", "s1")
	require.NoError(t, repo.Create(ctx, s))

	s.Flow.State = model.StateEnded
	require.NoError(t, repo.Save(ctx, s))

	got, err := repo.Get(ctx, "club-1", "s1")
	require.NoError(t, err)
	assert.Equal(t, model.StateEnded, got.Flow.State)
}

func TestMemoryRepositoryDelete(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, sampleSession("club-1", "user-1", "s1")))
	require.NoError(t, repo.Delete(ctx, "club-1", "s1"))

	_, err := repo.Get(ctx, "club-1", "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "club-1", "s1"), ErrSessionNotFound)
}

func TestMemoryRepositoryListByUser(t *testing.T) {
	repo := NewMemorySessionRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, sampleSession("club-1", "user-1", "s1")))
	require.NoError(t, repo.Create(ctx, sampleSession("club-1", "user-1", "s2")))
	require.NoError(t, repo.Create(ctx, sampleSession("club-1", "user-2", "s3")))
	require.NoError(t, repo.Create(ctx, sampleSession("club-2", "user-1", "s4")))

	sessions, err := repo.ListByUser(ctx, "club-1", "user-1")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	ids := []string{sessions[0].SessionID, sessions[1].SessionID}
	assert.ElementsMatch(t, []string{"s1", "s2"}, ids)

	sessions, err = repo.ListByUser(ctx, "club-1", "user-3")
	require.NoError(t, err)
	assert.Empty(t, sessions)
}
