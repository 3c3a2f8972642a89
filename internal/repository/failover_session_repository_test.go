package repository

import (
	"context"
	"errors"
	"testing"

	"finboard-assistant-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakySessionRepository wraps the in-memory store and fails on command.
type flakySessionRepository struct {
	SessionRepository
	err   error
	calls int
}

func (f *flakySessionRepository) fail(err error) { f.err = err }

func (f *flakySessionRepository) Create(ctx context.Context, session *model.Session) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return f.SessionRepository.Create(ctx, session)
}

func (f *flakySessionRepository) Get(ctx context.Context, tenantID, sessionID string) (*model.Session, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.SessionRepository.Get(ctx, tenantID, sessionID)
}

func (f *flakySessionRepository) Save(ctx context.Context, session *model.Session) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return f.SessionRepository.Save(ctx, session)
}

func (f *flakySessionRepository) Ping(ctx context.Context) error {
	if f.err != nil {
		return f.err
	}
	return f.SessionRepository.Ping(ctx)
}

func newFailoverFixture() (*FailoverSessionRepository, *flakySessionRepository, SessionRepository) {
	primary := &flakySessionRepository{SessionRepository: NewMemorySessionRepository()}
	fallback := NewMemorySessionRepository()
	return NewFailoverSessionRepository(primary, fallback), primary, fallback
}

func TestFailoverUsesPrimaryWhenHealthy(t *testing.T) {
	repo, primary, _ := newFailoverFixture()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, sampleSession("club-1", "user-1", "s1")))
	got, err := repo.Get(ctx, "club-1", "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.SessionID)

	assert.False(t, repo.Degraded())
	assert.True(t, repo.PrimaryHealthy(ctx))
	assert.Equal(t, 2, primary.calls)
}

func TestFailoverTripsOnOperationalError(t *testing.T) {
	repo, primary, _ := newFailoverFixture()
	ctx := context.Background()

	primary.fail(errors.New("connection refused"))

	// the failed write is replayed against the fallback
	require.NoError(t, repo.Create(ctx, sampleSession("club-1", "user-1", "s1")))
	assert.True(t, repo.Degraded())

	got, err := repo.Get(ctx, "club-1", "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.SessionID)
}

func TestFailoverDegradationIsSticky(t *testing.T) {
	repo, primary, _ := newFailoverFixture()
	ctx := context.Background()

	primary.fail(errors.New("connection refused"))
	_, err := repo.Get(ctx, "club-1", "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound) // fallback is empty
	require.True(t, repo.Degraded())

	// primary recovers, but the store never switches back
	primary.fail(nil)
	callsBefore := primary.calls
	require.NoError(t, repo.Create(ctx, sampleSession("club-1", "user-1", "s2")))
	got, err := repo.Get(ctx, "club-1", "s2")
	require.NoError(t, err)
	assert.Equal(t, "s2", got.SessionID)
	assert.Equal(t, callsBefore, primary.calls)
	assert.True(t, repo.Degraded())
	// the health probe still reports primary state for observability
	assert.True(t, repo.PrimaryHealthy(ctx))
}

func TestFailoverNotFoundDoesNotTrip(t *testing.T) {
	repo, _, _ := newFailoverFixture()
	ctx := context.Background()

	_, err := repo.Get(ctx, "club-1", "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.False(t, repo.Degraded())
}

func TestFailoverMidSessionContinuity(t *testing.T) {
	repo, primary, _ := newFailoverFixture()
	ctx := context.Background()

	s := sampleSession("club-1", "user-1", "s1")
	require.NoError(t, repo.Create(ctx, s))

	// primary dies mid-session: the next save lands on the fallback
	primary.fail(errors.New("i/o timeout"))
	s.Flow.CurrentTopic = "transfers"
	require.NoError(t, repo.Save(ctx, s))
	require.True(t, repo.Degraded())

	// data written before the outage is gone, data written after survives
	got, err := repo.Get(ctx, "club-1", "s1")
	require.NoError(t, err)
	assert.Equal(t, "transfers", got.Flow.CurrentTopic)
}

func TestFailoverPing(t *testing.T) {
	repo, primary, _ := newFailoverFixture()
	ctx := context.Background()

	assert.NoError(t, repo.Ping(ctx))

	primary.fail(errors.New("connection refused"))
	assert.Error(t, repo.Ping(ctx))

	// once degraded, health follows the always-available fallback
	_, _ = repo.Get(ctx, "club-1", "s1")
	require.True(t, repo.Degraded())
	assert.NoError(t, repo.Ping(ctx))
}
