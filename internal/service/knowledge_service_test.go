package service

import (
	"context"
	"errors"
	"testing"

	"finboard-assistant-go/internal/config"
	"finboard-assistant-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublicRepo struct {
	results []model.KnowledgeResult
	err     error
	calls   int
}

func (f *fakePublicRepo) Search(_ context.Context, _, _ string, _ int) ([]model.KnowledgeResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func (f *fakePublicRepo) Ping(_ context.Context) error { return nil }

type fakeSecureRepo struct {
	records []model.SecureRecord
	err     error
	calls   int
	tiers   []model.ConfidentialityTier
}

func (f *fakeSecureRepo) Search(_ context.Context, _, _ string, tiers []model.ConfidentialityTier, _ int) ([]model.SecureRecord, error) {
	f.calls++
	f.tiers = tiers
	if f.err != nil {
		return nil, f.err
	}
	// honor the tier filter like the real repository does
	var out []model.SecureRecord
	for _, rec := range f.records {
		for _, tier := range tiers {
			if rec.Confidentiality == tier {
				out = append(out, rec)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeSecureRepo) Insert(_ context.Context, _ *model.SecureRecord) error { return nil }

func newTestKnowledgeService(pub *fakePublicRepo, sec *fakeSecureRepo) KnowledgeService {
	return NewKnowledgeService(pub, sec, config.AssistantConfig{
		ResultCap:      5,
		RankTieEpsilon: 0.1,
	})
}

func TestQueryPublicOnlyForNonSensitiveQuery(t *testing.T) {
	pub := &fakePublicRepo{results: []model.KnowledgeResult{
		{ID: "p1", Source: model.SourcePublic, Confidence: 0.8},
	}}
	sec := &fakeSecureRepo{records: []model.SecureRecord{
		{ID: 1, Confidentiality: model.TierSecret, Relevance: 0.99},
	}}
	svc := newTestKnowledgeService(pub, sec)

	resp := svc.Query(context.Background(), "club-1", "club history", "general", 5)

	assert.False(t, resp.SensitivityDetected)
	assert.Equal(t, 0, sec.calls)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, model.SourcePublic, resp.Results[0].Source)
}

func TestQueryFailClosedForUnauthorizedRole(t *testing.T) {
	pub := &fakePublicRepo{results: []model.KnowledgeResult{
		{ID: "p1", Source: model.SourcePublic, Confidence: 0.5},
	}}
	sec := &fakeSecureRepo{records: []model.SecureRecord{
		{ID: 1, Confidentiality: model.TierRestricted, Relevance: 0.9},
	}}
	svc := newTestKnowledgeService(pub, sec)

	resp := svc.Query(context.Background(), "club-1", "salary details", "general", 5)

	assert.True(t, resp.SensitivityDetected)
	// the secure source must not even be consulted
	assert.Equal(t, 0, sec.calls)
	for _, r := range resp.Results {
		assert.Equal(t, model.SourcePublic, r.Source)
	}
	// the refusal is observable, never silent
	require.NotEmpty(t, resp.Recommendations)
}

func TestQueryBlendsSecureResultsForAuthorizedRole(t *testing.T) {
	pub := &fakePublicRepo{results: []model.KnowledgeResult{
		{ID: "p1", Source: model.SourcePublic, Confidence: 0.4},
	}}
	sec := &fakeSecureRepo{records: []model.SecureRecord{
		{ID: 1, Title: "wage bill", Confidentiality: model.TierConfidential, Relevance: 0.9},
		{ID: 2, Title: "board minutes", Confidentiality: model.TierSecret, Relevance: 0.95},
	}}
	svc := newTestKnowledgeService(pub, sec)

	resp := svc.Query(context.Background(), "club-1", "salary details", "finance", 5)

	assert.True(t, resp.SensitivityDetected)
	assert.Equal(t, 1, sec.calls)
	assert.Equal(t, PermittedTiers("finance"), sec.tiers)

	var secure []model.KnowledgeResult
	for _, r := range resp.Results {
		if r.Source == model.SourceSecure {
			secure = append(secure, r)
		}
	}
	require.Len(t, secure, 1)
	assert.Equal(t, model.TierConfidential, secure[0].Confidentiality)
}

func TestQuerySurvivesPublicSourceFailure(t *testing.T) {
	pub := &fakePublicRepo{err: errors.New("es down")}
	sec := &fakeSecureRepo{records: []model.SecureRecord{
		{ID: 1, Confidentiality: model.TierRestricted, Relevance: 0.8},
	}}
	svc := newTestKnowledgeService(pub, sec)

	resp := svc.Query(context.Background(), "club-1", "contract terms", "management", 5)

	require.Len(t, resp.Results, 1)
	assert.Equal(t, model.SourceSecure, resp.Results[0].Source)
	assert.NotEmpty(t, resp.Recommendations)
}

func TestQueryTotalFailureYieldsWellFormedEnvelope(t *testing.T) {
	pub := &fakePublicRepo{err: errors.New("es down")}
	sec := &fakeSecureRepo{err: errors.New("mysql down")}
	svc := newTestKnowledgeService(pub, sec)

	resp := svc.Query(context.Background(), "club-1", "salary details", "board", 5)

	assert.NotNil(t, resp.Results)
	assert.Empty(t, resp.Results)
	assert.Equal(t, model.SourcePublic, resp.PrimarySource)
	assert.True(t, resp.SensitivityDetected)
	assert.GreaterOrEqual(t, len(resp.Recommendations), 2)
}

func TestQueryRecordsLatencyOnResults(t *testing.T) {
	pub := &fakePublicRepo{results: []model.KnowledgeResult{
		{ID: "p1", Source: model.SourcePublic, Confidence: 0.7},
	}}
	sec := &fakeSecureRepo{}
	svc := newTestKnowledgeService(pub, sec)

	resp := svc.Query(context.Background(), "club-1", "stadium capacity", "general", 5)

	require.Len(t, resp.Results, 1)
	assert.GreaterOrEqual(t, resp.Results[0].LatencyMs, int64(0))
	assert.GreaterOrEqual(t, resp.TotalLatencyMs, int64(0))
}
