package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/outreach-engine/internal/analyzer"
	"github.com/ignite/outreach-engine/internal/cache"
	"github.com/ignite/outreach-engine/internal/config"
	"github.com/ignite/outreach-engine/internal/domain"
	"github.com/ignite/outreach-engine/internal/repository/postgres"
	"github.com/ignite/outreach-engine/internal/scoring"
	"github.com/ignite/outreach-engine/internal/similarity"
	"github.com/ignite/outreach-engine/internal/voice"
)

type fakePosts struct {
	posts  []domain.HistoricalPost
	gotF   postgres.Filter
	called bool
}

func (f *fakePosts) List(ctx context.Context, filter postgres.Filter) ([]domain.HistoricalPost, error) {
	f.gotF = filter
	f.called = true
	return f.posts, nil
}

type fakeProfilesStore struct {
	profile domain.VoiceProfile
	found   bool
}

func (f *fakeProfilesStore) Get(ctx context.Context) (domain.VoiceProfile, bool, error) {
	return f.profile, f.found, nil
}

type fakeRunner struct {
	report  domain.BatchReport
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeRunner) RunFullAnalysis(ctx context.Context) (domain.BatchReport, error) {
	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	return f.report, f.err
}

func testServer(posts *fakePosts, profiles *fakeProfilesStore, runner *fakeRunner) *Server {
	scorer := scoring.New(config.ScoringConfig{
		QualifiedThreshold: 80,
		ReviewThreshold:    40,
		TargetSizeBuckets:  []string{"11-50", "51-200"},
		ICPTopics:          []string{"sales", "outreach"},
	})
	c := cache.New(nil, "api-test", nil)
	a := analyzer.New(similarity.NewKeywordProvider(), c, nil, time.Hour)
	learner := voice.NewLearner(config.VoiceConfig{CommentWeight: 0.3, RecencyHalfLifeDays: 180})
	return NewServer(scorer, a, learner, posts, profiles, c, runner, nil, time.Hour)
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := testServer(&fakePosts{}, &fakeProfilesStore{}, &fakeRunner{})
	rec := doJSON(t, s.Router(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestScoreLeadInlineResearch(t *testing.T) {
	s := testServer(&fakePosts{}, &fakeProfilesStore{}, &fakeRunner{})
	body := `{
		"query_text": "jane doe acme",
		"research": {
			"profile": {"name": "Jane Doe"},
			"current_role": {"title": "Founder", "company": "Acme", "tenure_months": 24},
			"company_info": {"name": "Acme", "size_bucket": "11-50"},
			"recent_activity": {"post_count": 12, "engagement_level": "high", "topics": ["sales"]}
		}
	}`

	rec := doJSON(t, s.Router(), http.MethodPost, "/api/v1/leads/score", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp scoreLeadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.RecommendQualified, resp.Result.Recommendation)
	assert.False(t, resp.FromCache)

	// Second call by query_text alone reuses the cached bundle.
	rec = doJSON(t, s.Router(), http.MethodPost, "/api/v1/leads/score", `{"query_text": "jane doe acme"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.FromCache)
	assert.Equal(t, domain.RecommendQualified, resp.Result.Recommendation)
}

func TestScoreLeadMissingName(t *testing.T) {
	s := testServer(&fakePosts{}, &fakeProfilesStore{}, &fakeRunner{})
	rec := doJSON(t, s.Router(), http.MethodPost, "/api/v1/leads/score",
		`{"research": {"profile": {"name": "  "}}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScoreLeadUnknownQuery(t *testing.T) {
	s := testServer(&fakePosts{}, &fakeProfilesStore{}, &fakeRunner{})
	rec := doJSON(t, s.Router(), http.MethodPost, "/api/v1/leads/score",
		`{"query_text": "never cached"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnalyzeContent(t *testing.T) {
	posts := &fakePosts{posts: []domain.HistoricalPost{
		{
			ID: "p1", Text: "remote leadership habits", PostedAt: time.Now(),
			Engagement:     domain.Engagement{TotalReactions: 50},
			DerivedMetrics: domain.DerivedMetrics{PerformanceTier: domain.TierHigh},
		},
		{
			ID: "p2", Text: "weekend cooking notes", PostedAt: time.Now(),
			Engagement:     domain.Engagement{TotalReactions: 5},
			DerivedMetrics: domain.DerivedMetrics{PerformanceTier: domain.TierLow},
		},
	}}
	s := testServer(posts, &fakeProfilesStore{}, &fakeRunner{})

	rec := doJSON(t, s.Router(), http.MethodPost, "/api/v1/content/analyze",
		`{"topic": "leadership", "limit": 2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result domain.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Matches, 2)
	assert.Equal(t, "p1", result.Matches[0].Post.ID)
}

func TestAnalyzeContentRequiresTopic(t *testing.T) {
	s := testServer(&fakePosts{}, &fakeProfilesStore{}, &fakeRunner{})
	rec := doJSON(t, s.Router(), http.MethodPost, "/api/v1/content/analyze", `{"topic": " "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVoiceScoreWithoutProfile(t *testing.T) {
	s := testServer(&fakePosts{}, &fakeProfilesStore{found: false}, &fakeRunner{})

	rec := doJSON(t, s.Router(), http.MethodPost, "/api/v1/voice/score", `{"text": "A draft post."}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var score domain.VoiceScore
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &score))
	assert.True(t, score.Untrained)
	assert.Equal(t, 50, score.Authenticity)
}

func TestBatchRunAndStatus(t *testing.T) {
	runner := &fakeRunner{report: domain.BatchReport{RunID: "run-1", Processed: 7, Committed: true}}
	s := testServer(&fakePosts{}, &fakeProfilesStore{}, runner)
	router := s.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/batch/run", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)

	require.Eventually(t, func() bool {
		rec := doJSON(t, router, http.MethodGet, "/api/v1/batch/status", "")
		var status batchStatusResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
			return false
		}
		return !status.Running && status.LastReport != nil
	}, time.Second, 10*time.Millisecond)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/batch/status", "")
	var status batchStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "run-1", status.LastReport.RunID)
	assert.True(t, status.LastReport.Committed)
}

func TestBatchRunConflictWhileRunning(t *testing.T) {
	runner := &fakeRunner{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := testServer(&fakePosts{}, &fakeProfilesStore{}, runner)
	router := s.Router()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/batch/run", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	<-runner.started

	rec = doJSON(t, router, http.MethodPost, "/api/v1/batch/run", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	close(runner.release)
}

func TestListPostsFilter(t *testing.T) {
	posts := &fakePosts{posts: []domain.HistoricalPost{{ID: "p1"}}}
	s := testServer(posts, &fakeProfilesStore{}, &fakeRunner{})

	rec := doJSON(t, s.Router(), http.MethodGet, "/api/v1/posts?tier=viral&min_reactions=100&limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, domain.TierViral, posts.gotF.Tier)
	assert.Equal(t, 100, posts.gotF.MinReactions)
	assert.Equal(t, 5, posts.gotF.Limit)
}

func TestListPostsRejectsBadLimit(t *testing.T) {
	s := testServer(&fakePosts{}, &fakeProfilesStore{}, &fakeRunner{})
	rec := doJSON(t, s.Router(), http.MethodGet, "/api/v1/posts?limit=nope", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCacheStats(t *testing.T) {
	s := testServer(&fakePosts{}, &fakeProfilesStore{}, &fakeRunner{})
	rec := doJSON(t, s.Router(), http.MethodGet, "/api/v1/cache/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats cache.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 0, stats.Entries)
}
