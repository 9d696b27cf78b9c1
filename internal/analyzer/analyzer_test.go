package analyzer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/outreach-engine/internal/cache"
	"github.com/ignite/outreach-engine/internal/domain"
)

// stubProvider returns canned per-text similarity scores, or a fixed error.
type stubProvider struct {
	scores map[string]float64
	def    float64
	err    error
	calls  int
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Similarities(ctx context.Context, query string, candidates []string) ([]float64, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([]float64, len(candidates))
	for i, c := range candidates {
		if v, ok := s.scores[c]; ok {
			out[i] = v
		} else {
			out[i] = s.def
		}
	}
	return out, nil
}

func mkPost(id, text string, tier domain.PerformanceTier, reactions int, postedAt time.Time) domain.HistoricalPost {
	return domain.HistoricalPost{
		ID:       id,
		Text:     text,
		PostedAt: postedAt,
		Engagement: domain.Engagement{
			Likes:          reactions,
			TotalReactions: reactions,
		},
		DerivedMetrics: domain.DerivedMetrics{
			PerformanceTier: tier,
			WordCount:       len(text) / 5,
		},
	}
}

func newTestAnalyzer(p *stubProvider) *Analyzer {
	return New(p, cache.New(nil, "topic", nil), nil, time.Hour)
}

func TestRankingMonotonicity(t *testing.T) {
	// Identical similarity, different tiers: the higher tier must rank first.
	day := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	corpus := []domain.HistoricalPost{
		mkPost("low", "growth tactics for startups", domain.TierLow, 5, day),
		mkPost("viral", "growth tactics for founders", domain.TierViral, 500, day),
	}
	p := &stubProvider{def: 0.8}

	result, err := newTestAnalyzer(p).Analyze(context.Background(), "growth", corpus, 2)
	require.NoError(t, err)
	require.Len(t, result.Matches, 2)

	assert.Equal(t, "viral", result.Matches[0].Post.ID)
	assert.InDelta(t, 0.8*2.0, result.Matches[0].CombinedRank, 1e-9)
	assert.InDelta(t, 0.8*0.5, result.Matches[1].CombinedRank, 1e-9)
}

func TestTieBreakByRecency(t *testing.T) {
	older := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	corpus := []domain.HistoricalPost{
		mkPost("old", "same text a", domain.TierMid, 10, older),
		mkPost("new", "same text b", domain.TierMid, 10, newer),
	}
	p := &stubProvider{def: 0.7}

	result, err := newTestAnalyzer(p).Analyze(context.Background(), "same", corpus, 2)
	require.NoError(t, err)

	assert.Equal(t, "new", result.Matches[0].Post.ID, "equal rank breaks toward the newer post")
}

// Corpus of 10 posts, 3 viral on the topic: the viral posts must rank above
// same-similarity low-tier posts.
func TestViralPrecedentsOutrankLowTier(t *testing.T) {
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	var corpus []domain.HistoricalPost
	for i := 0; i < 7; i++ {
		corpus = append(corpus, mkPost(
			"low-"+string(rune('a'+i)), "leadership thoughts", domain.TierLow, 3,
			day.Add(time.Duration(i)*time.Hour)))
	}
	corpus = append(corpus,
		mkPost("viral-1", "leadership lessons one", domain.TierViral, 900, day),
		mkPost("viral-2", "leadership lessons two", domain.TierViral, 800, day),
		mkPost("viral-3", "leadership lessons three", domain.TierViral, 700, day),
	)
	p := &stubProvider{def: 0.75}

	result, err := newTestAnalyzer(p).Analyze(context.Background(), "leadership", corpus, 5)
	require.NoError(t, err)
	require.Len(t, result.Matches, 5)

	gotViral := map[string]bool{}
	for _, m := range result.Matches[:3] {
		gotViral[m.Post.ID] = true
	}
	assert.True(t, gotViral["viral-1"] && gotViral["viral-2"] && gotViral["viral-3"],
		"all three viral posts must occupy the top ranks, got %v", result.Matches)
	assert.Equal(t, domain.ConfidenceMedium, result.Prediction.Confidence)
}

func TestEmptyCorpusNoSignal(t *testing.T) {
	p := &stubProvider{}

	result, err := newTestAnalyzer(p).Analyze(context.Background(), "anything", nil, 5)
	require.NoError(t, err, "empty corpus must not fail")

	assert.Empty(t, result.Matches)
	assert.Equal(t, domain.PatternSummary{}, result.Patterns)
	assert.Equal(t, domain.ConfidenceLow, result.Prediction.Confidence)
	assert.NotEmpty(t, result.Warnings)
	assert.Equal(t, 0, p.calls, "no provider call for an empty corpus")
}

func TestSimilarityCaching(t *testing.T) {
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	corpus := []domain.HistoricalPost{
		mkPost("p1", "alpha", domain.TierMid, 10, day),
		mkPost("p2", "beta", domain.TierMid, 20, day),
	}
	p := &stubProvider{def: 0.5}
	a := newTestAnalyzer(p)
	ctx := context.Background()

	first, err := a.Analyze(ctx, "Topic X", corpus, 2)
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, 1, p.calls)

	second, err := a.Analyze(ctx, "topic x", corpus, 2)
	require.NoError(t, err)
	assert.True(t, second.FromCache, "normalized topic must hit the cache")
	assert.Equal(t, 1, p.calls, "cached result avoids a second provider call")
	assert.Equal(t, first.Matches, second.Matches)
	assert.Equal(t, first.Patterns, second.Patterns)
}

func TestCachedScoresMustCoverSnapshot(t *testing.T) {
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	corpus := []domain.HistoricalPost{mkPost("p1", "alpha", domain.TierMid, 10, day)}
	p := &stubProvider{def: 0.5}
	a := newTestAnalyzer(p)
	ctx := context.Background()

	_, err := a.Analyze(ctx, "t", corpus, 1)
	require.NoError(t, err)
	require.Equal(t, 1, p.calls)

	// Corpus grew: the cached payload no longer covers the snapshot, so the
	// analyzer must recompute in full rather than merge stale and fresh.
	grown := append(corpus, mkPost("p2", "beta", domain.TierMid, 5, day))
	result, err := a.Analyze(ctx, "t", grown, 2)
	require.NoError(t, err)
	assert.False(t, result.FromCache)
	assert.Equal(t, 2, p.calls)
}

func TestProviderFailureFallsBack(t *testing.T) {
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	corpus := []domain.HistoricalPost{
		mkPost("p1", "remote team culture and leadership", domain.TierMid, 10, day),
		mkPost("p2", "pasta recipes for weeknights", domain.TierMid, 10, day),
	}
	p := &stubProvider{err: errors.New("provider down")}

	result, err := newTestAnalyzer(p).Analyze(context.Background(), "leadership culture", corpus, 2)
	require.NoError(t, err, "provider failure must degrade, not propagate")

	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "fallback")
	require.Len(t, result.Matches, 2)
	assert.Equal(t, "p1", result.Matches[0].Post.ID, "keyword overlap still ranks the topical post first")
}

func TestCancelledContextLeavesNoCacheEntry(t *testing.T) {
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	corpus := []domain.HistoricalPost{mkPost("p1", "alpha", domain.TierMid, 10, day)}
	p := &stubProvider{err: errors.New("slow provider")}

	c := cache.New(nil, "topic", nil)
	a := New(p, c, nil, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Analyze(ctx, "t", corpus, 1)
	require.Error(t, err)

	_, ok, err := c.Get(context.Background(), "similarity|t")
	require.NoError(t, err)
	assert.False(t, ok, "no partial cache entry after cancellation")
}

func TestConfidenceThresholds(t *testing.T) {
	assert.Equal(t, domain.ConfidenceLow, confidenceFor(0))
	assert.Equal(t, domain.ConfidenceLow, confidenceFor(2))
	assert.Equal(t, domain.ConfidenceMedium, confidenceFor(3))
	assert.Equal(t, domain.ConfidenceMedium, confidenceFor(7))
	assert.Equal(t, domain.ConfidenceHigh, confidenceFor(8))
}

func TestDeriveSummaryTriggers(t *testing.T) {
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	question := mkPost("q", "What would you do differently?", domain.TierHigh, 300, day)
	question.DerivedMetrics.HasQuestion = true
	plain := mkPost("p", "Some plain observations about work.", domain.TierMid, 50, day)

	matches := []domain.SimilarityMatch{
		{Post: question, SimilarityScore: 0.9, CombinedRank: 1.35},
		{Post: plain, SimilarityScore: 0.9, CombinedRank: 0.9},
	}

	summary := deriveSummary(matches)
	assert.Contains(t, summary.EngagementTriggers, TriggerQuestion,
		"question trigger lifted reactions within the set")
	assert.Len(t, summary.CommonOpenings, 2)
	assert.Positive(t, summary.AvgWordCount)
}

func TestPredictionUsesTopicTriggers(t *testing.T) {
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	question := mkPost("q", "Is remote work dead?", domain.TierHigh, 200, day)
	question.DerivedMetrics.HasQuestion = true
	plain := mkPost("p", "Office attendance notes.", domain.TierMid, 100, day)
	corpus := []domain.HistoricalPost{question, plain}

	matches := rankMatches(corpus, map[string]float64{"q": 0.9, "p": 0.9}, 2)

	withQuestion := predict("why is remote work so hard?", corpus, matches)
	without := predict("office attendance notes", corpus, matches)

	assert.Equal(t, withQuestion.Baseline, without.Baseline)
	assert.Greater(t, withQuestion.ExpectedReactions, without.ExpectedReactions,
		"a question-shaped topic picks up the question trigger's lift")
}
