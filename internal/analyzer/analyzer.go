// Package analyzer mines the historical post corpus for the most relevant
// AND highest-performing precedents for a new piece of content. Relevance
// alone is not the goal: a moderately similar post that went viral is worth
// more as a precedent than a near-duplicate that flopped, so ranking weights
// similarity by performance tier.
package analyzer

import (
	"context"
	"sort"
	"time"

	"github.com/ignite/outreach-engine/internal/cache"
	"github.com/ignite/outreach-engine/internal/domain"
	"github.com/ignite/outreach-engine/internal/pkg/logger"
	"github.com/ignite/outreach-engine/internal/pkg/metrics"
	"github.com/ignite/outreach-engine/internal/similarity"
)

// tierWeights is the monotonically increasing step function over
// performance tiers. Tunable: the spread decides how much historical
// success can outrank topical closeness.
var tierWeights = map[domain.PerformanceTier]float64{
	domain.TierLow:   0.5,
	domain.TierMid:   1.0,
	domain.TierHigh:  1.5,
	domain.TierViral: 2.0,
}

// performanceWeight returns the rank multiplier for a tier. Posts that have
// not been through a tier pass yet rank as mid.
func performanceWeight(tier domain.PerformanceTier) float64 {
	if w, ok := tierWeights[tier]; ok {
		return w
	}
	return 1.0
}

const (
	defaultLimit = 5
	openingWords = 8
	sourceName   = "analyzer"
	warnEmpty    = "corpus is empty: returning no-signal result"
	warnFallback = "similarity provider unavailable: used keyword-overlap fallback"
)

// Analyzer ranks historical precedents for a topic and derives pattern and
// prediction artifacts from them. Stateless between calls except for the
// injected cache handle; safe for concurrent use.
type Analyzer struct {
	provider similarity.Provider
	fallback similarity.Provider
	cache    *cache.Cache
	metrics  *metrics.Metrics
	topicTTL time.Duration
}

// New creates an analyzer. provider may be the embedding adapter or the
// keyword provider directly; the keyword fallback is always available for
// degraded operation.
func New(provider similarity.Provider, c *cache.Cache, m *metrics.Metrics, topicTTL time.Duration) *Analyzer {
	return &Analyzer{
		provider: provider,
		fallback: similarity.NewKeywordProvider(),
		cache:    c,
		metrics:  m,
		topicTTL: topicTTL,
	}
}

// similarityPayload is the cached result of one provider pass over the full
// corpus for a topic.
type similarityPayload struct {
	Provider string             `json:"provider"`
	Scores   map[string]float64 `json:"scores"`
}

// Analyze returns the top-limit precedents for topic, the patterns they
// share, and a performance prediction.
//
// The ranking is fully deterministic for a fixed corpus snapshot and
// provider response. Provider failure degrades to keyword overlap and is
// reported via Warnings, never as an error. An empty corpus yields a valid
// no-signal result. A cancelled context aborts before any cache write, so
// no partial entry is ever stored.
func (a *Analyzer) Analyze(ctx context.Context, topic string, corpus []domain.HistoricalPost, limit int) (domain.AnalysisResult, error) {
	start := time.Now()
	defer func() {
		if a.metrics != nil {
			a.metrics.AnalyzeLatency.Observe(time.Since(start).Seconds())
		}
	}()

	if limit <= 0 {
		limit = defaultLimit
	}

	result := domain.AnalysisResult{Topic: topic}

	if len(corpus) == 0 {
		result.Prediction = domain.PerformancePrediction{Confidence: domain.ConfidenceLow}
		result.Warnings = append(result.Warnings, warnEmpty)
		a.count("empty")
		return result, nil
	}

	scores, fromCache, warning, err := a.similarityScores(ctx, topic, corpus)
	if err != nil {
		return domain.AnalysisResult{}, err
	}
	result.FromCache = fromCache
	if warning != "" {
		result.Warnings = append(result.Warnings, warning)
	}

	result.Matches = rankMatches(corpus, scores, limit)
	result.Patterns = a.patternSummary(ctx, topic, result.Matches, fromCache)
	result.Prediction = predict(topic, corpus, result.Matches)

	switch {
	case fromCache:
		a.count("cached")
	case warning != "":
		a.count("fallback")
	default:
		a.count("computed")
	}
	return result, nil
}

func (a *Analyzer) count(outcome string) {
	if a.metrics != nil {
		a.metrics.AnalyzeTotal.WithLabelValues(outcome).Inc()
	}
}

// similarityScores returns a per-post-ID similarity map for the topic,
// consulting the cache first. A cached payload that does not cover the
// whole snapshot is discarded and recomputed in full: stale and fresh
// matches are never merged.
func (a *Analyzer) similarityScores(ctx context.Context, topic string, corpus []domain.HistoricalPost) (map[string]float64, bool, string, error) {
	cacheKey := "similarity|" + topic

	var cached similarityPayload
	if ok, err := a.cache.GetResults(ctx, cacheKey, &cached); err == nil && ok {
		if coversCorpus(cached.Scores, corpus) {
			return cached.Scores, true, "", nil
		}
		logger.Debug("analyzer: cached similarity does not cover snapshot, recomputing", "topic", topic)
	} else if err != nil {
		logger.Warn("analyzer: cache lookup failed", "topic", topic, "error", err)
	}

	texts := make([]string, len(corpus))
	for i, p := range corpus {
		texts[i] = p.Text
	}

	warning := ""
	providerName := a.provider.Name()
	raw, err := a.provider.Similarities(ctx, topic, texts)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, "", ctx.Err()
		}
		// Retries are exhausted inside the provider; degrade to keyword
		// overlap so the pipeline stays usable.
		logger.Warn("analyzer: provider failed, falling back", "provider", providerName, "error", err)
		if a.metrics != nil {
			a.metrics.ProviderFallbacks.Inc()
		}
		warning = warnFallback
		providerName = a.fallback.Name()
		raw, err = a.fallback.Similarities(ctx, topic, texts)
		if err != nil {
			return nil, false, "", err
		}
	}

	scores := make(map[string]float64, len(corpus))
	for i, p := range corpus {
		scores[p.ID] = raw[i]
	}

	// Only fully computed results are cached, and never after cancellation
	if ctx.Err() == nil {
		payload := similarityPayload{Provider: providerName, Scores: scores}
		if _, err := a.cache.Put(ctx, cacheKey, sourceName, payload, a.topicTTL); err != nil {
			logger.Warn("analyzer: failed to cache similarity scores", "topic", topic, "error", err)
		}
	}

	return scores, false, warning, nil
}

func coversCorpus(scores map[string]float64, corpus []domain.HistoricalPost) bool {
	for _, p := range corpus {
		if _, ok := scores[p.ID]; !ok {
			return false
		}
	}
	return true
}

// rankMatches orders the snapshot by combined rank and keeps the top limit.
// combinedRank = similarity * performanceWeight(tier): a viral post at 0.6
// similarity (1.2) deliberately outranks a low-tier post at 0.9 (0.45).
// Ties break toward the more recent post, then lexically by ID so the order
// is total.
func rankMatches(corpus []domain.HistoricalPost, scores map[string]float64, limit int) []domain.SimilarityMatch {
	matches := make([]domain.SimilarityMatch, 0, len(corpus))
	for _, post := range corpus {
		sim := scores[post.ID]
		matches = append(matches, domain.SimilarityMatch{
			Post:            post,
			SimilarityScore: sim,
			CombinedRank:    sim * performanceWeight(post.DerivedMetrics.PerformanceTier),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CombinedRank != matches[j].CombinedRank {
			return matches[i].CombinedRank > matches[j].CombinedRank
		}
		if !matches[i].Post.PostedAt.Equal(matches[j].Post.PostedAt) {
			return matches[i].Post.PostedAt.After(matches[j].Post.PostedAt)
		}
		return matches[i].Post.ID < matches[j].Post.ID
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// patternSummary returns the cached summary for the topic when the match
// set also came from cache, otherwise derives and caches a fresh one.
func (a *Analyzer) patternSummary(ctx context.Context, topic string, matches []domain.SimilarityMatch, simFromCache bool) domain.PatternSummary {
	cacheKey := "patterns|" + topic

	if simFromCache {
		var cached domain.PatternSummary
		if ok, err := a.cache.GetResults(ctx, cacheKey, &cached); err == nil && ok {
			return cached
		}
	}

	summary := deriveSummary(matches)

	if ctx.Err() == nil {
		if _, err := a.cache.Put(ctx, cacheKey, sourceName, summary, a.topicTTL); err != nil {
			logger.Warn("analyzer: failed to cache pattern summary", "topic", topic, "error", err)
		}
	}
	return summary
}
