// Package api exposes the engine to the dashboard over HTTP: lead scoring,
// content analysis, voice scoring, batch control, and cache/corpus
// inspection.
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ignite/outreach-engine/internal/analyzer"
	"github.com/ignite/outreach-engine/internal/cache"
	"github.com/ignite/outreach-engine/internal/domain"
	"github.com/ignite/outreach-engine/internal/pkg/metrics"
	"github.com/ignite/outreach-engine/internal/repository/postgres"
	"github.com/ignite/outreach-engine/internal/scoring"
	"github.com/ignite/outreach-engine/internal/voice"
)

// PostLister reads the historical post corpus.
type PostLister interface {
	List(ctx context.Context, f postgres.Filter) ([]domain.HistoricalPost, error)
}

// ProfileGetter reads the committed voice profile.
type ProfileGetter interface {
	Get(ctx context.Context) (domain.VoiceProfile, bool, error)
}

// BatchRunner triggers a full-analysis pass.
type BatchRunner interface {
	RunFullAnalysis(ctx context.Context) (domain.BatchReport, error)
}

// Server wires the engine components behind the HTTP surface.
type Server struct {
	scorer   *scoring.Engine
	analyzer *analyzer.Analyzer
	learner  *voice.Learner
	posts    PostLister
	profiles ProfileGetter
	cache    *cache.Cache
	runner   BatchRunner
	metrics  *metrics.Metrics

	researchTTL  time.Duration
	batchTimeout time.Duration

	mu         sync.Mutex
	running    bool
	lastReport *domain.BatchReport
	lastErr    string
}

// NewServer assembles the API server. metrics may be nil in tests.
func NewServer(
	scorer *scoring.Engine,
	a *analyzer.Analyzer,
	learner *voice.Learner,
	posts PostLister,
	profiles ProfileGetter,
	c *cache.Cache,
	runner BatchRunner,
	m *metrics.Metrics,
	researchTTL time.Duration,
) *Server {
	return &Server{
		scorer:       scorer,
		analyzer:     a,
		learner:      learner,
		posts:        posts,
		profiles:     profiles,
		cache:        c,
		runner:       runner,
		metrics:      m,
		researchTTL:  researchTTL,
		batchTimeout: 30 * time.Minute,
	}
}

// Router builds the chi mux with the standard middleware stack.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/leads/score", s.handleScoreLead)
		r.Post("/content/analyze", s.handleAnalyzeContent)
		r.Post("/voice/score", s.handleScoreVoice)
		r.Post("/batch/run", s.handleBatchRun)
		r.Get("/batch/status", s.handleBatchStatus)
		r.Get("/cache/stats", s.handleCacheStats)
		r.Get("/posts", s.handleListPosts)
	})

	return r
}
