package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ignite/outreach-engine/internal/domain"
	"github.com/ignite/outreach-engine/internal/pkg/httputil"
	"github.com/ignite/outreach-engine/internal/pkg/logger"
	"github.com/ignite/outreach-engine/internal/repository/postgres"
	"github.com/ignite/outreach-engine/internal/scoring"
	"github.com/ignite/outreach-engine/internal/worker"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

type scoreLeadRequest struct {
	// QueryText addresses the research cache. When Research is inline it is
	// the key the bundle is stored under; when Research is absent it is the
	// key a previous lookup is fetched by.
	QueryText string                 `json:"query_text,omitempty"`
	Research  *domain.ResearchBundle `json:"research,omitempty"`
}

type scoreLeadResponse struct {
	Result    domain.ScoreResult `json:"result"`
	FromCache bool               `json:"from_cache,omitempty"`
}

func (s *Server) handleScoreLead(w http.ResponseWriter, r *http.Request) {
	var req scoreLeadRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	var bundle domain.ResearchBundle
	fromCache := false
	switch {
	case req.Research != nil:
		bundle = *req.Research
		if req.QueryText != "" {
			if _, err := s.cache.Put(r.Context(), req.QueryText, "research", bundle, s.researchTTL); err != nil {
				logger.Warn("api: failed to cache research bundle", "error", err)
			}
		}
	case req.QueryText != "":
		ok, err := s.cache.GetResults(r.Context(), req.QueryText, &bundle)
		if err != nil {
			httputil.InternalError(w, err)
			return
		}
		if !ok {
			httputil.NotFound(w, "no cached research for query_text")
			return
		}
		fromCache = true
	default:
		httputil.BadRequest(w, "either research or query_text is required")
		return
	}

	result, err := s.scorer.Score(bundle)
	if err != nil {
		if errors.Is(err, scoring.ErrInvalidInput) {
			httputil.BadRequest(w, err.Error())
			return
		}
		httputil.InternalError(w, err)
		return
	}

	if s.metrics != nil {
		s.metrics.ScoreTotal.WithLabelValues(string(result.Recommendation)).Inc()
	}
	httputil.OK(w, scoreLeadResponse{Result: result, FromCache: fromCache})
}

type analyzeRequest struct {
	Topic string `json:"topic"`
	Limit int    `json:"limit,omitempty"`
}

func (s *Server) handleAnalyzeContent(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		httputil.BadRequest(w, "topic is required")
		return
	}

	corpus, err := s.posts.List(r.Context(), postgres.Filter{})
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	result, err := s.analyzer.Analyze(r.Context(), req.Topic, corpus, req.Limit)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, result)
}

type voiceScoreRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleScoreVoice(w http.ResponseWriter, r *http.Request) {
	var req voiceScoreRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		httputil.BadRequest(w, "text is required")
		return
	}

	profile, found, err := s.profiles.Get(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if !found {
		profile = domain.VoiceProfile{}
	}

	httputil.OK(w, s.learner.ScoreText(req.Text, profile))
}

func (s *Server) handleBatchRun(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		httputil.Conflict(w, "batch run already in progress")
		return
	}
	s.running = true
	s.mu.Unlock()

	// The run outlives the request; it gets its own deadline.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.batchTimeout)
		defer cancel()

		report, err := s.runner.RunFullAnalysis(ctx)

		s.mu.Lock()
		defer s.mu.Unlock()
		s.running = false
		s.lastErr = ""
		switch {
		case errors.Is(err, worker.ErrRunInProgress):
			s.lastErr = err.Error()
		case err != nil:
			s.lastErr = err.Error()
			logger.Error("api: batch run failed", "error", err)
		default:
			s.lastReport = &report
		}
	}()

	httputil.Accepted(w, map[string]string{"status": "accepted"})
}

type batchStatusResponse struct {
	Running    bool                `json:"running"`
	LastReport *domain.BatchReport `json:"last_report,omitempty"`
	LastError  string              `json:"last_error,omitempty"`
}

func (s *Server) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := batchStatusResponse{
		Running:    s.running,
		LastReport: s.lastReport,
		LastError:  s.lastErr,
	}
	s.mu.Unlock()

	httputil.OK(w, resp)
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.cache.Stats(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, stats)
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	f := postgres.Filter{Limit: 50}
	q := r.URL.Query()

	if tier := q.Get("tier"); tier != "" {
		f.Tier = domain.PerformanceTier(tier)
	}
	if raw := q.Get("min_reactions"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httputil.BadRequest(w, "min_reactions must be a non-negative integer")
			return
		}
		f.MinReactions = n
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httputil.BadRequest(w, "limit must be a positive integer")
			return
		}
		f.Limit = n
	}

	posts, err := s.posts.List(r.Context(), f)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"posts": posts, "count": len(posts)})
}
