// Package worker runs the periodic full-analysis pass: recompute viral
// scores and performance tiers over the whole corpus snapshot, then relearn
// the voice profile. Tiers are corpus-relative percentiles, so a partial
// recompute would skew every tier; the run therefore loads the full
// snapshot before writing anything back.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ignite/outreach-engine/internal/domain"
	"github.com/ignite/outreach-engine/internal/pkg/distlock"
	"github.com/ignite/outreach-engine/internal/pkg/logger"
	"github.com/ignite/outreach-engine/internal/pkg/metrics"
	"github.com/ignite/outreach-engine/internal/textstats"
	"github.com/ignite/outreach-engine/internal/voice"
)

// ErrRunInProgress is returned when another worker instance holds the batch
// lock.
var ErrRunInProgress = errors.New("batch run already in progress")

// Weighted engagement coefficients: comments signal more intent than likes,
// shares more than comments.
const (
	commentWeight = 2
	shareWeight   = 3
)

// Percentile cuts for tier assignment.
const (
	midCut   = 40.0
	highCut  = 70.0
	viralCut = 90.0
)

const writeConcurrency = 4

// PostStore is the corpus access the orchestrator needs.
type PostStore interface {
	Count(ctx context.Context) (int, error)
	ListPage(ctx context.Context, limit, offset int) ([]domain.HistoricalPost, error)
	ListComments(ctx context.Context) ([]domain.Comment, error)
	UpdateDerivedMetrics(ctx context.Context, id string, m domain.DerivedMetrics) error
}

// ProfileStore commits a freshly learned voice profile.
type ProfileStore interface {
	Replace(ctx context.Context, profile domain.VoiceProfile) error
}

// Orchestrator coordinates one full-analysis run end to end.
type Orchestrator struct {
	posts    PostStore
	profiles ProfileStore
	learner  *voice.Learner
	lock     distlock.DistLock
	metrics  *metrics.Metrics
	pageSize int
	now      func() time.Time
}

// New creates a batch orchestrator. lock may be nil in single-instance
// deployments and tests.
func New(posts PostStore, profiles ProfileStore, learner *voice.Learner, lock distlock.DistLock, m *metrics.Metrics, pageSize int) *Orchestrator {
	if pageSize <= 0 {
		pageSize = 200
	}
	return &Orchestrator{
		posts:    posts,
		profiles: profiles,
		learner:  learner,
		lock:     lock,
		metrics:  m,
		pageSize: pageSize,
		now:      time.Now,
	}
}

// RunFullAnalysis executes one guarded batch pass.
//
// Snapshot reads must succeed in full; a read failure aborts the run because
// percentile tiers computed over a partial corpus would be wrong for every
// post. Write failures are softer: each failed page is recorded and the rest
// of the pass continues, since per-post tier writes are idempotent and a
// later run repairs the gap. The voice profile is committed only after a
// clean pass so it never reflects a half-written corpus.
func (o *Orchestrator) RunFullAnalysis(ctx context.Context) (domain.BatchReport, error) {
	report := domain.BatchReport{
		RunID:     uuid.New().String(),
		StartedAt: o.now(),
	}

	if o.lock != nil {
		acquired, err := o.lock.Acquire(ctx)
		if err != nil {
			return report, fmt.Errorf("acquire batch lock: %w", err)
		}
		if !acquired {
			return report, ErrRunInProgress
		}
		defer func() {
			if err := o.lock.Release(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("batch: failed to release lock", "run_id", report.RunID, "error", err)
			}
		}()
	}

	logger.Info("batch: full analysis started", "run_id", report.RunID, "page_size", o.pageSize)

	snapshot, err := o.loadSnapshot(ctx)
	if err != nil {
		return report, err
	}

	derived := computeDerived(snapshot)
	o.writeBack(ctx, snapshot, derived, &report)

	if len(report.Errors) == 0 {
		o.relearnProfile(ctx, snapshot, derived, &report)
	} else {
		logger.Warn("batch: skipping profile commit after page failures",
			"run_id", report.RunID, "failed_pages", len(report.Errors))
	}

	report.FinishedAt = o.now()
	if o.metrics != nil {
		o.metrics.LastBatchRunUnix.Set(float64(report.FinishedAt.Unix()))
	}
	logger.Info("batch: full analysis finished",
		"run_id", report.RunID, "processed", report.Processed,
		"skipped", report.Skipped, "committed", report.Committed)
	return report, nil
}

// loadSnapshot pages the full corpus into memory in the repository's stable
// order.
func (o *Orchestrator) loadSnapshot(ctx context.Context) ([]domain.HistoricalPost, error) {
	total, err := o.posts.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count corpus: %w", err)
	}

	snapshot := make([]domain.HistoricalPost, 0, total)
	for offset := 0; offset < total; offset += o.pageSize {
		page, err := o.posts.ListPage(ctx, o.pageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("load corpus page at offset %d: %w", offset, err)
		}
		snapshot = append(snapshot, page...)
	}
	return snapshot, nil
}

// computeDerived recomputes every post's derived metrics against the
// snapshot. Deterministic: equal engagement yields equal viral score.
func computeDerived(snapshot []domain.HistoricalPost) []domain.DerivedMetrics {
	weights := make([]float64, len(snapshot))
	for i, p := range snapshot {
		weights[i] = weightedEngagement(p.Engagement)
	}

	sorted := append([]float64(nil), weights...)
	sort.Float64s(sorted)

	out := make([]domain.DerivedMetrics, len(snapshot))
	for i, p := range snapshot {
		score := percentile(sorted, weights[i])
		out[i] = domain.DerivedMetrics{
			ViralScore:      score,
			PerformanceTier: tierFor(score),
			WordCount:       textstats.WordCount(p.Text),
			HasQuestion:     textstats.HasQuestion(p.Text),
			HasStory:        textstats.HasStory(p.Text),
			HasCallToAction: textstats.HasCallToAction(p.Text),
		}
	}
	return out
}

func weightedEngagement(e domain.Engagement) float64 {
	return float64(e.Likes + commentWeight*e.Comments + shareWeight*e.Shares)
}

// percentile returns the share of the snapshot strictly below w, as a
// [0,100] score. A one-post corpus scores 0 and tiers low: a single sample
// has no distribution to stand out from.
func percentile(sorted []float64, w float64) float64 {
	if len(sorted) < 2 {
		return 0
	}
	below := sort.SearchFloat64s(sorted, w)
	return 100 * float64(below) / float64(len(sorted)-1)
}

func tierFor(score float64) domain.PerformanceTier {
	switch {
	case score >= viralCut:
		return domain.TierViral
	case score >= highCut:
		return domain.TierHigh
	case score >= midCut:
		return domain.TierMid
	default:
		return domain.TierLow
	}
}

// writeBack persists derived metrics page by page with bounded concurrency.
// A page that fails is recorded and its posts counted as skipped.
func (o *Orchestrator) writeBack(ctx context.Context, snapshot []domain.HistoricalPost, derived []domain.DerivedMetrics, report *domain.BatchReport) {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(writeConcurrency)

	for start := 0; start < len(snapshot); start += o.pageSize {
		start := start
		end := start + o.pageSize
		if end > len(snapshot) {
			end = len(snapshot)
		}
		page := start / o.pageSize

		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := o.posts.UpdateDerivedMetrics(gctx, snapshot[i].ID, derived[i]); err != nil {
					mu.Lock()
					report.Errors = append(report.Errors, domain.BatchError{
						Page:    page,
						Message: err.Error(),
					})
					report.Skipped += end - i
					mu.Unlock()
					o.countPage("failed")
					logger.Error("batch: page write failed", "page", page, "error", err)
					return nil
				}
			}
			mu.Lock()
			report.Processed += end - start
			mu.Unlock()
			o.countPage("processed")
			return nil
		})
	}

	g.Wait()

	sort.Slice(report.Errors, func(i, j int) bool {
		return report.Errors[i].Page < report.Errors[j].Page
	})
}

// relearnProfile rebuilds the voice profile from the snapshot with the fresh
// derived metrics applied, and commits it wholesale.
func (o *Orchestrator) relearnProfile(ctx context.Context, snapshot []domain.HistoricalPost, derived []domain.DerivedMetrics, report *domain.BatchReport) {
	comments, err := o.posts.ListComments(ctx)
	if err != nil {
		report.Errors = append(report.Errors, domain.BatchError{Message: fmt.Sprintf("list comments: %v", err)})
		return
	}

	corpus := make([]domain.HistoricalPost, len(snapshot))
	copy(corpus, snapshot)
	for i := range corpus {
		corpus[i].DerivedMetrics = derived[i]
	}

	profile := o.learner.Learn(corpus, comments)
	if err := o.profiles.Replace(ctx, profile); err != nil {
		report.Errors = append(report.Errors, domain.BatchError{Message: fmt.Sprintf("commit voice profile: %v", err)})
		return
	}
	report.Committed = true
}

func (o *Orchestrator) countPage(result string) {
	if o.metrics != nil {
		o.metrics.BatchPagesTotal.WithLabelValues(result).Inc()
	}
}
