// Package scoring implements the ICP scoring engine: a pure, deterministic
// mapping from a research bundle to a 0-100 fit score with an auditable
// per-factor breakdown. No I/O happens here; research gathering and result
// persistence belong to the callers.
package scoring

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ignite/outreach-engine/internal/config"
	"github.com/ignite/outreach-engine/internal/domain"
)

// ErrInvalidInput is returned when the bundle has no subject name. A score
// without a subject identity is meaningless, so this is the one mandatory
// field; everything else degrades to "insufficient data".
var ErrInvalidInput = errors.New("scoring: profile.name is required")

// Factor point allocations. They sum to 100 so the total never needs
// rescaling. Tunable, not domain-validated.
const (
	maxSeniority  = 30
	maxSizeFit    = 20
	maxTenure     = 15
	maxActivity   = 20
	maxTopicMatch = 15
)

const insufficientData = "insufficient data"

// Ordered factor names; the breakdown map is keyed by these.
const (
	FactorSeniority  = "role_seniority"
	FactorSizeFit    = "company_size_fit"
	FactorTenure     = "tenure_in_role"
	FactorActivity   = "recent_activity"
	FactorTopicMatch = "icp_topic_match"
)

// seniorityTiers maps title keywords to seniority points. Checked in order;
// first match wins, so executive titles beat their substrings.
var seniorityTiers = []struct {
	keywords []string
	points   int
	label    string
}{
	{[]string{"founder", "ceo", "chief", "cto", "coo", "cfo", "president", "owner"}, 30, "executive"},
	{[]string{"vp", "vice president", "head of", "director"}, 24, "senior leadership"},
	{[]string{"manager", "lead", "principal", "staff"}, 16, "management"},
}

// adjacentSizes maps each size bucket to its neighbors for partial credit
// when a company falls just outside the target range.
var adjacentSizes = map[domain.CompanySizeBucket][]domain.CompanySizeBucket{
	domain.SizeSolo:       {domain.SizeSmall},
	domain.SizeSmall:      {domain.SizeSolo, domain.SizeMid},
	domain.SizeMid:        {domain.SizeSmall, domain.SizeLarge},
	domain.SizeLarge:      {domain.SizeMid, domain.SizeEnterprise},
	domain.SizeEnterprise: {domain.SizeLarge},
}

// Engine scores research bundles against the configured ideal contact
// profile. Safe for concurrent use: all state is read-only after New.
type Engine struct {
	qualifiedThreshold int
	reviewThreshold    int
	targetSizes        map[domain.CompanySizeBucket]bool
	icpTopics          []string
}

// New creates a scoring engine from the tunable scoring config.
func New(cfg config.ScoringConfig) *Engine {
	targets := make(map[domain.CompanySizeBucket]bool, len(cfg.TargetSizeBuckets))
	for _, b := range cfg.TargetSizeBuckets {
		targets[domain.CompanySizeBucket(b)] = true
	}
	topics := make([]string, 0, len(cfg.ICPTopics))
	for _, t := range cfg.ICPTopics {
		topics = append(topics, strings.ToLower(strings.TrimSpace(t)))
	}
	return &Engine{
		qualifiedThreshold: cfg.QualifiedThreshold,
		reviewThreshold:    cfg.ReviewThreshold,
		targetSizes:        targets,
		icpTopics:          topics,
	}
}

// Score converts a research bundle into a ScoreResult. Pure and
// deterministic: the same bundle always yields an identical result.
// Missing optional sections contribute zero to their factor; only a missing
// subject name is an error.
func (e *Engine) Score(bundle domain.ResearchBundle) (domain.ScoreResult, error) {
	if strings.TrimSpace(bundle.Profile.Name) == "" {
		return domain.ScoreResult{}, ErrInvalidInput
	}

	breakdown := make(map[string]domain.FactorScore, 5)
	tagSet := make(map[string]bool)

	breakdown[FactorSeniority] = e.scoreSeniority(bundle.CurrentRole, tagSet)
	breakdown[FactorSizeFit] = e.scoreSizeFit(bundle.CompanyInfo, tagSet)
	breakdown[FactorTenure] = e.scoreTenure(bundle.CurrentRole)
	breakdown[FactorActivity] = e.scoreActivity(bundle.RecentActivity, tagSet)
	breakdown[FactorTopicMatch] = e.scoreTopicMatch(bundle.RecentActivity, tagSet)

	total := 0
	for _, f := range breakdown {
		total += f.Score
	}
	if total < 0 {
		total = 0
	}
	if total > 100 {
		total = 100
	}

	tags := make([]string, 0, len(tagSet))
	for t := range tagSet {
		tags = append(tags, t)
	}
	sort.Strings(tags)

	return domain.ScoreResult{
		TotalScore:     total,
		Breakdown:      breakdown,
		Tags:           tags,
		Recommendation: e.recommend(total),
	}, nil
}

// recommend maps a total score to a disposition. Lower bounds are inclusive
// so borderline leads land in the higher tier rather than being discarded.
func (e *Engine) recommend(total int) domain.Recommendation {
	switch {
	case total >= e.qualifiedThreshold:
		return domain.RecommendQualified
	case total >= e.reviewThreshold:
		return domain.RecommendReview
	default:
		return domain.RecommendNotICP
	}
}

func (e *Engine) scoreSeniority(role *domain.CurrentRole, tags map[string]bool) domain.FactorScore {
	f := domain.FactorScore{MaxScore: maxSeniority}
	if role == nil || strings.TrimSpace(role.Title) == "" {
		f.Reasoning = insufficientData
		return f
	}

	title := strings.ToLower(role.Title)
	for _, tier := range seniorityTiers {
		for _, kw := range tier.keywords {
			if strings.Contains(title, kw) {
				f.Score = tier.points
				f.Reasoning = fmt.Sprintf("title %q indicates %s", role.Title, tier.label)
				if tier.points >= 24 {
					tags["Senior Leader"] = true
				}
				return f
			}
		}
	}

	f.Score = 8
	f.Reasoning = fmt.Sprintf("title %q is an individual contributor role", role.Title)
	return f
}

func (e *Engine) scoreSizeFit(info *domain.CompanyInfo, tags map[string]bool) domain.FactorScore {
	f := domain.FactorScore{MaxScore: maxSizeFit}
	if info == nil || info.SizeBucket == "" {
		f.Reasoning = insufficientData
		return f
	}

	if e.targetSizes[info.SizeBucket] {
		f.Score = maxSizeFit
		f.Reasoning = fmt.Sprintf("company size %s is in the target range", info.SizeBucket)
		tags["Target Size"] = true
		return f
	}

	for _, adj := range adjacentSizes[info.SizeBucket] {
		if e.targetSizes[adj] {
			f.Score = 10
			f.Reasoning = fmt.Sprintf("company size %s is adjacent to the target range", info.SizeBucket)
			return f
		}
	}

	f.Score = 4
	f.Reasoning = fmt.Sprintf("company size %s is outside the target range", info.SizeBucket)
	return f
}

func (e *Engine) scoreTenure(role *domain.CurrentRole) domain.FactorScore {
	f := domain.FactorScore{MaxScore: maxTenure}
	if role == nil || role.TenureMonths <= 0 {
		f.Reasoning = insufficientData
		return f
	}

	months := role.TenureMonths
	switch {
	case months < 6:
		f.Score = 3
		f.Reasoning = fmt.Sprintf("only %d months in role, likely still ramping", months)
	case months < 12:
		f.Score = 10
		f.Reasoning = fmt.Sprintf("%d months in role, settling in", months)
	case months <= 60:
		f.Score = maxTenure
		f.Reasoning = fmt.Sprintf("%d months in role, established with budget influence", months)
	default:
		f.Score = 8
		f.Reasoning = fmt.Sprintf("%d months in role, long tenure", months)
	}
	return f
}

func (e *Engine) scoreActivity(activity *domain.RecentActivity, tags map[string]bool) domain.FactorScore {
	f := domain.FactorScore{MaxScore: maxActivity}
	if activity == nil {
		f.Reasoning = insufficientData
		return f
	}

	switch activity.EngagementLevel {
	case domain.EngagementHigh:
		f.Score = maxActivity
		f.Reasoning = fmt.Sprintf("high engagement with %d recent posts", activity.PostCount)
		tags["Active Poster"] = true
	case domain.EngagementModerate:
		f.Score = 14
		f.Reasoning = fmt.Sprintf("moderate engagement with %d recent posts", activity.PostCount)
	case domain.EngagementLow:
		f.Score = 8
		f.Reasoning = fmt.Sprintf("low engagement with %d recent posts", activity.PostCount)
	default:
		f.Score = 2
		f.Reasoning = "no recent public engagement"
	}
	return f
}

func (e *Engine) scoreTopicMatch(activity *domain.RecentActivity, tags map[string]bool) domain.FactorScore {
	f := domain.FactorScore{MaxScore: maxTopicMatch}
	if activity == nil || len(activity.Topics) == 0 {
		f.Reasoning = insufficientData
		return f
	}
	if len(e.icpTopics) == 0 {
		f.Reasoning = "no ICP topics configured"
		return f
	}

	matches := 0
	var matched []string
	for _, topic := range activity.Topics {
		t := strings.ToLower(strings.TrimSpace(topic))
		for _, icp := range e.icpTopics {
			if t == icp {
				matches++
				matched = append(matched, topic)
				break
			}
		}
	}

	if matches == 0 {
		f.Reasoning = "no overlap with ICP topics"
		return f
	}

	// 5 points per matched topic, capped at the factor allocation
	f.Score = matches * 5
	if f.Score > maxTopicMatch {
		f.Score = maxTopicMatch
	}
	f.Reasoning = fmt.Sprintf("posts about %s", strings.Join(matched, ", "))
	if matches >= 2 {
		tags["Topic Fit"] = true
	}
	return f
}
