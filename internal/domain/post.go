package domain

import "time"

// PerformanceTier is a relative performance bucket assigned to a historical
// post based on its viral-score percentile within a corpus snapshot. Tiers
// are relative, not absolute: they must be recomputed whenever the corpus
// changes materially.
type PerformanceTier string

const (
	TierLow   PerformanceTier = "low"
	TierMid   PerformanceTier = "mid"
	TierHigh  PerformanceTier = "high"
	TierViral PerformanceTier = "viral"
)

// TierRank returns the ordinal position of a tier, with unknown tiers
// sorting below TierLow. Used for monotonicity checks, not for ranking
// weights (those live with the analyzer).
func TierRank(t PerformanceTier) int {
	switch t {
	case TierLow:
		return 1
	case TierMid:
		return 2
	case TierHigh:
		return 3
	case TierViral:
		return 4
	default:
		return 0
	}
}

// Engagement holds the raw reaction counts for one post.
type Engagement struct {
	Likes          int `json:"likes" db:"likes"`
	Comments       int `json:"comments" db:"comments"`
	Shares         int `json:"shares" db:"shares"`
	TotalReactions int `json:"total_reactions" db:"total_reactions"`
}

// DerivedMetrics are computed from a post's text and its standing within a
// corpus snapshot. They may be recomputed (idempotent overwrite) as the
// corpus percentile distribution shifts.
type DerivedMetrics struct {
	ViralScore      float64         `json:"viral_score" db:"viral_score"`
	PerformanceTier PerformanceTier `json:"performance_tier" db:"performance_tier"`
	WordCount       int             `json:"word_count" db:"word_count"`
	HasQuestion     bool            `json:"has_question" db:"has_question"`
	HasStory        bool            `json:"has_story" db:"has_story"`
	HasCallToAction bool            `json:"has_call_to_action" db:"has_call_to_action"`
}

// HistoricalPost is one published post with its engagement metrics and
// corpus-relative derived metrics.
type HistoricalPost struct {
	ID             string         `json:"id" db:"id"`
	Text           string         `json:"text" db:"text"`
	PostedAt       time.Time      `json:"posted_at" db:"posted_at"`
	Engagement     Engagement     `json:"engagement"`
	DerivedMetrics DerivedMetrics `json:"derived_metrics"`
}

// Comment is a reply the account author wrote under someone else's post.
// Comments inform the voice profile at reduced training weight; they carry
// no corpus-relative tier.
type Comment struct {
	ID       string    `json:"id" db:"id"`
	Text     string    `json:"text" db:"text"`
	PostedAt time.Time `json:"posted_at" db:"posted_at"`
}
