package domain

// ResearchBundle aggregates everything an external research provider learned
// about one prospective contact. Required fields are strongly typed; optional
// sections are nullable sub-records so "missing section" is a type-level
// state, not a runtime string check. Immutable once assembled.
type ResearchBundle struct {
	Profile        Profile         `json:"profile"`
	CurrentRole    *CurrentRole    `json:"current_role,omitempty"`
	CompanyInfo    *CompanyInfo    `json:"company_info,omitempty"`
	RecentActivity *RecentActivity `json:"recent_activity,omitempty"`
}

// Profile holds the identity of the research subject. Name is the only
// mandatory field in the whole bundle.
type Profile struct {
	Name     string `json:"name"`
	Headline string `json:"headline,omitempty"`
	Location string `json:"location,omitempty"`
	Summary  string `json:"summary,omitempty"`
}

// CurrentRole describes the subject's present position.
type CurrentRole struct {
	Title        string `json:"title"`
	Company      string `json:"company"`
	TenureMonths int    `json:"tenure_months"`
}

// CompanySizeBucket enumerates coarse headcount ranges.
type CompanySizeBucket string

const (
	SizeSolo       CompanySizeBucket = "1-10"
	SizeSmall      CompanySizeBucket = "11-50"
	SizeMid        CompanySizeBucket = "51-200"
	SizeLarge      CompanySizeBucket = "201-1000"
	SizeEnterprise CompanySizeBucket = "1000+"
)

// CompanyInfo describes the subject's employer.
type CompanyInfo struct {
	Name       string            `json:"name"`
	SizeBucket CompanySizeBucket `json:"size_bucket"`
	Industry   string            `json:"industry,omitempty"`
}

// EngagementLevel is a coarse classification of how actively the subject
// posts and interacts publicly.
type EngagementLevel string

const (
	EngagementNone     EngagementLevel = "none"
	EngagementLow      EngagementLevel = "low"
	EngagementModerate EngagementLevel = "moderate"
	EngagementHigh     EngagementLevel = "high"
)

// RecentActivity summarizes the subject's recent public posting behavior.
type RecentActivity struct {
	PostCount       int             `json:"post_count"`
	EngagementLevel EngagementLevel `json:"engagement_level"`
	Topics          []string        `json:"topics,omitempty"`
}

// Recommendation is the disposition derived from a total ICP score.
type Recommendation string

const (
	RecommendQualified Recommendation = "qualified"
	RecommendReview    Recommendation = "review"
	RecommendNotICP    Recommendation = "not_icp"
)

// FactorScore is one line of a score breakdown: the points a single factor
// contributed, its ceiling, and a human-readable justification.
type FactorScore struct {
	Score     int    `json:"score"`
	MaxScore  int    `json:"max_score"`
	Reasoning string `json:"reasoning"`
}

// ScoreResult is the outcome of scoring one ResearchBundle. TotalScore is
// always the sum of the breakdown scores, clamped to [0,100]. Created fresh
// per scoring call and never mutated afterwards; persistence belongs to the
// caller.
type ScoreResult struct {
	TotalScore     int                    `json:"total_score"`
	Breakdown      map[string]FactorScore `json:"breakdown"`
	Tags           []string               `json:"tags"`
	Recommendation Recommendation         `json:"recommendation"`
}
