package domain

// SimilarityMatch pairs a historical post with its topical similarity to a
// query and the performance-weighted rank used for ordering. Ephemeral:
// computed per query, never persisted.
type SimilarityMatch struct {
	Post            HistoricalPost `json:"post"`
	SimilarityScore float64        `json:"similarity_score"`
	CombinedRank    float64        `json:"combined_rank"`
}

// PatternSummary aggregates structural patterns across a set of matched
// posts. Derivation is expensive, so summaries are cached per topic.
type PatternSummary struct {
	AvgWordCount          float64  `json:"avg_word_count"`
	CommonOpenings        []string `json:"common_openings"`
	CommonStructures      []string `json:"common_structures"`
	BestPerformingFormats []string `json:"best_performing_formats"`
	EngagementTriggers    []string `json:"engagement_triggers"`
}

// Confidence labels how much signal backed a prediction.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// PerformancePrediction is a heuristic engagement estimate for a new piece
// of content on a given topic.
type PerformancePrediction struct {
	ExpectedReactions float64    `json:"expected_reactions"`
	Baseline          float64    `json:"baseline"`
	TriggerLift       float64    `json:"trigger_lift"`
	Confidence        Confidence `json:"confidence"`
}

// AnalysisResult is everything the analyzer learned about a topic: ranked
// precedents, the patterns they share, and a performance prediction.
// Warnings carry degradation notices (provider fallback, empty corpus) so
// callers always have something to render.
type AnalysisResult struct {
	Topic      string                `json:"topic"`
	Matches    []SimilarityMatch     `json:"matches"`
	Patterns   PatternSummary        `json:"patterns"`
	Prediction PerformancePrediction `json:"prediction"`
	Warnings   []string              `json:"warnings,omitempty"`
	FromCache  bool                  `json:"from_cache"`
}
