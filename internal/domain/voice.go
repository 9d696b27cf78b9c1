package domain

import "time"

// LexicalSignature captures word-level writing habits.
type LexicalSignature struct {
	CommonWords       []string `json:"common_words"`
	AvgSentenceLength float64  `json:"avg_sentence_length"`
	EmojiRate         float64  `json:"emoji_rate"`
	HashtagRate       float64  `json:"hashtag_rate"`
}

// StructuralSignature captures document-level writing habits.
type StructuralSignature struct {
	ParagraphPatterns []string `json:"paragraph_patterns"`
	ListUsageRate     float64  `json:"list_usage_rate"`
	QuestionUsageRate float64  `json:"question_usage_rate"`
}

// PatternLift records how strongly a named pattern correlated with viral
// score across the training corpus. Positive lift means items carrying the
// pattern outperformed the corpus average.
type PatternLift struct {
	LiftScore float64 `json:"lift_score"`
}

// VoiceProfile is the aggregated lexical/structural signature of an
// account's writing, annotated with which patterns actually correlated with
// performance. Regenerated wholesale on each batch run (replace, not merge)
// to avoid drift from partial updates.
type VoiceProfile struct {
	LexicalSignature              LexicalSignature       `json:"lexical_signature"`
	StructuralSignature           StructuralSignature    `json:"structural_signature"`
	PerformanceCorrelatedPatterns map[string]PatternLift `json:"performance_correlated_patterns"`
	SampleCount                   int                    `json:"sample_count"`
	LastUpdatedAt                 time.Time              `json:"last_updated_at"`
}

// Trained reports whether the profile was learned from at least one sample.
func (p VoiceProfile) Trained() bool { return p.SampleCount > 0 }

// VoiceScore rates a candidate text against a learned profile along four
// named dimensions, each in [0,100]. No combined score is produced; callers
// weight the dimensions as needed. Untrained is set when the profile had no
// samples and all dimensions defaulted to neutral 50.
type VoiceScore struct {
	Authenticity        int  `json:"authenticity"`
	Authority           int  `json:"authority"`
	Vulnerability       int  `json:"vulnerability"`
	EngagementPotential int  `json:"engagement_potential"`
	Untrained           bool `json:"untrained,omitempty"`
}
