package voice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/outreach-engine/internal/config"
	"github.com/ignite/outreach-engine/internal/domain"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestLearner() *Learner {
	return NewLearner(config.VoiceConfig{
		CommentWeight:       0.3,
		RecencyHalfLifeDays: 180,
	}, WithClock(func() time.Time { return testNow }))
}

func voicePost(id, text string, viralScore float64, postedAt time.Time) domain.HistoricalPost {
	return domain.HistoricalPost{
		ID:       id,
		Text:     text,
		PostedAt: postedAt,
		DerivedMetrics: domain.DerivedMetrics{
			ViralScore:  viralScore,
			HasQuestion: false,
		},
	}
}

func TestLearnEmptyCorpus(t *testing.T) {
	profile := newTestLearner().Learn(nil, nil)

	assert.Equal(t, 0, profile.SampleCount)
	assert.False(t, profile.Trained())
	assert.Empty(t, profile.PerformanceCorrelatedPatterns)
}

func TestLearnIsDeterministic(t *testing.T) {
	posts := []domain.HistoricalPost{
		voicePost("p1", "Hiring great engineers takes patience. What do you look for?", 70, testNow.AddDate(0, -1, 0)),
		voicePost("p2", "Culture eats strategy for breakfast.\n\n- hire slow\n- fire fast", 40, testNow.AddDate(0, -3, 0)),
		voicePost("p3", "I learned this lesson about leadership the hard way.", 85, testNow.AddDate(0, -6, 0)),
	}
	comments := []domain.Comment{
		{ID: "c1", Text: "Completely agree, culture is everything.", PostedAt: testNow.AddDate(0, -2, 0)},
	}

	l := newTestLearner()
	first := l.Learn(posts, comments)
	second := l.Learn(posts, comments)

	assert.Equal(t, first, second, "re-learning an unchanged corpus must reproduce the profile exactly")
	assert.Equal(t, 4, first.SampleCount)
}

func TestCommentsCarryReducedWeight(t *testing.T) {
	// One post without a question (weight 1.0), one comment with a question
	// (weight 0.3): the question rate must reflect the weighting, not a
	// simple average.
	posts := []domain.HistoricalPost{
		voicePost("p1", "Shipping beats polishing.", 50, testNow),
	}
	comments := []domain.Comment{
		{ID: "c1", Text: "Have you tried pairing on it?", PostedAt: testNow},
	}

	profile := newTestLearner().Learn(posts, comments)

	assert.InDelta(t, 0.3/1.3, profile.StructuralSignature.QuestionUsageRate, 1e-3)
}

func TestRecencyDecayHalvesOldContent(t *testing.T) {
	// A post exactly one half-life old carries weight 0.5.
	posts := []domain.HistoricalPost{
		voicePost("new", "Plain statement today.", 50, testNow),
		voicePost("old", "Does anyone else see this?", 50, testNow.Add(-180*24*time.Hour)),
	}

	profile := newTestLearner().Learn(posts, nil)

	assert.InDelta(t, 0.5/1.5, profile.StructuralSignature.QuestionUsageRate, 1e-3)
}

func TestLexicalSignatureCommonWords(t *testing.T) {
	posts := []domain.HistoricalPost{
		voicePost("p1", "Leadership is about listening. Leadership compounds.", 50, testNow),
		voicePost("p2", "Good leadership starts with listening.", 50, testNow),
	}

	profile := newTestLearner().Learn(posts, nil)

	require.NotEmpty(t, profile.LexicalSignature.CommonWords)
	assert.Equal(t, "leadership", profile.LexicalSignature.CommonWords[0])
	assert.Contains(t, profile.LexicalSignature.CommonWords, "listening")
	assert.Positive(t, profile.LexicalSignature.AvgSentenceLength)
}

func TestCorrelatedPatternsRequireContrast(t *testing.T) {
	q1 := voicePost("q1", "What would you change first?", 80, testNow)
	q1.DerivedMetrics.HasQuestion = true
	q2 := voicePost("q2", "Which metric matters most?", 60, testNow)
	q2.DerivedMetrics.HasQuestion = true
	plain := voicePost("p1", "Notes from this week.", 20, testNow)

	profile := newTestLearner().Learn([]domain.HistoricalPost{q1, q2, plain}, nil)

	lift, ok := profile.PerformanceCorrelatedPatterns[PatternQuestion]
	require.True(t, ok)
	// avg(with)=70, avg(without)=20: lift 2.5
	assert.InDelta(t, 2.5, lift.LiftScore, 1e-9)

	_, ok = profile.PerformanceCorrelatedPatterns[PatternEmoji]
	assert.False(t, ok, "a pattern absent from every post has no contrast to measure")
}

func TestScoreTextUntrainedProfile(t *testing.T) {
	score := newTestLearner().ScoreText("Anything at all.", domain.VoiceProfile{})

	assert.True(t, score.Untrained)
	assert.Equal(t, neutralScore, score.Authenticity)
	assert.Equal(t, neutralScore, score.Authority)
	assert.Equal(t, neutralScore, score.Vulnerability)
	assert.Equal(t, neutralScore, score.EngagementPotential)
}

func TestScoreTextAuthenticityTracksVoice(t *testing.T) {
	posts := []domain.HistoricalPost{
		voicePost("p1", "Hiring engineers well means interviewing for curiosity.", 50, testNow),
		voicePost("p2", "Our hiring process rewards curiosity over credentials.", 50, testNow),
	}
	l := newTestLearner()
	profile := l.Learn(posts, nil)

	onVoice := l.ScoreText("Hiring for curiosity changed how our engineers interview.", profile)
	offVoice := l.ScoreText("Crypto gains!!! 🚀🚀🚀 #moon #lambo #hodl", profile)

	assert.Greater(t, onVoice.Authenticity, offVoice.Authenticity)
	assert.False(t, onVoice.Untrained)
}

func TestScoreTextVulnerabilityTiers(t *testing.T) {
	l := newTestLearner()
	profile := l.Learn([]domain.HistoricalPost{voicePost("p1", "baseline post", 50, testNow)}, nil)

	open := l.ScoreText("Honestly, I failed at this and I was wrong for years.", profile)
	guarded := l.ScoreText("Ten productivity tips for busy managers.", profile)

	assert.GreaterOrEqual(t, open.Vulnerability, 90)
	assert.LessOrEqual(t, guarded.Vulnerability, 20)
}

func TestScoreTextEngagementUsesLearnedLifts(t *testing.T) {
	l := newTestLearner()
	profile := domain.VoiceProfile{
		SampleCount: 5,
		PerformanceCorrelatedPatterns: map[string]domain.PatternLift{
			PatternQuestion: {LiftScore: 0.8},
		},
	}

	withQuestion := l.ScoreText("Is this the best way to run standups?", profile)
	without := l.ScoreText("Standup notes for the week.", profile)

	// 35 baseline + 40*0.8 lift + 10 question hook
	assert.Equal(t, 77, withQuestion.EngagementPotential)
	assert.Equal(t, 35, without.EngagementPotential)
}
