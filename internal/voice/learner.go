// Package voice derives a voice profile (lexical/structural signature plus
// performance-correlated patterns) from an account's historical posts and
// comments, and scores new draft text against that profile.
package voice

import (
	"math"
	"sort"
	"time"

	"github.com/ignite/outreach-engine/internal/config"
	"github.com/ignite/outreach-engine/internal/domain"
	"github.com/ignite/outreach-engine/internal/textstats"
)

const topCommonWords = 10

// Pattern identifiers for performance-correlated patterns. The analyzer's
// trigger names are reused where the concepts coincide so downstream
// consumers see one vocabulary.
const (
	PatternQuestion     = "question"
	PatternStory        = "story"
	PatternCallToAction = "call_to_action"
	PatternList         = "list"
	PatternEmoji        = "emoji"
	PatternHashtag      = "hashtag"
)

// Learner builds voice profiles. Posts carry full training weight; comments
// carry a reduced weight because they are less representative of deliberate
// voice. Older content decays by half per configured half-life.
type Learner struct {
	commentWeight   float64
	recencyHalfLife time.Duration
	now             func() time.Time
}

// Option configures a Learner.
type Option func(*Learner)

// WithClock overrides the time source used for recency decay.
func WithClock(now func() time.Time) Option {
	return func(l *Learner) { l.now = now }
}

// NewLearner creates a learner from the voice tunables.
func NewLearner(cfg config.VoiceConfig, opts ...Option) *Learner {
	l := &Learner{
		commentWeight:   cfg.CommentWeight,
		recencyHalfLife: time.Duration(cfg.RecencyHalfLifeDays) * 24 * time.Hour,
		now:             time.Now,
	}
	if l.commentWeight <= 0 {
		l.commentWeight = 0.3
	}
	if l.recencyHalfLife <= 0 {
		l.recencyHalfLife = 180 * 24 * time.Hour
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// trainingItem is one weighted sample: a post or a comment.
type trainingItem struct {
	text   string
	weight float64
}

// Learn derives a voice profile from the corpus. Deterministic for a fixed
// corpus and clock. An empty corpus yields a zero-sample profile with
// default signatures; callers detect this via Trained().
func (l *Learner) Learn(posts []domain.HistoricalPost, comments []domain.Comment) domain.VoiceProfile {
	now := l.now()
	profile := domain.VoiceProfile{
		PerformanceCorrelatedPatterns: map[string]domain.PatternLift{},
		LastUpdatedAt:                 now,
	}

	items := make([]trainingItem, 0, len(posts)+len(comments))
	for _, p := range posts {
		items = append(items, trainingItem{
			text:   p.Text,
			weight: l.decay(now, p.PostedAt),
		})
	}
	for _, c := range comments {
		items = append(items, trainingItem{
			text:   c.Text,
			weight: l.commentWeight * l.decay(now, c.PostedAt),
		})
	}

	profile.SampleCount = len(items)
	if len(items) == 0 {
		return profile
	}

	profile.LexicalSignature = l.lexicalSignature(items)
	profile.StructuralSignature = l.structuralSignature(items)
	profile.PerformanceCorrelatedPatterns = correlatePatterns(posts)
	return profile
}

// decay returns the recency weight for content of the given age:
// 0.5^(age/halfLife), floored so ancient content never vanishes entirely.
func (l *Learner) decay(now, postedAt time.Time) float64 {
	age := now.Sub(postedAt)
	if age <= 0 {
		return 1
	}
	w := math.Pow(0.5, age.Hours()/l.recencyHalfLife.Hours())
	if w < 0.05 {
		w = 0.05
	}
	return w
}

func (l *Learner) lexicalSignature(items []trainingItem) domain.LexicalSignature {
	var totalWeight, sentenceSum, emojiSum, hashtagSum float64
	termWeights := make(map[string]float64)

	for _, item := range items {
		w := item.weight
		totalWeight += w

		if lengths := textstats.SentenceLengths(item.text); len(lengths) > 0 {
			sum := 0
			for _, n := range lengths {
				sum += n
			}
			sentenceSum += w * float64(sum) / float64(len(lengths))
		}

		words := textstats.WordCount(item.text)
		if words > 0 {
			emojiSum += w * float64(textstats.EmojiCount(item.text)) / float64(words)
			hashtagSum += w * float64(textstats.HashtagCount(item.text)) / float64(words)
		}

		for _, term := range textstats.Terms(item.text) {
			termWeights[term] += w
		}
	}

	return domain.LexicalSignature{
		CommonWords:       topTerms(termWeights, topCommonWords),
		AvgSentenceLength: round2(sentenceSum / totalWeight),
		EmojiRate:         round4(emojiSum / totalWeight),
		HashtagRate:       round4(hashtagSum / totalWeight),
	}
}

func (l *Learner) structuralSignature(items []trainingItem) domain.StructuralSignature {
	var totalWeight, listSum, questionSum float64
	paragraphWeights := make(map[string]float64)

	for _, item := range items {
		w := item.weight
		totalWeight += w
		if textstats.HasList(item.text) {
			listSum += w
		}
		if textstats.HasQuestion(item.text) {
			questionSum += w
		}
		paragraphWeights[paragraphLabel(item.text)] += w
	}

	return domain.StructuralSignature{
		ParagraphPatterns: topTerms(paragraphWeights, 3),
		ListUsageRate:     round4(listSum / totalWeight),
		QuestionUsageRate: round4(questionSum / totalWeight),
	}
}

// paragraphLabel classifies a text's paragraph shape.
func paragraphLabel(text string) string {
	paragraphs := textstats.Paragraphs(text)
	switch {
	case len(paragraphs) <= 1:
		return "single-block"
	case avgParagraphWords(paragraphs) < 30:
		return "short-paragraphs"
	default:
		return "multi-paragraph"
	}
}

func avgParagraphWords(paragraphs []string) float64 {
	total := 0
	for _, p := range paragraphs {
		total += textstats.WordCount(p)
	}
	return float64(total) / float64(len(paragraphs))
}

// correlatePatterns measures, over posts only, how each pattern's presence
// lifted viral score relative to its absence. Comments carry no performance
// signal and are excluded. A pattern with no contrast (present in all posts
// or none) is omitted.
func correlatePatterns(posts []domain.HistoricalPost) map[string]domain.PatternLift {
	detectors := map[string]func(domain.HistoricalPost) bool{
		PatternQuestion:     func(p domain.HistoricalPost) bool { return p.DerivedMetrics.HasQuestion },
		PatternStory:        func(p domain.HistoricalPost) bool { return p.DerivedMetrics.HasStory },
		PatternCallToAction: func(p domain.HistoricalPost) bool { return p.DerivedMetrics.HasCallToAction },
		PatternList:         func(p domain.HistoricalPost) bool { return textstats.HasList(p.Text) },
		PatternEmoji:        func(p domain.HistoricalPost) bool { return textstats.EmojiCount(p.Text) > 0 },
		PatternHashtag:      func(p domain.HistoricalPost) bool { return textstats.HashtagCount(p.Text) > 0 },
	}

	out := make(map[string]domain.PatternLift)
	for name, detect := range detectors {
		var withSum, withoutSum float64
		withN, withoutN := 0, 0
		for _, p := range posts {
			if detect(p) {
				withSum += p.DerivedMetrics.ViralScore
				withN++
			} else {
				withoutSum += p.DerivedMetrics.ViralScore
				withoutN++
			}
		}
		if withN == 0 || withoutN == 0 {
			continue
		}
		withAvg := withSum / float64(withN)
		withoutAvg := withoutSum / float64(withoutN)
		var lift float64
		switch {
		case withoutAvg > 0:
			lift = withAvg/withoutAvg - 1
		case withAvg > 0:
			lift = 1
		}
		out[name] = domain.PatternLift{LiftScore: round2(lift)}
	}
	return out
}

// topTerms returns the n highest-weighted keys, weight descending with name
// as tiebreak for determinism.
func topTerms(weights map[string]float64, n int) []string {
	names := make([]string, 0, len(weights))
	for name := range weights {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if weights[names[i]] != weights[names[j]] {
			return weights[names[i]] > weights[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
