package voice

import (
	"math"

	"github.com/ignite/outreach-engine/internal/domain"
	"github.com/ignite/outreach-engine/internal/textstats"
)

const neutralScore = 50

// textFeatures is everything the scorer extracts from a candidate text.
type textFeatures struct {
	wordCount       int
	avgSentenceLen  float64
	emojiRate       float64
	hashtagRate     float64
	terms           map[string]bool
	disclosures     int
	hasQuestion     bool
	hasList         bool
	hasStory        bool
	hasCallToAction bool
}

func extractFeatures(text string) textFeatures {
	f := textFeatures{
		wordCount:       textstats.WordCount(text),
		disclosures:     textstats.DisclosureCount(text),
		hasQuestion:     textstats.HasQuestion(text),
		hasList:         textstats.HasList(text),
		hasStory:        textstats.HasStory(text),
		hasCallToAction: textstats.HasCallToAction(text),
		terms:           map[string]bool{},
	}
	if lengths := textstats.SentenceLengths(text); len(lengths) > 0 {
		sum := 0
		for _, n := range lengths {
			sum += n
		}
		f.avgSentenceLen = float64(sum) / float64(len(lengths))
	}
	if f.wordCount > 0 {
		f.emojiRate = float64(textstats.EmojiCount(text)) / float64(f.wordCount)
		f.hashtagRate = float64(textstats.HashtagCount(text)) / float64(f.wordCount)
	}
	for _, term := range textstats.Terms(text) {
		f.terms[term] = true
	}
	return f
}

// ScoreText rates a candidate text against the profile along four [0,100]
// dimensions. A profile with no samples cannot anchor any comparison, so
// every dimension returns neutral 50 with Untrained set rather than a
// misleadingly precise number.
func (l *Learner) ScoreText(text string, profile domain.VoiceProfile) domain.VoiceScore {
	if !profile.Trained() {
		return domain.VoiceScore{
			Authenticity:        neutralScore,
			Authority:           neutralScore,
			Vulnerability:       neutralScore,
			EngagementPotential: neutralScore,
			Untrained:           true,
		}
	}

	f := extractFeatures(text)
	return domain.VoiceScore{
		Authenticity:        authenticityScore(f, profile),
		Authority:           authorityScore(f, profile),
		Vulnerability:       vulnerabilityScore(f),
		EngagementPotential: engagementScore(f, profile),
	}
}

// authenticityScore measures how closely the text matches the learned
// lexical habits: shared vocabulary, sentence rhythm, emoji and hashtag
// usage.
func authenticityScore(f textFeatures, profile domain.VoiceProfile) int {
	lex := profile.LexicalSignature

	vocab := 0.5
	if len(lex.CommonWords) > 0 {
		hits := 0
		for _, w := range lex.CommonWords {
			if f.terms[w] {
				hits++
			}
		}
		vocab = float64(hits) / float64(len(lex.CommonWords))
	}

	score := 0.4*vocab +
		0.3*closeness(f.avgSentenceLen, lex.AvgSentenceLength) +
		0.15*closeness(f.emojiRate, lex.EmojiRate) +
		0.15*closeness(f.hashtagRate, lex.HashtagRate)
	return clampScore(100 * score)
}

// authorityScore rewards substance and composure: enough words to say
// something, sentence rhythm consistent with the learned voice, structure
// that matches the account's habits, and lived-experience framing.
func authorityScore(f textFeatures, profile domain.VoiceProfile) int {
	score := 20.0

	if f.wordCount >= 50 {
		score += 25
	} else {
		score += float64(f.wordCount) / 50 * 25
	}

	score += 25 * closeness(f.avgSentenceLen, profile.LexicalSignature.AvgSentenceLength)

	usesLists := profile.StructuralSignature.ListUsageRate >= 0.3
	if f.hasList == usesLists {
		score += 15
	}

	if f.hasStory {
		score += 15
	}
	return clampScore(score)
}

// vulnerabilityScore is driven by first-person disclosure cues, with
// narrative framing as a secondary signal.
func vulnerabilityScore(f textFeatures) int {
	var score float64
	switch {
	case f.disclosures >= 3:
		score = 90
	case f.disclosures == 2:
		score = 75
	case f.disclosures == 1:
		score = 55
	default:
		score = 15
	}
	if f.hasStory {
		score += 10
	}
	return clampScore(score)
}

// engagementScore starts from a modest baseline and adds the lifts of the
// performance-correlated patterns the text actually carries, plus direct
// reader-engagement hooks.
func engagementScore(f textFeatures, profile domain.VoiceProfile) int {
	present := map[string]bool{
		PatternQuestion:     f.hasQuestion,
		PatternStory:        f.hasStory,
		PatternCallToAction: f.hasCallToAction,
		PatternList:         f.hasList,
		PatternEmoji:        f.emojiRate > 0,
		PatternHashtag:      f.hashtagRate > 0,
	}

	var liftSum float64
	for name, pl := range profile.PerformanceCorrelatedPatterns {
		if pl.LiftScore > 0 && present[name] {
			liftSum += pl.LiftScore
		}
	}
	if liftSum > 1 {
		liftSum = 1
	}

	score := 35 + 40*liftSum
	if f.hasQuestion {
		score += 10
	}
	if f.hasCallToAction {
		score += 10
	}
	return clampScore(score)
}

// closeness maps two non-negative rates to [0,1]: 1 when equal, falling
// toward 0 as they diverge relative to the larger of the two.
func closeness(a, b float64) float64 {
	if a == b {
		return 1
	}
	larger := math.Max(a, b)
	if larger == 0 {
		return 1
	}
	c := 1 - math.Abs(a-b)/larger
	if c < 0 {
		return 0
	}
	return c
}

func clampScore(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(math.Round(v))
}
