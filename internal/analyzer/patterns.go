package analyzer

import (
	"math"
	"sort"
	"strings"

	"github.com/ignite/outreach-engine/internal/domain"
	"github.com/ignite/outreach-engine/internal/textstats"
)

// Engagement trigger names shared between pattern summaries, predictions,
// and the voice learner's correlated patterns.
const (
	TriggerQuestion     = "question"
	TriggerStory        = "story"
	TriggerCallToAction = "call_to_action"
)

// deriveSummary aggregates the structural patterns of a match set. The
// output is deterministic: every ranked list is ordered by frequency or
// lift with name as the final tiebreak.
func deriveSummary(matches []domain.SimilarityMatch) domain.PatternSummary {
	if len(matches) == 0 {
		return domain.PatternSummary{}
	}

	var summary domain.PatternSummary

	totalWords := 0
	structureFreq := make(map[string]int)
	for _, m := range matches {
		totalWords += m.Post.DerivedMetrics.WordCount
		summary.CommonOpenings = append(summary.CommonOpenings, textstats.Opening(m.Post.Text, openingWords))
		structureFreq[formatLabel(m.Post)]++
	}
	summary.AvgWordCount = float64(totalWords) / float64(len(matches))
	summary.CommonStructures = rankByFreq(structureFreq)

	// Best formats: structures of the matches at or above the set's median
	// reactions, so "what worked" rather than "what's common"
	median := medianReactions(matches)
	bestFreq := make(map[string]int)
	for _, m := range matches {
		if m.Post.Engagement.TotalReactions >= median {
			bestFreq[formatLabel(m.Post)]++
		}
	}
	summary.BestPerformingFormats = rankByFreq(bestFreq)

	summary.EngagementTriggers = rankTriggers(triggerLifts(matches))

	return summary
}

// formatLabel describes a post's structural shape in the vocabulary the
// pattern summary uses.
func formatLabel(post domain.HistoricalPost) string {
	switch {
	case post.DerivedMetrics.HasStory:
		return "story"
	case textstats.HasList(post.Text):
		return "list"
	case post.DerivedMetrics.WordCount < 60:
		return "short-form"
	case post.DerivedMetrics.WordCount >= 250:
		return "long-form"
	case len(textstats.Paragraphs(post.Text)) > 2:
		return "multi-paragraph"
	default:
		return "standard"
	}
}

func rankByFreq(freq map[string]int) []string {
	names := make([]string, 0, len(freq))
	for name := range freq {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if freq[names[i]] != freq[names[j]] {
			return freq[names[i]] > freq[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

func medianReactions(matches []domain.SimilarityMatch) int {
	reactions := make([]int, len(matches))
	for i, m := range matches {
		reactions[i] = m.Post.Engagement.TotalReactions
	}
	sort.Ints(reactions)
	return reactions[len(reactions)/2]
}

// triggerLifts measures, within the match set, how much each trigger's
// presence lifted average reactions over its absence. Lift is
// avg(with)/avg(without) - 1; a trigger present in every match (or none)
// has no contrast and reports zero lift.
func triggerLifts(matches []domain.SimilarityMatch) map[string]float64 {
	lifts := make(map[string]float64, 3)
	for name, present := range map[string]func(domain.DerivedMetrics) bool{
		TriggerQuestion:     func(d domain.DerivedMetrics) bool { return d.HasQuestion },
		TriggerStory:        func(d domain.DerivedMetrics) bool { return d.HasStory },
		TriggerCallToAction: func(d domain.DerivedMetrics) bool { return d.HasCallToAction },
	} {
		lifts[name] = liftFor(matches, present)
	}
	return lifts
}

func liftFor(matches []domain.SimilarityMatch, present func(domain.DerivedMetrics) bool) float64 {
	var withSum, withoutSum float64
	withN, withoutN := 0, 0
	for _, m := range matches {
		if present(m.Post.DerivedMetrics) {
			withSum += float64(m.Post.Engagement.TotalReactions)
			withN++
		} else {
			withoutSum += float64(m.Post.Engagement.TotalReactions)
			withoutN++
		}
	}
	if withN == 0 || withoutN == 0 {
		return 0
	}
	withAvg := withSum / float64(withN)
	withoutAvg := withoutSum / float64(withoutN)
	if withoutAvg == 0 {
		if withAvg > 0 {
			return 1
		}
		return 0
	}
	return withAvg/withoutAvg - 1
}

// rankTriggers orders triggers that appeared with positive lift, strongest
// first, name as tiebreak.
func rankTriggers(lifts map[string]float64) []string {
	var names []string
	for name, lift := range lifts {
		if lift > 0 {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		if lifts[names[i]] != lifts[names[j]] {
			return lifts[names[i]] > lifts[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

// topicTriggers guesses which triggers a topic is likely to support. This
// is a wording heuristic, not model inference: a topic phrased as a
// question supports the question trigger, and so on.
func topicTriggers(topic string) map[string]bool {
	lower := strings.ToLower(topic)
	supported := make(map[string]bool, 3)
	if strings.Contains(lower, "?") || strings.HasPrefix(lower, "how") ||
		strings.HasPrefix(lower, "why") || strings.HasPrefix(lower, "what") {
		supported[TriggerQuestion] = true
	}
	for _, cue := range []string{"story", "journey", "lesson", "learned", "mistake", "experience"} {
		if strings.Contains(lower, cue) {
			supported[TriggerStory] = true
			break
		}
	}
	for _, cue := range []string{"join", "sign up", "try", "should", "start", "stop"} {
		if strings.Contains(lower, cue) {
			supported[TriggerCallToAction] = true
			break
		}
	}
	return supported
}

// predict estimates engagement for new content on the topic: corpus-wide
// baseline adjusted by the lifts of the triggers the topic is likely to
// support. Confidence reflects how many precedents backed the estimate.
func predict(topic string, corpus []domain.HistoricalPost, matches []domain.SimilarityMatch) domain.PerformancePrediction {
	var baseline float64
	for _, p := range corpus {
		baseline += float64(p.Engagement.TotalReactions)
	}
	baseline /= float64(len(corpus))

	lifts := triggerLifts(matches)
	supported := topicTriggers(topic)
	var lift float64
	for name := range supported {
		lift += lifts[name]
	}

	expected := baseline * (1 + lift)
	if expected < 0 {
		expected = 0
	}

	return domain.PerformancePrediction{
		ExpectedReactions: round2(expected),
		Baseline:          round2(baseline),
		TriggerLift:       round2(lift),
		Confidence:        confidenceFor(len(matches)),
	}
}

// confidenceFor maps match count to a confidence label: <3 low, 3..7
// medium, >7 high.
func confidenceFor(matchCount int) domain.Confidence {
	switch {
	case matchCount < 3:
		return domain.ConfidenceLow
	case matchCount <= 7:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceHigh
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
