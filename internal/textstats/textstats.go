// Package textstats extracts the lexical and structural features the
// analyzer, voice learner, and batch tier pass all share: word counts,
// engagement trigger flags, openings, and paragraph shape. Pure functions,
// deterministic, no I/O.
package textstats

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	wordRegex    = regexp.MustCompile(`[A-Za-z0-9']+`)
	hashtagRegex = regexp.MustCompile(`#\w+`)
	// Bullet or numbered list markers at line start
	listRegex = regexp.MustCompile(`(?m)^\s*([-*•]|\d+[.)])\s+`)
)

// storyMarkers are first-person narrative cues. A post "tells a story" when
// it pairs one of these with past-tense framing.
var storyMarkers = []string{
	"i remember", "years ago", "when i", "i learned", "my first",
	"i used to", "back then", "i once", "true story", "i realized",
}

// ctaMarkers are direct-ask phrases that invite the reader to act.
var ctaMarkers = []string{
	"comment below", "let me know", "share this", "follow me", "dm me",
	"sign up", "join us", "check out", "link in", "what do you think",
	"tag someone", "repost if", "subscribe",
}

// disclosureMarkers are first-person vulnerability cues used by the voice
// scorer's vulnerability dimension.
var disclosureMarkers = []string{
	"i failed", "i was wrong", "i struggled", "my mistake", "i'm not proud",
	"honestly", "i have to admit", "hardest part", "i was scared",
	"imposter", "burned out", "burnout",
}

// WordCount returns the number of word tokens in text.
func WordCount(text string) int {
	return len(wordRegex.FindAllString(text, -1))
}

// SentenceLengths returns the word count of each sentence. Sentences are
// split on terminal punctuation; empty fragments are dropped.
func SentenceLengths(text string) []int {
	var lengths []int
	for _, s := range splitSentences(text) {
		if n := WordCount(s); n > 0 {
			lengths = append(lengths, n)
		}
	}
	return lengths
}

func splitSentences(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})
}

// HasQuestion reports whether the text asks the reader anything.
func HasQuestion(text string) bool {
	return strings.Contains(text, "?")
}

// HasStory reports whether the text carries first-person narrative cues.
func HasStory(text string) bool {
	lower := strings.ToLower(text)
	for _, m := range storyMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// HasCallToAction reports whether the text directly asks the reader to act.
func HasCallToAction(text string) bool {
	lower := strings.ToLower(text)
	for _, m := range ctaMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// DisclosureCount counts first-person vulnerability cues in the text.
func DisclosureCount(text string) int {
	lower := strings.ToLower(text)
	n := 0
	for _, m := range disclosureMarkers {
		if strings.Contains(lower, m) {
			n++
		}
	}
	return n
}

// Opening returns the first n words of the text, used as a candidate hook.
func Opening(text string, n int) string {
	words := wordRegex.FindAllString(text, -1)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

// Paragraphs returns the non-empty paragraphs of the text.
func Paragraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

// HasList reports whether the text contains bullet or numbered list lines.
func HasList(text string) bool {
	return listRegex.MatchString(text)
}

// EmojiCount counts emoji-range runes in the text.
func EmojiCount(text string) int {
	n := 0
	for _, r := range text {
		if isEmoji(r) {
			n++
		}
	}
	return n
}

func isEmoji(r rune) bool {
	switch {
	case r >= 0x1F300 && r <= 0x1FAFF: // pictographs, transport, supplemental
		return true
	case r >= 0x2600 && r <= 0x27BF: // misc symbols, dingbats
		return true
	case r == 0x2764: // heavy heart
		return true
	default:
		return false
	}
}

// HashtagCount counts #tag occurrences.
func HashtagCount(text string) int {
	return len(hashtagRegex.FindAllString(text, -1))
}

// Terms returns lowercased word tokens with stopwords and single
// characters removed, preserving order.
func Terms(text string) []string {
	var out []string
	for _, tok := range wordRegex.FindAllString(strings.ToLower(text), -1) {
		if len(tok) > 1 && !stopwords[tok] && !allDigits(tok) {
			out = append(out, tok)
		}
	}
	return out
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

var stopwords = map[string]bool{
	"about": true, "after": true, "all": true, "also": true, "an": true,
	"and": true, "any": true, "are": true, "as": true, "at": true, "be": true,
	"because": true, "been": true, "but": true, "by": true, "can": true,
	"do": true, "don't": true, "for": true, "from": true, "get": true,
	"had": true, "has": true, "have": true, "he": true, "her": true,
	"his": true, "how": true, "if": true, "in": true, "into": true,
	"is": true, "it": true, "it's": true, "its": true, "just": true,
	"like": true, "me": true, "more": true, "most": true, "my": true,
	"no": true, "not": true, "of": true, "on": true, "one": true, "or": true,
	"our": true, "out": true, "she": true, "so": true, "some": true,
	"than": true, "that": true, "the": true, "their": true, "them": true,
	"then": true, "there": true, "these": true, "they": true, "this": true,
	"to": true, "up": true, "was": true, "we": true, "were": true,
	"what": true, "when": true, "which": true, "who": true, "will": true,
	"with": true, "you": true, "your": true,
}
