package similarity

import (
	"context"
	"regexp"
	"strings"
)

// KeywordProvider scores similarity as stopword-filtered token overlap
// (Jaccard index over unique terms). It needs no network, never fails, and
// serves two roles: the degraded path when the embedding provider is
// exhausted, and the default provider when no API key is configured.
type KeywordProvider struct{}

// NewKeywordProvider creates the keyword-overlap fallback provider.
func NewKeywordProvider() *KeywordProvider { return &KeywordProvider{} }

// Name identifies this provider in warnings and cache metadata.
func (p *KeywordProvider) Name() string { return "keyword-overlap" }

var tokenRegex = regexp.MustCompile(`[a-z0-9']+`)

// stopwords excluded from overlap so that function words don't inflate
// similarity between unrelated posts.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "but": true, "by": true, "for": true, "from": true, "has": true,
	"have": true, "i": true, "if": true, "in": true, "is": true, "it": true,
	"its": true, "my": true, "not": true, "of": true, "on": true, "or": true,
	"our": true, "so": true, "that": true, "the": true, "their": true,
	"there": true, "they": true, "this": true, "to": true, "was": true,
	"we": true, "were": true, "what": true, "when": true, "which": true,
	"who": true, "will": true, "with": true, "you": true, "your": true,
}

// Similarities computes the Jaccard overlap between the query's term set
// and each candidate's term set.
func (p *KeywordProvider) Similarities(ctx context.Context, query string, candidates []string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	queryTerms := termSet(query)
	scores := make([]float64, len(candidates))
	for i, c := range candidates {
		scores[i] = jaccard(queryTerms, termSet(c))
	}
	return scores, nil
}

func termSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range tokenRegex.FindAllString(strings.ToLower(text), -1) {
		if len(tok) > 1 && !stopwords[tok] {
			set[tok] = true
		}
	}
	return set
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for term := range a {
		if b[term] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
