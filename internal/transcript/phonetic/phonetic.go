// Package phonetic matches misrecognized words against a known vocabulary
// using Double Metaphone codes ranked by Jaro-Winkler similarity.
//
// The matcher runs in two stages. Words that share a phonetic code with a
// vocabulary term are candidates and accepted at a moderate similarity
// threshold; when no phonetic candidate exists, a stricter pure-similarity
// fallback catches typo-like misrecognitions that sound nothing alike.
package phonetic

import (
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	defaultPhoneticThreshold = 0.70
	defaultFuzzyThreshold    = 0.85
)

// Option is a functional option for configuring a [Matcher].
type Option func(*Matcher)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score required for a
// phonetically matched term to be accepted. Default: 0.70.
func WithPhoneticThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.phoneticThreshold = threshold
	}
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score required when no
// phonetic match is found and the matcher falls back to pure string
// similarity. Default: 0.85.
func WithFuzzyThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.fuzzyThreshold = threshold
	}
}

// Matcher aligns words with a vocabulary by sound. All methods are safe for
// concurrent use; the Matcher is read-only after construction.
type Matcher struct {
	phoneticThreshold float64
	fuzzyThreshold    float64
}

// New returns a new [Matcher] configured with the supplied options.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Match returns the vocabulary term most phonetically similar to word. When
// matched is false, corrected equals word unchanged and confidence is 0.
//
// Multi-word terms are supported: a single token can match against any token
// of a term, with similarity ranked on the full strings.
func (m *Matcher) Match(word string, terms []string) (corrected string, confidence float64, matched bool) {
	wordLower := strings.ToLower(strings.TrimSpace(word))
	if wordLower == "" || len(terms) == 0 {
		return word, 0, false
	}
	inputCodes := codesForTokens(strings.Fields(wordLower))

	var bestTerm string
	var bestScore float64
	var bestPhonetic bool

	for _, term := range terms {
		termLower := strings.ToLower(strings.TrimSpace(term))
		if termLower == "" {
			continue
		}

		termCodes := codesForTokens(strings.Fields(termLower))
		phoneticHit := codesOverlap(inputCodes, termCodes)
		score := matchr.JaroWinkler(wordLower, termLower, true)

		// Phonetic hits rank ahead of plain similarity at equal score.
		if score > bestScore || (score == bestScore && phoneticHit && !bestPhonetic) {
			bestTerm = term
			bestScore = score
			bestPhonetic = phoneticHit
		}
	}

	if bestTerm == "" {
		return word, 0, false
	}
	threshold := m.fuzzyThreshold
	if bestPhonetic {
		threshold = m.phoneticThreshold
	}
	if bestScore < threshold {
		return word, 0, false
	}
	return bestTerm, bestScore, true
}

// codesForTokens computes the set of Double Metaphone codes across tokens.
func codesForTokens(tokens []string) map[string]struct{} {
	codes := make(map[string]struct{}, len(tokens)*2)
	for _, tok := range tokens {
		primary, secondary := matchr.DoubleMetaphone(tok)
		if primary != "" {
			codes[primary] = struct{}{}
		}
		if secondary != "" {
			codes[secondary] = struct{}{}
		}
	}
	return codes
}

func codesOverlap(a, b map[string]struct{}) bool {
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}
