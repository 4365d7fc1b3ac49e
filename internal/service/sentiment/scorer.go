package sentiment

import (
	"strings"
	"unicode"
)

// LexiconScorer scores text polarity with a weighted word lexicon. Scores
// are in [-1, 1]; 0 means neutral or no lexicon hits. Negators within two
// tokens of a hit flip its sign, intensifiers scale it.
type LexiconScorer struct {
	weights      map[string]float64
	negators     map[string]struct{}
	intensifiers map[string]float64
}

// NewLexiconScorer creates a scorer with the built-in crypto-flavored
// lexicon.
func NewLexiconScorer() *LexiconScorer {
	return &LexiconScorer{
		weights:      defaultWeights,
		negators:     defaultNegators,
		intensifiers: defaultIntensifiers,
	}
}

// Score returns the mean signed weight of lexicon hits in text, adjusted
// for negation and intensity, clamped to [-1, 1].
func (s *LexiconScorer) Score(text string) float64 {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return 0
	}

	var sum float64
	hits := 0
	for i, tok := range tokens {
		w, ok := s.weights[tok]
		if !ok {
			continue
		}

		mult := 1.0
		for j := max(0, i-2); j < i; j++ {
			if _, neg := s.negators[tokens[j]]; neg {
				mult = -mult
			}
			if boost, ok := s.intensifiers[tokens[j]]; ok {
				mult *= boost
			}
		}

		sum += w * mult
		hits++
	}
	if hits == 0 {
		return 0
	}

	score := sum / float64(hits)
	return clamp(score, -1, 1)
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
