package tokenizer

import "github.com/agext/levenshtein"

// maxCorrectionDistance bounds how far a candidate may drift from the
// input word before it is rejected as an unrelated vocabulary entry
// rather than a typo of it.
const maxCorrectionDistance = 2

// spellCorrect returns the closest vocabulary entry to word by edit
// distance, or word unchanged if no candidate is within
// maxCorrectionDistance or the vocabulary is empty. English-only: it is
// only ever invoked for lang == "en".
func spellCorrect(word string, vocabulary []string) string {
	if len(vocabulary) == 0 {
		return word
	}
	best := word
	bestDist := maxCorrectionDistance + 1
	for _, candidate := range vocabulary {
		if candidate == word {
			return word // already a known word, no correction needed
		}
		d := levenshtein.Distance(word, candidate, nil)
		if d < bestDist {
			bestDist = d
			best = candidate
		}
	}
	if bestDist > maxCorrectionDistance {
		return word
	}
	return best
}
