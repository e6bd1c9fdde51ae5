package tokenizer

import "unicode"

// cjkLanguages are the languages for which no whitespace separates words.
// No morphological segmenter for these is available anywhere in the
// dependency set this tokenizer draws from, so words are approximated by
// overlapping rune bigrams within each run of CJK/Thai script, the same
// fallback bleve's own cjk analyzer uses internally for bigram indexing.
var cjkLanguages = map[string]bool{
	"ja": true,
	"zh": true,
	"th": true,
}

// segmentCJK splits a run of script runes into overlapping bigrams. A
// lone trailing rune is emitted as a unigram rather than dropped.
func segmentCJK(runes []rune) []string {
	if len(runes) == 0 {
		return nil
	}
	if len(runes) == 1 {
		return []string{string(runes[0])}
	}
	out := make([]string, 0, len(runes)-1)
	for i := 0; i < len(runes)-1; i++ {
		out = append(out, string(runes[i:i+2]))
	}
	return out
}

// isCJKRune reports whether r belongs to a script this package treats as
// requiring bigram segmentation.
func isCJKRune(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Thai)
}
