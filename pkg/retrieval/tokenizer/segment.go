package tokenizer

import (
	"strings"
	"unicode"

	"github.com/blevesearch/segment"
	"github.com/forPelevin/gomoji"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// rawSegment splits text into word-like runs. Latin/Cyrillic/etc. scripts
// are delegated to blevesearch/segment's Unicode word-boundary scanner
// (the same primitive bleve's own unicode tokenizer is built on); any run
// recognized as CJK/Thai script is instead re-split into bigrams by
// segmentCJK, since no whitespace marks word boundaries there. Casing
// uses cases.Lower for lang, so Turkish "İ"/"I" fold the way that
// language expects rather than under a one-size-fits-all ASCII rule.
func rawSegment(text, lang string) []string {
	text = gomoji.RemoveEmojis(text)
	lower := cases.Lower(languageTag(lang))

	seg := segment.NewWordSegmenter(strings.NewReader(text))
	var words []string
	var cjkRun []rune
	for seg.Segment() {
		run := []rune(string(seg.Bytes()))
		if seg.Type() != segment.None && len(run) > 0 && isCJKRune(run[0]) {
			// UAX#29 breaks between most ideographs, so one script run
			// arrives as several segments; collect them before bigramming.
			cjkRun = append(cjkRun, run...)
			continue
		}
		words = append(words, segmentCJK(cjkRun)...)
		cjkRun = cjkRun[:0]
		if seg.Type() == segment.None {
			continue // whitespace/punctuation run
		}
		words = append(words, lower.String(string(run)))
	}
	words = append(words, segmentCJK(cjkRun)...)
	return words
}

// languageTag resolves iso to a language.Tag, falling back to Und (which
// cases.Lower treats as a reasonable Unicode default) for codes the
// detector or a caller passed that x/text doesn't recognize.
func languageTag(iso string) language.Tag {
	tag, err := language.Parse(iso)
	if err != nil {
		return language.Und
	}
	return tag
}

// stripNonWord drops tokens left over that are pure punctuation/symbols
// after segmentation (segment.None already filters most of these, but a
// mixed run such as "don't" can surface an apostrophe-only remainder).
func stripNonWord(tokens []string) []string {
	out := tokens[:0]
	for _, t := range tokens {
		keep := false
		for _, r := range t {
			if !unicode.IsPunct(r) && !unicode.IsSymbol(r) && !unicode.IsSpace(r) {
				keep = true
				break
			}
		}
		if keep {
			out = append(out, t)
		}
	}
	return out
}
