package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSnapshot struct {
	docCount int
	freq     map[string]int
	vocab    []string
}

func (f fakeSnapshot) DocCount() int                    { return f.docCount }
func (f fakeSnapshot) DocFrequency(word string) int      { return f.freq[word] }
func (f fakeSnapshot) Vocabulary() []string              { return f.vocab }

func TestTokenize_BasicEnglishStemming(t *testing.T) {
	tok := New()
	res := tok.Tokenize("Running dogs are running quickly.", "en", nil)
	require.NotEmpty(t, res.Tokens)
	assert.Equal(t, "en", res.Language)
	assert.Contains(t, res.Tokens, "run")
}

func TestTokenize_ExternalStopWordsAlwaysAuthoritative(t *testing.T) {
	tok := New(WithStopWords(map[string][]string{"en": {"the", "a"}}))
	res := tok.Tokenize("the cat sat on a mat", "en", nil)
	for _, tkn := range res.Tokens {
		assert.NotEqual(t, "the", tkn)
		assert.NotEqual(t, "a", tkn)
	}
}

func TestTokenize_DerivedStopWordsRequireMinimumCorpus(t *testing.T) {
	tok := New()
	snap := fakeSnapshot{
		docCount: 2, // below minDocsForDerivation
		freq:     map[string]int{"common": 2},
		vocab:    []string{"common"},
	}
	res := tok.Tokenize("common word here", "en", snap)
	assert.Contains(t, res.Tokens, "common")
}

func TestTokenize_DerivedStopWordsDropHighFrequencyTerms(t *testing.T) {
	tok := New()
	snap := fakeSnapshot{
		docCount: 10,
		freq:     map[string]int{"common": 10, "rare": 1},
		vocab:    []string{"common", "rare"},
	}
	res := tok.Tokenize("common rare", "en", snap)
	assert.NotContains(t, res.Tokens, "common")
	assert.Contains(t, res.Tokens, "rare")
}

func TestTokenize_CJKFallsBackToBigrams(t *testing.T) {
	tok := New()
	res := tok.Tokenize("東京都に住んでいます", "ja", nil)
	assert.NotEmpty(t, res.Tokens)
	assert.Equal(t, "ja", res.Language)
}

func TestTokenize_EmptyBlobDefaultsToEnglish(t *testing.T) {
	tok := New()
	res := tok.Tokenize("", "", nil)
	assert.Equal(t, "en", res.Language)
	assert.Empty(t, res.Tokens)
}

func TestSpellCorrect_WithinDistanceCorrects(t *testing.T) {
	vocab := []string{"hello", "world"}
	assert.Equal(t, "hello", spellCorrect("helo", vocab))
}

func TestSpellCorrect_TooFarLeavesWordUnchanged(t *testing.T) {
	vocab := []string{"hello"}
	assert.Equal(t, "xyzzyplugh", spellCorrect("xyzzyplugh", vocab))
}

func TestSegmentCJK_Bigrams(t *testing.T) {
	out := segmentCJK([]rune("東京都"))
	assert.Equal(t, []string{"東京", "京都"}, out)
}

func TestSegmentCJK_SingleRune(t *testing.T) {
	out := segmentCJK([]rune("東"))
	assert.Equal(t, []string{"東"}, out)
}
