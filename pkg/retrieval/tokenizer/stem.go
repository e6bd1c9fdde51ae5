package tokenizer

import (
	"github.com/blevesearch/snowballstem"
	"github.com/blevesearch/snowballstem/english"
	"github.com/blevesearch/snowballstem/french"
	"github.com/blevesearch/snowballstem/german"
	"github.com/blevesearch/snowballstem/russian"
	"github.com/blevesearch/snowballstem/spanish"
)

// stemFunc reduces one lowercased, segmented token to its stem form.
type stemFunc func(word string) string

// stemmers maps the languages with a snowball stemmer in the dependency
// set to their stem function. Languages absent from this map fall back to
// the identity stemmer (stemIdentity): unsupported languages pass
// through unstemmed.
var stemmers = map[string]stemFunc{
	"en": stemWith(english.Stem),
	"es": stemWith(spanish.Stem),
	"ru": stemWith(russian.Stem),
	"fr": stemWith(french.Stem),
	"de": stemWith(german.Stem),
}

// stemWith adapts a snowballstem per-language Stem(env) function, which
// mutates a shared Env in place, to the stemFunc signature used here.
func stemWith(stem func(*snowballstem.Env) bool) stemFunc {
	return func(word string) string {
		env := snowballstem.NewEnv(word)
		stem(env)
		return env.Current()
	}
}

func stemIdentity(word string) string { return word }

// stemmerFor returns the stemmer registered for lang, or the identity
// stemmer if lang has no snowball implementation in the pack.
func stemmerFor(lang string) stemFunc {
	if f, ok := stemmers[lang]; ok {
		return f
	}
	return stemIdentity
}
