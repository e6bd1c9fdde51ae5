// Package tokenizer implements the normalization pipeline used by the
// TF-IDF engine (the vector engine embeds raw text and does not use it):
// language detection, script-aware
// segmentation, punctuation/emoji stripping, stop-word removal, stemming,
// and optional English spell-correction.
package tokenizer

import (
	"strings"

	"github.com/RadhiFadlillah/whatlanggo"
	"github.com/hashicorp/go-hclog"
)

// Option configures a Tokenizer at construction time.
type Option func(*Tokenizer)

// WithStopWords supplies an authoritative, externally curated stop list
// per language. A language present here never falls back to the
// auto-derived list.
func WithStopWords(byLang map[string][]string) Option {
	return func(t *Tokenizer) {
		t.stopLists = newStopLists(byLang)
	}
}

// WithSpellCorrect enables English spell-correction against the
// vocabulary snapshot supplied to Tokenize.
func WithSpellCorrect(enabled bool) Option {
	return func(t *Tokenizer) { t.spellCorrect = enabled }
}

// WithLogger overrides the default discard logger.
func WithLogger(l hclog.Logger) Option {
	return func(t *Tokenizer) { t.logger = l }
}

// Tokenizer normalizes raw document or query text into stemmed tokens.
// A single Tokenizer is safe for concurrent use; its only mutable state
// is the lazily derived stop-word cache, which is internally locked.
type Tokenizer struct {
	stopLists    *stopLists
	spellCorrect bool
	logger       hclog.Logger
}

// New constructs a Tokenizer. With no options it has no stop words, no
// spell-correction, and a logger that discards output.
func New(opts ...Option) *Tokenizer {
	t := &Tokenizer{
		stopLists: newStopLists(nil),
		logger:    hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Tokenize normalizes blob into an ordered list of stems. If lang is
// empty, the language is auto-detected via whatlanggo. snap may be nil,
// in which case stop-word auto-derivation and spell-correction are
// skipped for this call.
func (t *Tokenizer) Tokenize(blob string, lang string, snap IndexSnapshot) Result {
	if lang == "" {
		lang = detectLanguage(blob)
	}

	t.stopLists.maybeDerive(lang, snap)

	words := stripNonWord(rawSegment(blob, lang))
	stem := stemmerFor(lang)

	var vocabulary []string
	if t.spellCorrect && lang == "en" && snap != nil {
		vocabulary = snap.Vocabulary()
	}

	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if t.stopLists.isStopWord(lang, w) {
			continue
		}
		if vocabulary != nil {
			w = spellCorrect(w, vocabulary)
		}
		stemmed := stem(w)
		if stemmed == "" {
			continue
		}
		tokens = append(tokens, stemmed)
	}

	t.logger.Trace("tokenized", "lang", lang, "input_words", len(words), "output_tokens", len(tokens))

	return Result{Language: lang, Tokens: tokens}
}

// detectLanguage resolves blob's ISO 639-1 code, defaulting to English
// when whatlanggo cannot make a confident determination (too short a
// sample, or a script it does not model).
func detectLanguage(blob string) string {
	if strings.TrimSpace(blob) == "" {
		return "en"
	}
	info := whatlanggo.Detect(blob)
	if info.Lang == whatlanggo.Und {
		return "en"
	}
	iso := info.Lang.Iso6391()
	if iso == "" {
		return "en"
	}
	return iso
}
