package tokenizer

// IndexSnapshot is the narrow read-only view the tokenizer needs from the
// TF-IDF engine to auto-learn stop words and spell-correct against the
// local vocabulary. It is deliberately immutable for the duration of a
// single Tokenize call: normalization is deterministic given
// (blob, language, vocabulary snapshot, stop-list snapshot).
type IndexSnapshot interface {
	// DocCount returns the number of documents currently in the local
	// shard.
	DocCount() int

	// DocFrequency returns the number of local documents containing word.
	DocFrequency(word string) int

	// Vocabulary returns every distinct stemmed word currently indexed
	// locally. Used for spell-correction candidate lookup.
	Vocabulary() []string
}

// Result is the outcome of tokenizing one text blob.
type Result struct {
	Language string   // resolved ISO 2-letter language code
	Tokens   []string // ordered, normalized stems
}
