package tokenizer

import "sync"

// stopListThreshold and minDocsForDerivation implement the
// auto-learned stop-word rule: once a shard holds at least
// minDocsForDerivation documents, any word appearing in at least
// stopListThreshold of them is folded into that language's derived stop
// list. The derived list is then frozen — it is a snapshot, not
// recomputed on every tokenize call, so normalization stays deterministic
// for documents already ingested.
const (
	minDocsForDerivation = 5
	stopListThreshold    = 0.95
)

// stopLists holds the externally supplied list (authoritative, never
// recomputed) and the lazily derived one per language.
type stopLists struct {
	mu       sync.RWMutex
	external map[string]map[string]struct{}
	derived  map[string]map[string]struct{}
}

func newStopLists(external map[string][]string) *stopLists {
	s := &stopLists{
		external: make(map[string]map[string]struct{}, len(external)),
		derived:  make(map[string]map[string]struct{}),
	}
	for lang, words := range external {
		set := make(map[string]struct{}, len(words))
		for _, w := range words {
			set[w] = struct{}{}
		}
		s.external[lang] = set
	}
	return s
}

// isStopWord reports whether word should be dropped for lang, consulting
// the external list first and the frozen derived snapshot second.
func (s *stopLists) isStopWord(lang, word string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if set, ok := s.external[lang]; ok {
		if _, stop := set[word]; stop {
			return true
		}
		return false // an externally supplied list is authoritative for lang
	}
	if set, ok := s.derived[lang]; ok {
		_, stop := set[word]
		return stop
	}
	return false
}

// maybeDerive computes and freezes the derived stop list for lang the
// first time the shard crosses minDocsForDerivation documents, unless an
// external list already governs lang or a derived snapshot already
// exists.
func (s *stopLists) maybeDerive(lang string, snap IndexSnapshot) {
	if snap == nil || snap.DocCount() < minDocsForDerivation {
		return
	}
	s.mu.RLock()
	_, hasExternal := s.external[lang]
	_, hasDerived := s.derived[lang]
	s.mu.RUnlock()
	if hasExternal || hasDerived {
		return
	}

	docCount := snap.DocCount()
	threshold := float64(docCount) * stopListThreshold
	set := make(map[string]struct{})
	for _, word := range snap.Vocabulary() {
		if float64(snap.DocFrequency(word)) >= threshold {
			set[word] = struct{}{}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, already := s.derived[lang]; !already {
		s.derived[lang] = set
	}
}
