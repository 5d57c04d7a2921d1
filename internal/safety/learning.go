package safety

import (
	"sync"
	"time"
)

// learnedEntry is what the validator remembers about one command signature.
// Frequency tracks how often feedback reinforced the same verdict; Confidence
// grows with repetition and scales how strongly the verdict biases scoring.
type learnedEntry struct {
	Feedback   UserFeedback
	Frequency  int
	LastSeen   int64
	Confidence float64
}

// learningStore holds feedback keyed by abstracted command signature.
// Reads happen on every analysis, so lookups take the read lock only.
type learningStore struct {
	mu      sync.RWMutex
	entries map[string]*learnedEntry
}

func newLearningStore() *learningStore {
	return &learningStore{entries: make(map[string]*learnedEntry)}
}

// record stores feedback for a signature. A repeat of the same verdict bumps
// the frequency; a different verdict replaces the entry outright, because the
// newest human judgment wins.
func (s *learningStore) record(sig string, fb UserFeedback) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	if e, ok := s.entries[sig]; ok && e.Feedback == fb {
		e.Frequency++
		e.LastSeen = now
		e.Confidence = confidenceFor(e.Frequency)
		return
	}
	s.entries[sig] = &learnedEntry{
		Feedback:   fb,
		Frequency:  1,
		LastSeen:   now,
		Confidence: confidenceFor(1),
	}
}

func confidenceFor(frequency int) float64 {
	conf := 0.5 + 0.1*float64(frequency-1)
	if conf > 0.95 {
		conf = 0.95
	}
	return conf
}

// lookup returns a copy of the entry for a signature, if any.
func (s *learningStore) lookup(sig string) (learnedEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[sig]
	if !ok {
		return learnedEntry{}, false
	}
	return *e, true
}

func (s *learningStore) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
