package safety

import (
	"maps"
	"slices"
	"sync"
)

// resultCache memoizes full analysis results. Entries remember the command
// signature they were computed for, so feedback on a signature can evict
// every result it may have influenced without a full flush.
type resultCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	max     int
}

type cacheEntry struct {
	result    Result
	signature string
}

const defaultCacheSize = 1024

func newResultCache() *resultCache {
	return &resultCache{entries: make(map[string]cacheEntry), max: defaultCacheSize}
}

func (c *resultCache) get(key string) (Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return Result{}, false
	}
	return detachResult(e.result), true
}

func (c *resultCache) put(key, signature string, result Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.max {
		// Size cap, not LRU: drop everything rather than track recency.
		c.entries = make(map[string]cacheEntry)
	}
	c.entries[key] = cacheEntry{result: detachResult(result), signature: signature}
}

// detachResult clones every slice and map inside a Result. Stored entries
// and handed-out copies must not share backing arrays: callers append to
// their copy, and spare capacity in a shared array would make two such
// appends race.
func detachResult(r Result) Result {
	r.Basic.Warnings = slices.Clone(r.Basic.Warnings)
	r.Basic.MatchedPatterns = slices.Clone(r.Basic.MatchedPatterns)
	r.BehavioralPatterns = slices.Clone(r.BehavioralPatterns)
	r.ContextualWarnings = slices.Clone(r.ContextualWarnings)
	r.BehavioralWarnings = slices.Clone(r.BehavioralWarnings)
	r.Recommendations = slices.Clone(r.Recommendations)
	r.MLScores = maps.Clone(r.MLScores)
	return r
}

// invalidateSignature evicts every cached result computed for the signature.
func (c *resultCache) invalidateSignature(sig string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.entries {
		if e.signature == sig {
			delete(c.entries, key)
		}
	}
}

func (c *resultCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
