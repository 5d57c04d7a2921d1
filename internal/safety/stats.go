package safety

import "sync"

// statsTracker keeps running counters under a plain mutex; the snapshot is
// cheap enough that read/write lock splitting buys nothing here.
type statsTracker struct {
	mu      sync.Mutex
	total   uint64
	blocked uint64
	avgMS   float64
}

// record folds one analysis into the counters using a running mean, so the
// average stays exact without storing per-command samples.
func (t *statsTracker) record(analysisMS uint64, blocked bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.total++
	if blocked {
		t.blocked++
	}
	t.avgMS += (float64(analysisMS) - t.avgMS) / float64(t.total)
}

func (t *statsTracker) snapshot() Statistics {
	t.mu.Lock()
	defer t.mu.Unlock()

	return Statistics{
		TotalCommands:         t.total,
		BlockedCommands:       t.blocked,
		AverageAnalysisTimeMS: t.avgMS,
	}
}
