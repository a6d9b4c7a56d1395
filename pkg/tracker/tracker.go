package tracker

import (
	"sync"
	"sync/atomic"
)

// Tracker tracks usage statistics per target (AI provider or the
// board transport).
type Tracker struct {
	mu    sync.RWMutex
	stats map[string]*TargetStats
}

// TargetStats holds metrics for a specific target.
// Fields are accessed atomically.
type TargetStats struct {
	Success    int64
	Failures   int64
	FailedOver int64
	Retries    int64
}

// New creates a new Tracker.
func New() *Tracker {
	return &Tracker{
		stats: make(map[string]*TargetStats),
	}
}

// getStats returns the stats object for a target, creating it if needed.
func (t *Tracker) getStats(target string) *TargetStats {
	t.mu.RLock()
	s, ok := t.stats[target]
	t.mu.RUnlock()
	if ok {
		return s
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	// Double check
	if s, ok = t.stats[target]; ok {
		return s
	}
	s = &TargetStats{}
	t.stats[target] = s
	return s
}

// TrackSuccess increments the success counter.
func (t *Tracker) TrackSuccess(target string) {
	atomic.AddInt64(&t.getStats(target).Success, 1)
}

// TrackFailure increments the failure counter.
func (t *Tracker) TrackFailure(target string) {
	atomic.AddInt64(&t.getStats(target).Failures, 1)
}

// TrackFailover increments the failover counter.
func (t *Tracker) TrackFailover(target string) {
	atomic.AddInt64(&t.getStats(target).FailedOver, 1)
}

// TrackRetry increments the retry counter.
func (t *Tracker) TrackRetry(target string) {
	atomic.AddInt64(&t.getStats(target).Retries, 1)
}

// Snapshot returns a copy of the current stats.
func (t *Tracker) Snapshot() map[string]TargetStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make(map[string]TargetStats)
	for k, v := range t.stats {
		result[k] = TargetStats{
			Success:    atomic.LoadInt64(&v.Success),
			Failures:   atomic.LoadInt64(&v.Failures),
			FailedOver: atomic.LoadInt64(&v.FailedOver),
			Retries:    atomic.LoadInt64(&v.Retries),
		}
	}
	return result
}
