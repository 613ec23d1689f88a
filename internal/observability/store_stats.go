// Package observability provides storage operation statistics for health
// monitoring and the stats endpoint.
package observability

import (
	"sort"
	"sync"
	"time"
)

// StoreStats tracks per-action storage operation counts, failures, and
// cumulative latency.
type StoreStats struct {
	mu  sync.RWMutex
	ops map[string]*OpStats
}

// OpStats holds statistics for one storage action.
type OpStats struct {
	Action   string
	Count    int64
	Errors   int64
	Latency  time.Duration // cumulative
	LastSeen time.Time
	ByDomain map[string]int64
}

// NewStoreStats creates a new statistics tracker.
func NewStoreStats() *StoreStats {
	return &StoreStats{ops: make(map[string]*OpStats)}
}

// Record registers one completed storage operation.
// This method is O(1) and thread-safe.
func (s *StoreStats) Record(action, domain string, latency time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats, exists := s.ops[action]
	if !exists {
		stats = &OpStats{
			Action:   action,
			ByDomain: make(map[string]int64),
		}
		s.ops[action] = stats
	}

	stats.Count++
	if err != nil {
		stats.Errors++
	}
	stats.Latency += latency
	stats.LastSeen = time.Now()
	if domain != "" {
		stats.ByDomain[domain]++
	}
}

// Snapshot returns a copy of all per-action stats sorted by count
// (descending).
func (s *StoreStats) Snapshot() []OpStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make([]OpStats, 0, len(s.ops))
	for _, op := range s.ops {
		// Deep copy so callers cannot mutate live counters.
		cp := OpStats{
			Action:   op.Action,
			Count:    op.Count,
			Errors:   op.Errors,
			Latency:  op.Latency,
			LastSeen: op.LastSeen,
			ByDomain: make(map[string]int64, len(op.ByDomain)),
		}
		for domain, count := range op.ByDomain {
			cp.ByDomain[domain] = count
		}
		stats = append(stats, cp)
	}

	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Count > stats[j].Count
	})
	return stats
}

// AvgLatency returns the mean latency for the stats entry.
func (o OpStats) AvgLatency() time.Duration {
	if o.Count == 0 {
		return 0
	}
	return o.Latency / time.Duration(o.Count)
}
