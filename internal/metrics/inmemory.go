package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	LinksCreated            uint64
	LinksReused             uint64
	LinksExpired            uint64
	BulkItems               map[string]uint64
	Redirects               map[string]uint64
	RedirectDurationCount   uint64
	RedirectDurationTotalNs int64
	RateLimited             map[string]uint64
}

// Labels returns the keys of a labelled counter in sorted order.
func Labels(m map[string]uint64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// InMemoryRecorder stores metrics in memory.
type InMemoryRecorder struct {
	linksCreated            uint64
	linksReused             uint64
	linksExpired            uint64
	redirectDurationCount   uint64
	redirectDurationTotalNs int64

	mu          sync.Mutex
	bulkItems   map[string]uint64
	redirects   map[string]uint64
	rateLimited map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		bulkItems:   make(map[string]uint64),
		redirects:   make(map[string]uint64),
		rateLimited: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		LinksCreated:            atomic.LoadUint64(&m.linksCreated),
		LinksReused:             atomic.LoadUint64(&m.linksReused),
		LinksExpired:            atomic.LoadUint64(&m.linksExpired),
		BulkItems:               copyCounts(m.bulkItems),
		Redirects:               copyCounts(m.redirects),
		RedirectDurationCount:   atomic.LoadUint64(&m.redirectDurationCount),
		RedirectDurationTotalNs: atomic.LoadInt64(&m.redirectDurationTotalNs),
		RateLimited:             copyCounts(m.rateLimited),
	}
}

// IncLinkCreated increments the link created counter.
func (m *InMemoryRecorder) IncLinkCreated() {
	atomic.AddUint64(&m.linksCreated, 1)
}

// IncLinkReused increments the deduplicated create counter.
func (m *InMemoryRecorder) IncLinkReused() {
	atomic.AddUint64(&m.linksReused, 1)
}

// IncBulkItem counts one bulk item by status.
func (m *InMemoryRecorder) IncBulkItem(status string) {
	m.inc(m.bulkItems, status)
}

// IncRedirect counts one redirect attempt by outcome.
func (m *InMemoryRecorder) IncRedirect(outcome string) {
	m.inc(m.redirects, outcome)
}

// ObserveRedirectDuration records redirect duration.
func (m *InMemoryRecorder) ObserveRedirectDuration(duration time.Duration) {
	atomic.AddUint64(&m.redirectDurationCount, 1)
	atomic.AddInt64(&m.redirectDurationTotalNs, duration.Nanoseconds())
}

// IncRateLimited counts one rejected request by limiter class.
func (m *InMemoryRecorder) IncRateLimited(class string) {
	m.inc(m.rateLimited, class)
}

// AddLinksExpired adds n purged links.
func (m *InMemoryRecorder) AddLinksExpired(n int64) {
	if n > 0 {
		atomic.AddUint64(&m.linksExpired, uint64(n))
	}
}

func (m *InMemoryRecorder) inc(counts map[string]uint64, label string) {
	m.mu.Lock()
	counts[label]++
	m.mu.Unlock()
}

func copyCounts(src map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
