package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncLinkCreated is a no-op.
func (n *NoopRecorder) IncLinkCreated() {}

// IncLinkReused is a no-op.
func (n *NoopRecorder) IncLinkReused() {}

// IncBulkItem is a no-op.
func (n *NoopRecorder) IncBulkItem(status string) {}

// IncRedirect is a no-op.
func (n *NoopRecorder) IncRedirect(outcome string) {}

// ObserveRedirectDuration is a no-op.
func (n *NoopRecorder) ObserveRedirectDuration(duration time.Duration) {}

// IncRateLimited is a no-op.
func (n *NoopRecorder) IncRateLimited(class string) {}

// AddLinksExpired is a no-op.
func (n *NoopRecorder) AddLinksExpired(count int64) {}
