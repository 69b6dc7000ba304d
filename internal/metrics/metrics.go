// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
type Recorder interface {
	// Link creation
	IncLinkCreated()
	IncLinkReused()
	IncBulkItem(status string) // status: "success" or "failed"

	// Redirects
	IncRedirect(outcome string) // outcome: "ok", "not_found", "expired", "password", "error"
	ObserveRedirectDuration(duration time.Duration)

	// Rate limiting
	IncRateLimited(class string)

	// Expiry sweeps
	AddLinksExpired(n int64)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
