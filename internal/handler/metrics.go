package handler

import (
	"fmt"
	"net/http"

	"github.com/snipurl/snip/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "snip_links_created_total %d\n", snap.LinksCreated)
	writeMetric(w, "snip_links_reused_total %d\n", snap.LinksReused)
	writeMetric(w, "snip_links_expired_total %d\n", snap.LinksExpired)

	for _, status := range metrics.Labels(snap.BulkItems) {
		writeMetric(w, "snip_bulk_items_total{status=%q} %d\n", status, snap.BulkItems[status])
	}
	for _, outcome := range metrics.Labels(snap.Redirects) {
		writeMetric(w, "snip_redirects_total{outcome=%q} %d\n", outcome, snap.Redirects[outcome])
	}
	writeMetric(w, "snip_redirect_duration_seconds_count %d\n", snap.RedirectDurationCount)
	writeMetric(w, "snip_redirect_duration_seconds_sum %.6f\n", float64(snap.RedirectDurationTotalNs)/1e9)

	for _, class := range metrics.Labels(snap.RateLimited) {
		writeMetric(w, "snip_rate_limited_total{class=%q} %d\n", class, snap.RateLimited[class])
	}
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
