package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/snipurl/snip/internal/handler/dto"
	"github.com/snipurl/snip/internal/service"
)

// AnalyticsHandler handles analytics API requests.
type AnalyticsHandler struct {
	svc  *service.LinkService
	errs errorWriter
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(svc *service.LinkService, logger *slog.Logger, exposeDetails bool) *AnalyticsHandler {
	return &AnalyticsHandler{
		svc:  svc,
		errs: errorWriter{logger: logger.With("component", "handler.analytics"), exposeDetails: exposeDetails},
	}
}

// GetAnalytics handles GET /api/analytics/{identifier}.
func (h *AnalyticsHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")

	link, summary, err := h.svc.Analytics(r.Context(), identifier)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToAnalyticsResponse(link, summary, h.svc.BaseURL()))
}
