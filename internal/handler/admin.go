package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/snipurl/snip/internal/handler/dto"
	"github.com/snipurl/snip/internal/service"
)

// AdminHandler serves the link listing.
type AdminHandler struct {
	svc  *service.LinkService
	errs errorWriter
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(svc *service.LinkService, logger *slog.Logger, exposeDetails bool) *AdminHandler {
	return &AdminHandler{
		svc:  svc,
		errs: errorWriter{logger: logger.With("component", "handler.admin"), exposeDetails: exposeDetails},
	}
}

// ListURLs handles GET /api/admin/urls?page&limit&sortBy&order&search&tag.
func (h *AdminHandler) ListURLs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, ok := intParam(q.Get("page"))
	if !ok {
		h.errs.write(w, r, invalidParam("page", "must be a positive integer"))
		return
	}
	limit, ok := intParam(q.Get("limit"))
	if !ok {
		h.errs.write(w, r, invalidParam("limit", "must be an integer"))
		return
	}

	res, err := h.svc.List(r.Context(), service.ListInput{
		Page:   page,
		Limit:  limit,
		SortBy: q.Get("sortBy"),
		Order:  q.Get("order"),
		Search: q.Get("search"),
		Tag:    q.Get("tag"),
	})
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToAdminListResponse(res, h.svc.BaseURL()))
}

// intParam parses an optional integer query parameter. Empty means zero.
func intParam(raw string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	return n, err == nil
}

func invalidParam(field, msg string) error {
	return &service.ValidationError{Fields: []service.FieldError{{Field: field, Message: msg}}}
}
