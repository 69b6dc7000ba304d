package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/snipurl/snip/internal/handler/dto"
	"github.com/snipurl/snip/internal/service"
)

// LinkHandler handles link creation.
type LinkHandler struct {
	svc    *service.LinkService
	logger *slog.Logger
	errs   errorWriter
}

// NewLinkHandler creates a new LinkHandler.
func NewLinkHandler(svc *service.LinkService, logger *slog.Logger, exposeDetails bool) *LinkHandler {
	logger = logger.With("component", "handler.link")
	return &LinkHandler{
		svc:    svc,
		logger: logger,
		errs:   errorWriter{logger: logger, exposeDetails: exposeDetails},
	}
}

// Shorten handles POST /api/shorten.
func (h *LinkHandler) Shorten(w http.ResponseWriter, r *http.Request) {
	var req dto.ShortenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		decodeError(w, err)
		return
	}

	res, err := h.svc.Shorten(r.Context(), service.ShortenInput{
		LongURL:     req.LongURL,
		CustomAlias: req.CustomAlias,
		ExpiresIn:   req.ExpiresIn,
		Password:    req.Password,
		Tags:        req.Tags,
		CreatedBy:   req.CreatedBy,
	})
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	if res.Reused {
		h.logger.Info("link_reused", "link_id", res.Link.ID, "short_code", res.Link.ShortCode)
	} else {
		h.logger.Info("link_created",
			"link_id", res.Link.ID,
			"short_code", res.Link.ShortCode,
			"has_custom_alias", req.CustomAlias != "",
			"has_password", req.Password != "",
			"expires_in", req.ExpiresIn,
		)
	}

	writeJSON(w, http.StatusOK, dto.ToShortenResponse(res))
}

// BulkShorten handles POST /api/bulk-shorten.
func (h *LinkHandler) BulkShorten(w http.ResponseWriter, r *http.Request) {
	var req dto.BulkShortenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		decodeError(w, err)
		return
	}

	items := make([]service.BulkItem, len(req.URLs))
	for i, u := range req.URLs {
		items[i] = service.BulkItem{
			LongURL:     u.LongURL,
			CustomAlias: u.CustomAlias,
			Tags:        u.Tags,
			CreatedBy:   u.CreatedBy,
		}
	}

	results, err := h.svc.BulkShorten(r.Context(), items)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}

	failed := 0
	for _, res := range results {
		if !res.Success {
			failed++
		}
	}
	h.logger.Info("bulk_shorten_completed",
		"items", len(results),
		"succeeded", len(results)-failed,
		"failed", failed,
	)

	writeJSON(w, http.StatusOK, dto.ToBulkShortenResponse(results))
}
