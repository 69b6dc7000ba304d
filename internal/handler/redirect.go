package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/snipurl/snip/internal/middleware"
	"github.com/snipurl/snip/internal/service"
)

// RedirectHandler handles redirect requests.
type RedirectHandler struct {
	svc    *service.LinkService
	logger *slog.Logger
	errs   errorWriter
}

// NewRedirectHandler creates a new RedirectHandler.
func NewRedirectHandler(svc *service.LinkService, logger *slog.Logger, exposeDetails bool) *RedirectHandler {
	logger = logger.With("component", "handler.redirect")
	return &RedirectHandler{
		svc:    svc,
		logger: logger,
		errs:   errorWriter{logger: logger, exposeDetails: exposeDetails},
	}
}

// Redirect handles GET /{shortCode} for URL redirection.
func (h *RedirectHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	shortCode := chi.URLParam(r, "shortCode")
	start := time.Now()

	link, err := h.svc.Resolve(r.Context(), shortCode, r.URL.Query().Get("password"), service.ClickContext{
		IP:        middleware.ClientIP(r),
		UserAgent: r.UserAgent(),
		Referer:   r.Referer(),
	})
	duration := time.Since(start)

	if err != nil {
		h.logFailure(shortCode, err, duration)
		h.errs.write(w, r, err)
		return
	}

	h.logger.Info("redirect_success",
		"short_code", shortCode,
		"link_id", link.ID,
		"duration_ms", float64(duration.Microseconds())/1000,
	)

	http.Redirect(w, r, link.LongURL, http.StatusFound)
}

func (h *RedirectHandler) logFailure(shortCode string, err error, duration time.Duration) {
	var event string
	switch {
	case errors.Is(err, service.ErrNotFound):
		event = "redirect_not_found"
	case errors.Is(err, service.ErrExpired):
		event = "redirect_expired"
	case errors.Is(err, service.ErrPasswordRequired), errors.Is(err, service.ErrPasswordIncorrect):
		event = "redirect_password_rejected"
	default:
		// logged by errorWriter
		return
	}
	h.logger.Info(event,
		"short_code", shortCode,
		"duration_ms", float64(duration.Microseconds())/1000,
	)
}
