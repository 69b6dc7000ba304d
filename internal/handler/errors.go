package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/snipurl/snip/internal/handler/dto"
	"github.com/snipurl/snip/internal/middleware"
	"github.com/snipurl/snip/internal/service"
)

// errorWriter maps service errors to HTTP responses.
type errorWriter struct {
	logger *slog.Logger
	// exposeDetails adds the underlying error to 500 bodies.
	exposeDetails bool
}

func (e errorWriter) write(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error:  "Validation failed",
			Code:   "VALIDATION_FAILED",
			Fields: verr.Fields,
		})
	case errors.Is(err, service.ErrAliasInvalid):
		writeError(w, http.StatusBadRequest, "INVALID_ALIAS", err.Error())
	case errors.Is(err, service.ErrAliasTaken):
		writeError(w, http.StatusBadRequest, "ALIAS_TAKEN", "Custom alias already taken")
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "URL not found")
	case errors.Is(err, service.ErrExpired):
		writeError(w, http.StatusGone, "EXPIRED", "URL has expired")
	case errors.Is(err, service.ErrPasswordRequired):
		writeError(w, http.StatusUnauthorized, "PASSWORD_REQUIRED", "Password required")
	case errors.Is(err, service.ErrPasswordIncorrect):
		writeError(w, http.StatusUnauthorized, "PASSWORD_INCORRECT", "Incorrect password")
	default:
		e.logger.Error("internal_error",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		resp := dto.ErrorResponse{Error: "Internal server error", Code: "INTERNAL_ERROR"}
		if errors.Is(err, service.ErrGenerationExhausted) {
			resp.Code = "GENERATION_EXHAUSTED"
		}
		if e.exposeDetails {
			resp.Details = err.Error()
		}
		writeJSON(w, http.StatusInternalServerError, resp)
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// decodeError reports a request body that could not be decoded.
func decodeError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large")
		return
	}
	writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
}
