package middleware

import (
	"net/http"
	"strconv"
	"time"
)

// DefaultHSTSMaxAge is one year.
const DefaultHSTSMaxAge = 365 * 24 * time.Hour

// SecurityConfig holds configuration for security headers.
type SecurityConfig struct {
	// IsDevelopment disables HSTS so plain-HTTP localhost keeps working.
	IsDevelopment bool
	// HSTSMaxAge defaults to DefaultHSTSMaxAge.
	HSTSMaxAge time.Duration
}

// SecurityHeaders returns the fixed header set applied by Security.
//
// Every response is JSON or a redirect, so the CSP denies all content and
// nothing may be cached: a cached 302 would hide the click from analytics.
func SecurityHeaders(cfg SecurityConfig) http.Header {
	h := http.Header{}
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "DENY")
	h.Set("X-XSS-Protection", "0")
	h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
	h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
	h.Set("Cross-Origin-Opener-Policy", "same-origin")
	h.Set("Cross-Origin-Resource-Policy", "same-origin")
	h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=(), usb=()")
	h.Set("Cache-Control", "no-store")

	if !cfg.IsDevelopment {
		maxAge := cfg.HSTSMaxAge
		if maxAge <= 0 {
			maxAge = DefaultHSTSMaxAge
		}
		h.Set("Strict-Transport-Security",
			"max-age="+strconv.FormatInt(int64(maxAge/time.Second), 10)+"; includeSubDomains; preload")
	}
	return h
}

// Security applies SecurityHeaders to every response.
func Security(cfg SecurityConfig) func(http.Handler) http.Handler {
	headers := SecurityHeaders(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			dst := w.Header()
			for k, v := range headers {
				dst[k] = append([]string(nil), v...)
			}
			dst.Del("Server")
			next.ServeHTTP(w, r)
		})
	}
}

// MaxBodySize rejects declared bodies above maxBytes with 413 and caps the
// reader for the rest, so chunked uploads fail while decoding.
func MaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large")
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
