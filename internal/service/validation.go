package service

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/snipurl/snip/internal/shortcode"
)

// Input limits.
const (
	MaxLongURLLength   = 2048
	MinPasswordLength  = 4
	MaxCreatedByLength = 100
	MaxBulkItems       = 100
)

// ExpiryPresets maps the accepted expiresIn values to durations.
var ExpiryPresets = map[string]time.Duration{
	"1h":  time.Hour,
	"1d":  24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
}

// validateLongURL accepts absolute http(s) URLs with a host.
func validateLongURL(raw string) string {
	if raw == "" {
		return "is required"
	}
	if len(raw) > MaxLongURLLength {
		return fmt.Sprintf("must be at most %d characters", MaxLongURLLength)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "must be a valid URL"
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "must use http or https"
	}
	if u.Host == "" || u.Hostname() == "" {
		return "must include a host"
	}
	return ""
}

// validateCommon checks the fields shared by single and bulk creation.
// Alias errors are returned separately so callers can report ErrAliasInvalid.
func validateCommon(verr *ValidationError, prefix, longURL, createdBy string) {
	if msg := validateLongURL(longURL); msg != "" {
		verr.add(prefix+"longUrl", msg)
	}
	if len(createdBy) > MaxCreatedByLength {
		verr.add(prefix+"createdBy", fmt.Sprintf("must be at most %d characters", MaxCreatedByLength))
	}
}

func validateAlias(alias string) error {
	if alias == "" {
		return nil
	}
	if err := shortcode.ValidateAlias(alias); err != nil {
		return fmt.Errorf("%w: %w", ErrAliasInvalid, err)
	}
	return nil
}
