package model

import "time"

// DirectReferer is recorded when a click carries no Referer header.
const DirectReferer = "Direct"

// ClickEvent is one recorded redirect traversal, embedded in its Link.
type ClickEvent struct {
	Timestamp time.Time `json:"timestamp"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"userAgent"`
	Referer   string    `json:"referer"`

	// Reserved for geo resolution, never populated.
	Country string `json:"country,omitempty"`
	City    string `json:"city,omitempty"`
}
