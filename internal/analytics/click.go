package analytics

import (
	"time"
	"unicode/utf8"

	"github.com/snipurl/snip/internal/model"
)

const (
	maxUserAgentLength = 500
	maxRefererLength   = 2048
)

// NewClick builds the event recorded for one redirect. A missing referer is
// stored as "Direct"; oversized headers are truncated.
func NewClick(at time.Time, ip, userAgent, referer string) model.ClickEvent {
	if referer == "" {
		referer = model.DirectReferer
	}
	return model.ClickEvent{
		Timestamp: at.UTC(),
		IP:        ip,
		UserAgent: truncate(userAgent, maxUserAgentLength),
		Referer:   truncate(referer, maxRefererLength),
	}
}

// truncate caps s at n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
