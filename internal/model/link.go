// Package model defines domain entities for the application.
package model

import (
	"strings"
	"time"
)

// Default creators recorded when the request does not name one.
const (
	CreatorAnonymous = "anonymous"
	CreatorBulk      = "bulk"
)

// Link represents a shortened URL entity.
type Link struct {
	ID           string       `json:"id"`
	LongURL      string       `json:"longUrl"`
	ShortCode    string       `json:"shortCode"`
	CustomAlias  string       `json:"customAlias,omitempty"`
	ClickCount   int64        `json:"clickCount"`
	Clicks       []ClickEvent `json:"clicks"`
	ExpiresAt    *time.Time   `json:"expiresAt"`
	IsActive     bool         `json:"isActive"`
	QRCode       string       `json:"qrCode"`
	Tags         []string     `json:"tags"`
	CreatedBy    string       `json:"createdBy"`
	PasswordHash string       `json:"-"`
	Protected    bool         `json:"-"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// IsExpired reports whether the link's expiry lies before now.
func (l *Link) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && now.After(*l.ExpiresAt)
}

// HasPassword reports whether redirects are gated by a password. Listings
// drop the hash and set Protected instead.
func (l *Link) HasPassword() bool {
	return l.PasswordHash != "" || l.Protected
}

// Reusable reports whether the link can satisfy an identical plain create
// request instead of minting a new record.
func (l *Link) Reusable(now time.Time) bool {
	return l.IsActive &&
		l.CustomAlias == "" &&
		l.ExpiresAt == nil &&
		!l.HasPassword() &&
		!l.IsExpired(now)
}

// Identifier returns the public identifier of the link.
func (l *Link) Identifier() string {
	if l.CustomAlias != "" {
		return l.CustomAlias
	}
	return l.ShortCode
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (l *Link) Clone() *Link {
	if l == nil {
		return nil
	}
	c := *l
	if l.ExpiresAt != nil {
		t := *l.ExpiresAt
		c.ExpiresAt = &t
	}
	c.Tags = append([]string(nil), l.Tags...)
	c.Clicks = append([]ClickEvent(nil), l.Clicks...)
	return &c
}

// NormalizeTags trims, drops empties and removes duplicates while keeping
// first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
