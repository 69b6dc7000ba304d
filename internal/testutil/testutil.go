// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/snipurl/snip/internal/model"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

// dbLockID is the advisory lock shared by every package's database tests.
const dbLockID int64 = 0x736e6970 // "snip"

// ResetLinksTable serialises database tests across packages with an advisory
// lock held until the test ends, then drops the links table so the caller's
// migration starts from nothing.
func ResetLinksTable(t testing.TB, pool *pgxpool.Pool) {
	t.Helper()
	ctx := context.Background()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", dbLockID); err != nil {
		conn.Release()
		t.Fatalf("advisory lock: %v", err)
	}
	t.Cleanup(func() {
		_, _ = conn.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", dbLockID)
		conn.Release()
	})

	if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS links"); err != nil {
		t.Fatalf("drop links: %v", err)
	}
}

var seq atomic.Int64

// UniqueShortCode returns prefix-N with N unique within the test binary.
func UniqueShortCode(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, seq.Add(1))
}

// LinkOption adjusts a fixture built by NewTestLink.
type LinkOption func(*model.Link)

// WithExpiry sets ExpiresAt.
func WithExpiry(at time.Time) LinkOption {
	return func(l *model.Link) { l.ExpiresAt = &at }
}

// WithAlias makes the link reachable by alias, stored the way the service
// stores it: as both short code and custom alias.
func WithAlias(alias string) LinkOption {
	return func(l *model.Link) {
		l.ShortCode = alias
		l.CustomAlias = alias
	}
}

// WithTags sets Tags.
func WithTags(tags ...string) LinkOption {
	return func(l *model.Link) { l.Tags = tags }
}

// WithLongURL overrides the destination.
func WithLongURL(u string) LinkOption {
	return func(l *model.Link) { l.LongURL = u }
}

// NewTestLink returns an active, anonymous, non-expiring link with the given
// short code. The destination is derived from the code so links differ.
func NewTestLink(t testing.TB, shortCode string, opts ...LinkOption) *model.Link {
	t.Helper()
	link := &model.Link{
		ID:        fmt.Sprintf("test-%d", seq.Add(1)),
		LongURL:   "https://example.com/" + shortCode,
		ShortCode: shortCode,
		IsActive:  true,
		QRCode:    "data:image/png;base64,",
		Tags:      []string{},
		CreatedBy: model.CreatorAnonymous,
	}
	for _, opt := range opts {
		opt(link)
	}
	return link
}
