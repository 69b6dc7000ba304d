// Package ratelimit provides per-client request budgets grouped by route class.
package ratelimit

import (
	"context"
	"time"
)

// Class names a group of routes sharing one budget.
type Class string

const (
	ClassShorten Class = "shorten"
	ClassBulk    Class = "bulk"
	ClassGeneral Class = "general"
)

// Policy is a fixed-window budget for one class.
type Policy struct {
	Class   Class
	Limit   int
	Window  time.Duration
	Message string
}

// Default budgets per client IP.
var (
	ShortenPolicy = Policy{
		Class:   ClassShorten,
		Limit:   10,
		Window:  15 * time.Minute,
		Message: "Too many URLs created from this IP, please try again after 15 minutes",
	}
	BulkPolicy = Policy{
		Class:   ClassBulk,
		Limit:   3,
		Window:  60 * time.Minute,
		Message: "Too many bulk operations from this IP, please try again after an hour",
	}
	GeneralPolicy = Policy{
		Class:   ClassGeneral,
		Limit:   100,
		Window:  15 * time.Minute,
		Message: "Too many requests from this IP, please try again later",
	}
)

// Result contains the outcome of a rate limit check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Limiter admits or rejects one request for key under policy.
type Limiter interface {
	Allow(ctx context.Context, policy Policy, key string) (Result, error)
}

// ResultFor derives the Result of a window holding count requests
// (including the current one) that resets at resetAt.
func ResultFor(p Policy, count int, resetAt, now time.Time) Result {
	r := Result{
		Allowed: count <= p.Limit,
		Limit:   p.Limit,
		ResetAt: resetAt,
	}
	if remaining := p.Limit - count; remaining > 0 {
		r.Remaining = remaining
	}
	if !r.Allowed {
		r.RetryAfter = resetAt.Sub(now)
		if r.RetryAfter < 0 {
			r.RetryAfter = 0
		}
	}
	return r
}
