package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/snipurl/snip/internal/ratelimit"
)

// fixedWindowScript counts one request in the current window and starts the
// window expiry on its first hit. Returns {count, pttl_ms}.
var fixedWindowScript = redis.NewScript(`
	local count = redis.call('INCR', KEYS[1])
	if count == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	local ttl = redis.call('PTTL', KEYS[1])
	if ttl < 0 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
		ttl = tonumber(ARGV[1])
	end
	return {count, ttl}
`)

// Allow implements ratelimit.Limiter with a window shared by every replica
// talking to the same Redis. On Redis errors the request is allowed and the
// error returned so the caller can log it.
func (c *Cache) Allow(ctx context.Context, policy ratelimit.Policy, ip string) (ratelimit.Result, error) {
	now := time.Now()
	key := c.rateLimitKey(policy.Class, ip)

	res, err := fixedWindowScript.Run(ctx, c.client, []string{key}, policy.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return ratelimit.Result{
			Allowed:   true,
			Limit:     policy.Limit,
			Remaining: policy.Limit,
			ResetAt:   now.Add(policy.Window),
		}, fmt.Errorf("rate limit script: %w", err)
	}

	count, ttl := res[0], res[1]
	resetAt := now.Add(time.Duration(ttl) * time.Millisecond)
	return ratelimit.ResultFor(policy, int(count), resetAt, now), nil
}

// rateLimitKey is <prefix>rl:<class>:<hashed ip>.
func (c *Cache) rateLimitKey(class ratelimit.Class, ip string) string {
	return c.prefix + "rl:" + string(class) + ":" + hashIP(ip)
}

// hashIP creates a truncated SHA256 hash of an IP address.
// Raw addresses never reach Redis.
func hashIP(ip string) string {
	hash := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(hash[:8])
}
