package distributed

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	gferrors "github.com/vnykmshr/goguard/pkg/common/errors"
)

// slidingWindow implements Limiter over a Redis sorted set: member scores
// are request timestamps, and one Lua script prunes, counts, and admits
// atomically so concurrent instances never double-spend the quota.
type slidingWindow struct {
	config Config
	keys   limiterKeys

	admitScript *redis.Script
	pruneScript *redis.Script
}

func newSlidingWindow(config Config) (Limiter, error) {
	sw := &slidingWindow{
		config:      config,
		keys:        keysFor(config.Key),
		admitScript: redis.NewScript(luaAdmit),
		pruneScript: redis.NewScript(luaPrune),
	}

	if err := sw.register(context.Background()); err != nil {
		return nil, err
	}
	return sw, nil
}

// register writes the shared configuration and joins the instance set.
func (sw *slidingWindow) register(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, sw.config.RedisTimeout)
	defer cancel()

	pipe := sw.config.Redis.Pipeline()

	pipe.HSet(ctx, sw.keys.config, map[string]interface{}{
		"max_requests": sw.config.MaxRequests,
		"window_ns":    sw.config.Window.Nanoseconds(),
	})
	pipe.Expire(ctx, sw.keys.config, sw.config.KeyTTL)

	pipe.HSetNX(ctx, sw.keys.stats, "total_requests", 0)
	pipe.HSetNX(ctx, sw.keys.stats, "allowed_requests", 0)
	pipe.HSetNX(ctx, sw.keys.stats, "denied_requests", 0)
	pipe.Expire(ctx, sw.keys.stats, sw.config.KeyTTL)

	pipe.SAdd(ctx, sw.keys.instances, sw.config.InstanceID)
	pipe.Expire(ctx, sw.keys.instances, sw.config.KeyTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return gferrors.NewOperationError("distributed", "register", err)
	}
	return nil
}

func (sw *slidingWindow) Allow(ctx context.Context) bool {
	return sw.AllowN(ctx, 1)
}

func (sw *slidingWindow) AllowN(ctx context.Context, n int) bool {
	if n <= 0 {
		return true
	}

	ctx, cancel := context.WithTimeout(ctx, sw.config.RedisTimeout)
	defer cancel()

	now := time.Now().UnixNano()
	cutoff := now - sw.config.Window.Nanoseconds()

	result, err := sw.admitScript.Run(ctx, sw.config.Redis,
		[]string{sw.keys.log, sw.keys.stats},
		now, cutoff, n, sw.config.MaxRequests,
		int64(sw.config.KeyTTL.Seconds()),
	).Result()

	if err != nil {
		// Redis unreachable; the local window keeps the process bounded.
		if sw.config.Fallback != nil {
			return sw.config.Fallback.AllowN(n)
		}
		return false
	}

	admitted, ok := result.(int64)
	return ok && admitted == 1
}

func (sw *slidingWindow) Wait(ctx context.Context) error {
	return sw.WaitN(ctx, 1)
}

// WaitN polls AllowN at the configured interval. Remote state can change
// from any instance between polls, so there is no locally computable
// wake-up time to sleep toward.
func (sw *slidingWindow) WaitN(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}
	if n > sw.config.MaxRequests {
		return gferrors.NewOperationError("distributed", "wait", gferrors.ErrRateLimited).
			WithContext("requested count exceeds window capacity")
	}

	ticker := time.NewTicker(sw.config.PollInterval)
	defer ticker.Stop()

	for {
		if sw.AllowN(ctx, n) {
			return nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (sw *slidingWindow) SetMaxRequests(ctx context.Context, maxRequests int) error {
	if maxRequests <= 0 {
		return gferrors.NewValidationError("distributed", "maxRequests", maxRequests, "must be positive").
			WithHint("window capacity must admit at least one request")
	}

	ctx, cancel := context.WithTimeout(ctx, sw.config.RedisTimeout)
	defer cancel()

	if err := sw.config.Redis.HSet(ctx, sw.keys.config, "max_requests", maxRequests).Err(); err != nil {
		return gferrors.NewOperationError("distributed", "set_max_requests", err)
	}

	sw.config.MaxRequests = maxRequests
	return nil
}

func (sw *slidingWindow) Stats(ctx context.Context) (*Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, sw.config.RedisTimeout)
	defer cancel()

	pipe := sw.config.Redis.Pipeline()

	configCmd := pipe.HGetAll(ctx, sw.keys.config)
	statsCmd := pipe.HGetAll(ctx, sw.keys.stats)
	instancesCmd := pipe.SMembers(ctx, sw.keys.instances)

	now := time.Now().UnixNano()
	cutoff := now - sw.config.Window.Nanoseconds()
	usedCmd := pipe.ZCount(ctx, sw.keys.log,
		strconv.FormatInt(cutoff, 10),
		strconv.FormatInt(now, 10))

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, gferrors.NewOperationError("distributed", "stats", err)
	}

	configMap := configCmd.Val()
	maxRequests, _ := strconv.Atoi(configMap["max_requests"])
	windowNs, _ := strconv.ParseInt(configMap["window_ns"], 10, 64)

	statsMap := statsCmd.Val()
	total, _ := strconv.ParseInt(statsMap["total_requests"], 10, 64)
	allowed, _ := strconv.ParseInt(statsMap["allowed_requests"], 10, 64)
	denied, _ := strconv.ParseInt(statsMap["denied_requests"], 10, 64)

	used := int(usedCmd.Val())
	available := maxRequests - used
	if available < 0 {
		available = 0
	}

	return &Stats{
		MaxRequests:     maxRequests,
		Window:          time.Duration(windowNs),
		Used:            used,
		Available:       available,
		TotalRequests:   total,
		AllowedRequests: allowed,
		DeniedRequests:  denied,
		ActiveInstances: instancesCmd.Val(),
	}, nil
}

// Prune drops aged-out log entries remotely. The janitor runs this
// periodically so idle limiters do not hold stale members until the
// next admission.
func (sw *slidingWindow) Prune(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, sw.config.RedisTimeout)
	defer cancel()

	cutoff := time.Now().UnixNano() - sw.config.Window.Nanoseconds()
	if err := sw.pruneScript.Run(ctx, sw.config.Redis, []string{sw.keys.log}, cutoff).Err(); err != nil && err != redis.Nil {
		return gferrors.NewOperationError("distributed", "prune", err)
	}
	return nil
}

func (sw *slidingWindow) Reset(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, sw.config.RedisTimeout)
	defer cancel()

	err := sw.config.Redis.Del(ctx,
		sw.keys.log, sw.keys.config, sw.keys.stats, sw.keys.instances,
	).Err()
	if err != nil {
		return gferrors.NewOperationError("distributed", "reset", err)
	}

	return sw.register(ctx)
}

func (sw *slidingWindow) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), sw.config.RedisTimeout)
	defer cancel()

	return sw.config.Redis.SRem(ctx, sw.keys.instances, sw.config.InstanceID).Err()
}

// luaAdmit prunes the window, counts it, and admits atomically.
const luaAdmit = `
-- KEYS[1]: window log (sorted set scored by request time)
-- KEYS[2]: stats hash
-- ARGV[1]: now (ns)
-- ARGV[2]: window cutoff (ns)
-- ARGV[3]: requested count
-- ARGV[4]: window capacity
-- ARGV[5]: key ttl (s)

local log_key = KEYS[1]
local stats_key = KEYS[2]

local now = tonumber(ARGV[1])
local cutoff = tonumber(ARGV[2])
local requested = tonumber(ARGV[3])
local capacity = tonumber(ARGV[4])
local ttl = tonumber(ARGV[5])

redis.call('ZREMRANGEBYSCORE', log_key, '-inf', cutoff)

local used = redis.call('ZCARD', log_key)
redis.call('HINCRBY', stats_key, 'total_requests', requested)

if used + requested > capacity then
    redis.call('HINCRBY', stats_key, 'denied_requests', requested)
    return 0
end

for i = 1, requested do
    local score = now + i - 1
    redis.call('ZADD', log_key, score, score .. ':' .. math.random(1000000))
end
redis.call('EXPIRE', log_key, ttl)
redis.call('HINCRBY', stats_key, 'allowed_requests', requested)

return 1
`

// luaPrune drops entries at or before the cutoff.
const luaPrune = `
-- KEYS[1]: window log
-- ARGV[1]: window cutoff (ns)

return redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', tonumber(ARGV[1]))
`
