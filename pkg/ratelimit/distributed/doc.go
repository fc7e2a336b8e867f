// Package distributed provides a sliding window rate limiter coordinated
// through Redis, so several process instances share one admission quota.
//
// Request timestamps live in a Redis sorted set; a single Lua script
// prunes aged-out entries, counts the window, and admits or denies
// atomically. An optional local fallback (the in-memory window limiter)
// keeps each process bounded when Redis is unreachable.
//
// Basic usage:
//
//	local, _ := window.NewSafe(100, time.Second)
//	limiter, err := distributed.NewWithConfigSafe(distributed.Config{
//		Redis:       client,
//		Key:         "goguard:api-quota",
//		MaxRequests: 100,
//		Window:      time.Second,
//		Fallback:    local,
//	})
//	if err != nil {
//		return err
//	}
//	defer limiter.Close()
//
//	if err := limiter.Wait(ctx); err != nil {
//		return err
//	}
package distributed
