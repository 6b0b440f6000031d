// Package ratelimiter throttles requests with a token bucket.
//
// Each key owns a bucket of Capacity tokens that regains RefillRate tokens
// every RefillInterval. A request takes one token; when none are left it is
// denied and the bucket is left untouched, so a client that keeps hammering
// recovers as soon as it backs off.
//
// MemoryStore keeps buckets per process. RedisStore runs the same algorithm
// in a Lua script so every instance shares one budget.
//
//	store := ratelimiter.NewRedisStore(redisClient)
//	limiter, err := ratelimiter.NewBucket(store, cfg)
//	if err != nil {
//		return err
//	}
//	r.With(ratelimiter.Middleware(limiter, ratelimiter.Composite(
//		ratelimiter.Static("login"),
//		func(r *http.Request) string { return clientip.FromContext(r.Context()) },
//	))).Post("/v1/auth/login", h.login)
package ratelimiter
