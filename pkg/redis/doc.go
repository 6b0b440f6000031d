// Package redis connects to Redis and adapts it as the engine's key-value store.
//
// Storage implements session.Store on top of go-redis: session records,
// the token blacklist, magic-link flags, OAuth state and pending MFA secrets
// all live there with per-key TTLs. Take is a GETDEL, so one-time flags can
// be consumed only once even across instances.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	kv := redis.NewStorageWithConfig(client, cfg)
//	sessions := session.NewManager(kv)
//
// Keys lists by prefix with SCAN in batches of cfg.ScanBatchSize, so listing a
// user's sessions never blocks the server the way KEYS would.
package redis
