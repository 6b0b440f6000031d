// Package httpserver runs an http.Server with graceful shutdown and exposes
// liveness and readiness handlers.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
//	r.Get("/healthz", httpserver.LivenessHandler())
//	r.Get("/readyz", httpserver.ReadinessHandler(log,
//	    httpserver.Check{Name: "postgres", Fn: pg.Healthcheck(pool)},
//	))
//	if err := srv.Run(ctx, r); err != nil {
//	    log.Error("server stopped", logger.Error(err))
//	}
//
// Run returns after ctx is cancelled or SIGINT/SIGTERM arrives and in-flight
// requests have drained for at most the shutdown timeout.
package httpserver
