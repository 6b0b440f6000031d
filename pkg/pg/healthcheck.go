package pg

import (
	"context"
	"errors"
	"time"
)

// HealthcheckTimeout bounds a readiness ping when the caller set no deadline.
const HealthcheckTimeout = 2 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

// Healthcheck returns a readiness check for the entity store.
// *pgxpool.Pool and *pgx.Conn both satisfy pinger.
func Healthcheck(conn pinger) func(context.Context) error {
	return func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, HealthcheckTimeout)
			defer cancel()
		}
		if err := conn.Ping(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
