// Package pg wires PostgreSQL through the pgx/v5 driver: pool setup with
// retries, goose migrations from an embedded filesystem, a healthcheck and
// helpers that classify *pgconn.PgError values.
//
// # Usage
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	db := pg.OpenDB(pool)
//	if err := pg.Migrate(ctx, db, rbacstore.Migrations, rbacstore.MigrationsDir, cfg, log); err != nil {
//	    return err
//	}
//
//	health := pg.Healthcheck(pool)
//
// # Configuration
//
// Values come from environment variables; see the field tags in Config. Only
// DATABASE_URL is required.
//
// # Error Handling
//
// [IsDuplicateKeyError], [IsForeignKeyViolationError] and [ConstraintName]
// unwrap *pgconn.PgError, which database/sql passes through unchanged when the
// pgx stdlib driver is used.
package pg
