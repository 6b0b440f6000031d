// Package rbacstore is the PostgreSQL implementation of rbac.Store.
//
// It runs on database/sql so it works with the pgx stdlib driver in
// production and with go-sqlmock in tests. The schema ships as goose
// migrations embedded in Migrations:
//
//	pool, _ := pg.Connect(ctx, cfg.Postgres)
//	db := pg.OpenDB(pool)
//	if err := pg.Migrate(ctx, db, rbacstore.Migrations, rbacstore.MigrationsDir, cfg.Postgres, log); err != nil {
//	    return err
//	}
//	store := rbacstore.New(db)
//
// GetUser and GetUserByEmail load the whole aggregate (assignments, roles,
// role permissions, tenants) with a single joined query. Emails are matched
// case-insensitively through a unique index on lower(email).
//
// Role assignments are inserted with ON CONFLICT DO NOTHING, so granting an
// existing triple is a no-op. Foreign key violations are mapped back to the
// missing entity: rbac.ErrUserNotFound, rbac.ErrRoleNotFound or
// rbac.ErrTenantNotFound, each joined with rbac.ErrNotFound.
package rbacstore
