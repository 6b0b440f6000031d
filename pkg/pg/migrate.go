package pg

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"

	"github.com/dmitrymomot/authengine/pkg/logger"
)

// Migrate applies the pending goose migrations stored under dir in fsys,
// typically an embed.FS compiled into the binary. Versions are tracked in
// cfg.MigrationsTable. Each applied migration is logged.
func Migrate(ctx context.Context, db *sql.DB, fsys fs.FS, dir string, cfg Config, log *slog.Logger) error {
	if fsys == nil || dir == "" {
		return errors.Join(ErrFailedToApplyMigrations, ErrMigrationPathNotProvided)
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if _, err := fs.Stat(fsys, dir); err != nil {
		return errors.Join(ErrMigrationsDirNotFound, err)
	}
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return errors.Join(ErrMigrationsDirNotFound, err)
	}

	table := cfg.MigrationsTable
	if table == "" {
		table = "schema_migrations"
	}
	store, err := database.NewStore(database.DialectPostgres, table)
	if err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}

	// The dialect comes from the store; goose rejects both being set.
	provider, err := goose.NewProvider("", db, sub, goose.WithStore(store))
	if err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}

	results, err := provider.Up(ctx)
	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}
		log.InfoContext(ctx, "migration applied",
			logger.Component("migrate"),
			slog.Int64("version", r.Source.Version),
			slog.String("path", r.Source.Path),
			logger.Duration(r.Duration),
		)
	}
	if err != nil {
		return errors.Join(ErrFailedToApplyMigrations, err)
	}
	return nil
}
