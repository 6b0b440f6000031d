// Command authengine runs the identity and access management API.
//
//	authengine          start the HTTP server
//	authengine keygen   print a fresh TOTP_ENCRYPTION_KEY
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/authengine/pkg/api"
	"github.com/dmitrymomot/authengine/pkg/audit"
	"github.com/dmitrymomot/authengine/pkg/auth"
	"github.com/dmitrymomot/authengine/pkg/clientip"
	"github.com/dmitrymomot/authengine/pkg/httpserver"
	"github.com/dmitrymomot/authengine/pkg/introspect"
	"github.com/dmitrymomot/authengine/pkg/jwt"
	"github.com/dmitrymomot/authengine/pkg/logger"
	"github.com/dmitrymomot/authengine/pkg/mongo"
	"github.com/dmitrymomot/authengine/pkg/pg"
	"github.com/dmitrymomot/authengine/pkg/ratelimiter"
	"github.com/dmitrymomot/authengine/pkg/rbac"
	"github.com/dmitrymomot/authengine/pkg/rbacstore"
	"github.com/dmitrymomot/authengine/pkg/redis"
	"github.com/dmitrymomot/authengine/pkg/requestid"
	"github.com/dmitrymomot/authengine/pkg/session"
	"github.com/dmitrymomot/authengine/pkg/totp"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "keygen" {
		key, err := totp.GenerateEncryptionKey()
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to generate key:", err)
			os.Exit(1)
		}
		fmt.Println(key)
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load configuration:", err)
		os.Exit(1)
	}

	log := logger.NewFromConfig(cfg.Log,
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("authengine stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	// Postgres: schema and RBAC store.
	pool, err := pg.Connect(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer pool.Close()

	db := pg.OpenDB(pool)
	defer db.Close()

	if cfg.Postgres.AutoMigrate {
		if err := pg.Migrate(ctx, db, rbacstore.Migrations, rbacstore.MigrationsDir, cfg.Postgres, log); err != nil {
			return err
		}
	}

	store := rbacstore.New(db)
	boot, err := rbac.Bootstrap(ctx, store, rbac.DefaultCatalog(), cfg.Bootstrap, log)
	if err != nil {
		return err
	}
	log.InfoContext(ctx, "rbac bootstrapped", logger.TenantID(boot.PlatformTenant.ID))

	// Redis: sessions, blacklist and one-time flags.
	redisClient, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	kv := redis.NewStorageWithConfig(redisClient, cfg.Redis)
	sessions := session.NewManager(kv,
		session.WithConfig(cfg.Session),
		session.WithLogger(log),
	)

	checks := []httpserver.Check{
		{Name: "postgres", Fn: pg.Healthcheck(pool)},
		{Name: "redis", Fn: redis.Healthcheck(redisClient)},
	}

	// Audit trail: MongoDB when configured, otherwise the application log.
	var (
		auditStorage audit.Storage = audit.NewLogStorage(log)
		auditReader  api.AuditReader
	)
	if cfg.Mongo != nil {
		client, err := mongo.New(ctx, *cfg.Mongo)
		if err != nil {
			return err
		}
		defer func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(dctx)
		}()

		mongoStorage := audit.NewMongoStorage(client.Database(cfg.Mongo.Database).Collection(cfg.Audit.Collection))
		if err := mongoStorage.EnsureIndexes(ctx); err != nil {
			return err
		}
		auditStorage = mongoStorage
		auditReader = mongoStorage
		checks = append(checks, httpserver.Check{Name: "mongodb", Fn: mongo.Healthcheck(client)})
	}

	auditSink := audit.NewAsyncSink(auditStorage,
		audit.FromConfig(cfg.Audit),
		audit.WithLogger(log),
	)
	defer func() {
		cctx, cancel := context.WithTimeout(context.Background(), cfg.Audit.StorageTimeout+time.Second)
		defer cancel()
		if err := auditSink.Close(cctx); err != nil {
			log.Error("failed to flush audit events", logger.Error(err))
		}
	}()

	// Tokens and authentication strategies.
	tokens, err := jwt.New(cfg.JWT)
	if err != nil {
		return err
	}

	box, err := totp.NewSecretBoxFromConfig(cfg.TOTP)
	if err != nil {
		return err
	}

	strategies := []auth.Strategy{
		auth.NewPasswordStrategy(store, tokens),
		auth.NewMagicLinkStrategy(tokens, kv, store, auth.DefaultMagicLinkTTL),
		auth.NewTOTPStrategy(totp.NewVerifier(box, cfg.TOTP.ValidWindow, nil)),
	}
	oauthOpts := []auth.OAuthOption{auth.WithStateStore(kv)}
	if cfg.Google.Enabled() {
		strategies = append(strategies, auth.NewGoogleStrategy(cfg.Google, tokens, oauthOpts...))
	}
	if cfg.GitHub.Enabled() {
		strategies = append(strategies, auth.NewGitHubStrategy(cfg.GitHub, tokens, oauthOpts...))
	}
	if cfg.Microsoft.Enabled() {
		strategies = append(strategies, auth.NewMicrosoftStrategy(cfg.Microsoft, tokens, oauthOpts...))
	}

	authenticator := auth.NewAuthenticator(
		auth.WithStrategies(strategies...),
		auth.WithAuthLogger(log),
	)

	apiOpts := []api.Option{
		api.WithLogger(log),
		api.WithLinkSender(api.NewLogLinkSender(log)),
		api.WithClientIP(clientip.NewFromConfig(cfg.ClientIP)),
		api.WithReadinessChecks(checks...),
		api.WithMetricsHandler(promhttp.Handler()),
		api.WithIntrospectionKeys(cfg.IntrospectionKeys...),
		api.WithMFA(box, cfg.TOTP, kv),
		api.WithOAuthSuccessURL(cfg.OAuthSuccessURL),
		api.WithPasswordCost(cfg.PasswordCost),
	}
	if !cfg.RateLimit.Disabled {
		limiter, err := ratelimiter.NewBucket(ratelimiter.NewRedisStore(redisClient), cfg.RateLimit)
		if err != nil {
			return err
		}
		apiOpts = append(apiOpts, api.WithRateLimiter(limiter))
	}

	handler := api.New(api.Deps{
		Authenticator: authenticator,
		Tokens:        tokens,
		Sessions:      sessions,
		Introspector:  introspect.NewService(tokens, sessions, store, introspect.WithLogger(log)),
		Users:         store,
		RBAC:          rbac.NewService(store, rbac.WithAuditSink(auditSink), rbac.WithLogger(log)),
		AuditLog:      auditReader,
	}, apiOpts...)

	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
	return srv.Run(ctx, handler.Routes())
}
