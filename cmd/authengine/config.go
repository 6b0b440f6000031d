package main

import (
	"os"

	"github.com/dmitrymomot/authengine/pkg/audit"
	"github.com/dmitrymomot/authengine/pkg/auth"
	"github.com/dmitrymomot/authengine/pkg/clientip"
	"github.com/dmitrymomot/authengine/pkg/config"
	"github.com/dmitrymomot/authengine/pkg/httpserver"
	"github.com/dmitrymomot/authengine/pkg/jwt"
	"github.com/dmitrymomot/authengine/pkg/logger"
	"github.com/dmitrymomot/authengine/pkg/mongo"
	"github.com/dmitrymomot/authengine/pkg/pg"
	"github.com/dmitrymomot/authengine/pkg/ratelimiter"
	"github.com/dmitrymomot/authengine/pkg/rbac"
	"github.com/dmitrymomot/authengine/pkg/redis"
	"github.com/dmitrymomot/authengine/pkg/session"
	"github.com/dmitrymomot/authengine/pkg/totp"
)

// appConfig is the whole service configuration, read from the environment.
type appConfig struct {
	Log logger.Config

	// IntrospectionKeys protects POST /v1/introspect. Empty leaves it open.
	IntrospectionKeys []string `env:"INTROSPECTION_API_KEYS" envSeparator:","`
	// OAuthSuccessURL receives completed OAuth logins with tokens in the fragment.
	OAuthSuccessURL string `env:"OAUTH_SUCCESS_URL"`
	// PasswordCost is the bcrypt cost for passwords set at registration.
	PasswordCost int `env:"PASSWORD_BCRYPT_COST" envDefault:"10"`

	HTTP      httpserver.Config
	ClientIP  clientip.Config
	Postgres  pg.Config
	Redis     redis.Config
	Audit     audit.Config
	RateLimit ratelimiter.Config
	JWT       jwt.Config
	Session   session.Config
	TOTP      totp.Config
	Bootstrap rbac.BootstrapConfig

	Google    auth.OAuthProviderConfig `envPrefix:"GOOGLE_OAUTH_"`
	GitHub    auth.OAuthProviderConfig `envPrefix:"GITHUB_OAUTH_"`
	Microsoft auth.OAuthProviderConfig `envPrefix:"MICROSOFT_OAUTH_"`

	// Mongo is nil when MONGODB_URL is unset; audit events then go to the log.
	Mongo *mongo.Config `env:"-"`
}

func loadConfig() (appConfig, error) {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return cfg, err
	}

	if os.Getenv("MONGODB_URL") != "" {
		var m mongo.Config
		if err := config.Load(&m); err != nil {
			return cfg, err
		}
		cfg.Mongo = &m
	}

	return cfg, nil
}
