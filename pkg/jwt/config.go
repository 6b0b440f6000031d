package jwt

import "time"

// Config holds token issuing settings.
type Config struct {
	SecretKey  string        `env:"JWT_SECRET_KEY,required"`
	Issuer     string        `env:"JWT_ISSUER" envDefault:"authengine"`
	Audience   string        `env:"JWT_AUDIENCE" envDefault:"authengine-api"`
	AccessTTL  time.Duration `env:"JWT_ACCESS_TTL" envDefault:"30m"`
	RefreshTTL time.Duration `env:"JWT_REFRESH_TTL" envDefault:"168h"`
	Leeway     time.Duration `env:"JWT_LEEWAY" envDefault:"0s"`
}

const (
	DefaultIssuer     = "authengine"
	DefaultAudience   = "authengine-api"
	DefaultAccessTTL  = 30 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)
