// Package config loads application configuration from environment variables.
//
// It wraps `github.com/joho/godotenv` and `github.com/caarlos0/env/v11`:
//
//   - LoadEnv reads one or more .env files into the process environment.
//   - Load parses the environment into any struct using `env` field tags,
//     reading the default .env file once if it exists.
//   - LoadWithPrefix does the same for variables sharing a prefix.
//   - MustLoad and MustLoadEnv panic on failure.
//
// Nothing is cached. The service loads its composite configuration once in
// main and hands each package its own section:
//
//	type Config struct {
//		JWT     jwt.Config
//		Session session.Config
//		Google  auth.OAuthProviderConfig `envPrefix:"GOOGLE_"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
// Parsing failures wrap ErrParsingConfig and keep the underlying env error,
// so missing required variables can be reported by name.
package config
