package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var defaultEnvLoaded sync.Once

// Load parses environment variables into v based on its `env` field tags.
//
// The default .env file in the working directory is loaded on the first call,
// if it exists. Variables already set in the process environment win over the
// file. Every call parses the environment again; callers are expected to load
// their configuration once at startup and pass it down explicitly.
//
// Example:
//
//	type DatabaseConfig struct {
//		URL     string `env:"DATABASE_URL,required"`
//		MaxConn int32  `env:"DATABASE_MAX_CONNS" envDefault:"10"`
//	}
//
//	var dbConfig DatabaseConfig
//	if err := config.Load(&dbConfig); err != nil {
//		// Handle error
//	}
func Load[T any](v *T) error {
	return LoadWithPrefix(v, "")
}

// LoadWithPrefix works like Load but only reads variables starting with
// prefix, which is stripped before matching the field tags.
func LoadWithPrefix[T any](v *T, prefix string) error {
	defaultEnvLoaded.Do(func() {
		// The .env file is optional.
		_ = godotenv.Load()
	})
	if v == nil {
		return ErrNilPointer
	}

	if err := env.ParseWithOptions(v, env.Options{Prefix: prefix}); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad works like Load but panics if configuration loading fails.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

// LoadEnv loads the given .env files into the process environment. Earlier
// files win over later ones, and variables already set win over all files.
// Without arguments it loads .env from the working directory.
func LoadEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil {
		return errors.Join(ErrLoadingEnvFile, err)
	}
	return nil
}

// MustLoadEnv works like LoadEnv but panics on failure.
func MustLoadEnv(paths ...string) {
	if err := LoadEnv(paths...); err != nil {
		panic(fmt.Sprintf("failed to load env files: %v", err))
	}
}
