// Package config loads typed configuration structs from environment
// variables. A .env file, if present, is loaded once per process before
// the first struct is parsed.
package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	// ErrNilPointer is returned when a nil destination is passed to Load.
	ErrNilPointer = errors.New("config: destination must be a non-nil pointer")
	// ErrParsingConfig wraps env parsing failures.
	ErrParsingConfig = errors.New("config: failed to parse environment")
)

var dotenvOnce sync.Once

// Load parses environment variables into the provided struct based on
// its `env` field tags.
//
// Example:
//
//	type AppConfig struct {
//		Environment string `env:"APP_ENV" envDefault:"development"`
//		JWTSecret   string `env:"JWT_SECRET,required"`
//	}
//
//	var cfg AppConfig
//	if err := config.Load(&cfg); err != nil { ... }
func Load[T any](v *T) error {
	dotenvOnce.Do(func() {
		// Missing .env is fine; real environments set variables directly.
		_ = godotenv.Load()
	})

	if v == nil {
		return ErrNilPointer
	}

	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad works like Load but panics on failure. Intended for
// configuration the application cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}
