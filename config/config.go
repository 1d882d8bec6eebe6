// Package config loads middleware options from environment variables, with
// optional .env file support for development.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/AreYouFreeBusy/go-slack-auth/middleware"
	"github.com/AreYouFreeBusy/go-slack-auth/state"
)

// Config mirrors the middleware options that make sense as environment
// variables. Collaborators (protector, hooks, stores) are wired in code.
type Config struct {
	ClientID     string        `env:"CLIENT_ID,required"`
	ClientSecret string        `env:"CLIENT_SECRET,required"`
	Scopes       []string      `env:"SCOPES"        envDefault:"identify" envSeparator:" "`
	Team         string        `env:"TEAM"`
	CallbackPath string        `env:"CALLBACK_PATH" envDefault:"/signin-slack"`
	SignInScheme string        `env:"SIGNIN_SCHEME"`
	CookieSecure bool          `env:"COOKIE_SECURE" envDefault:"false"`
	StateTTL     time.Duration `env:"STATE_TTL"     envDefault:"10m"`

	// StateKey signs the state parameter. Required because the default
	// protector is derived from it.
	StateKey string `env:"STATE_KEY,required"`
}

// Load reads SLACK_*-prefixed configuration from the environment. A .env
// file in the working directory is applied first when present.
func Load() (*Config, error) {
	// Missing .env is the normal production case.
	_ = godotenv.Load()

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "SLACK_"}); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	return &cfg, nil
}

// Options converts the configuration into middleware options with a JWT
// state protector derived from StateKey.
func (c *Config) Options() (middleware.Options, error) {
	protector, err := state.NewJWTProtector(state.JWTConfig{
		SigningKey: []byte(c.StateKey),
		TTL:        c.StateTTL,
	})
	if err != nil {
		return middleware.Options{}, err
	}

	return middleware.Options{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Scopes:       c.Scopes,
		Team:         c.Team,
		CallbackPath: c.CallbackPath,
		SignInScheme: c.SignInScheme,
		CookieSecure: c.CookieSecure,
		StateTTL:     c.StateTTL,
		Protector:    protector,
	}, nil
}
