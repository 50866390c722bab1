// Package config loads process configuration from the environment.
package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
)

// Config holds everything the process reads from its environment. The
// payments projects blob stays an opaque string here; the payments package
// owns its parsing.
type Config struct {
	Port    string `env:"TESSERA_PORT" envDefault:"8080"`
	AppName string `env:"TESSERA_APP_NAME" envDefault:"tessera"`
	Env     string `env:"TESSERA_ENV" envDefault:"development"`

	DatabasePath       string `env:"TESSERA_DB_PATH" envDefault:"tessera.db"`
	TokenSigningSecret string `env:"TESSERA_TOKEN_SIGNING_SECRET,required"`
	TokenIssuer        string `env:"TESSERA_TOKEN_ISSUER" envDefault:"https://tessera.id"`

	PaymentsProjectsJSON string `env:"TESSERA_PAYMENTS_PROJECTS"`
	PaymentsSuccessURL   string `env:"TESSERA_PAYMENTS_SUCCESS_URL" envDefault:"https://example.com/purchase/success"`
	PaymentsCancelURL    string `env:"TESSERA_PAYMENTS_CANCEL_URL" envDefault:"https://example.com/purchase/cancel"`

	AllowedOrigins []string `env:"TESSERA_ALLOWED_ORIGINS" envSeparator:","`
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "[config.Load] parse environment")
	}
	return cfg, nil
}
