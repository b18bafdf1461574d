package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// config is the daemon's environment-driven configuration.
type config struct {
	Addr string `env:"IDENTITYD_ADDR" envDefault:":8080"`

	DatabaseURL string `env:"IDENTITYD_DATABASE_URL,required"`
	RedisAddr   string `env:"IDENTITYD_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisDB     int    `env:"IDENTITYD_REDIS_DB" envDefault:"0"`

	AccessSecret  string        `env:"IDENTITYD_ACCESS_SECRET,required"`
	RefreshSecret string        `env:"IDENTITYD_REFRESH_SECRET,required"`
	AccessTTL     time.Duration `env:"IDENTITYD_ACCESS_TTL" envDefault:"24h"`
	RefreshTTL    time.Duration `env:"IDENTITYD_REFRESH_TTL" envDefault:"168h"`
	Issuer        string        `env:"IDENTITYD_ISSUER" envDefault:"meridian-identity"`

	ResetTTL       time.Duration `env:"IDENTITYD_RESET_TTL" envDefault:"1h"`
	EmailChangeTTL time.Duration `env:"IDENTITYD_EMAIL_CHANGE_TTL" envDefault:"24h"`

	LoginAttempts int           `env:"IDENTITYD_LOGIN_ATTEMPTS" envDefault:"5"`
	LoginWindow   time.Duration `env:"IDENTITYD_LOGIN_WINDOW" envDefault:"15m"`

	OTELEndpoint string `env:"IDENTITYD_OTEL_ENDPOINT"`

	ShutdownTimeout time.Duration `env:"IDENTITYD_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

func loadConfig() (config, error) {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
