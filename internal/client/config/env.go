package config

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// EnvConfig lists the environment variables the CLI honours.
type EnvConfig struct {
	ServerEndpointAddr string        `env:"XCONNECT_SERVER_ADDR"`
	AccessToken        string        `env:"XCONNECT_ACCESS_TOKEN"`
	RequestTimeout     time.Duration `env:"XCONNECT_REQUEST_TIMEOUT"`
}

// parseEnv overlays non-empty environment variables onto cfg.
func parseEnv(cfg *Config) {
	var e EnvConfig
	if err := cleanenv.ReadEnv(&e); err != nil {
		panic(err)
	}

	if e.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = e.ServerEndpointAddr
	}
	if e.AccessToken != "" {
		cfg.AccessToken = e.AccessToken
	}
	if e.RequestTimeout > 0 {
		cfg.RequestTimeout = e.RequestTimeout
	}
}
