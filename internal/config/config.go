// Package config loads the environment-variable configuration recognized
// by fides services and clients (spec.md §6), using envconfig the way
// the pack's HTTP services do.
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// ServiceConfig is shared by cmd/registryd and cmd/trustd.
type ServiceConfig struct {
	Port          int           `envconfig:"PORT" default:"8080"`
	DatabaseURL   string        `envconfig:"DATABASE_URL"`
	DBPoolMax     int           `envconfig:"DB_POOL_MAX" default:"10"`
	CORSOrigin    string        `envconfig:"CORS_ORIGIN" default:"*"`
	NodeEnv       string        `envconfig:"NODE_ENV" default:"development"`
	DiscoveryURL  string        `envconfig:"DISCOVERY_URL"`
	ShutdownGrace time.Duration `envconfig:"SHUTDOWN_GRACE" default:"10s"`
}

// ClientConfig is used by cmd/fidesctl and any library caller wiring up
// a signer/resolver pair from the environment.
type ClientConfig struct {
	DiscoveryURL     string `envconfig:"DISCOVERY_URL"`
	TrustURL         string `envconfig:"TRUST_URL"`
	KeyDir           string `envconfig:"KEY_DIR" default:"./.fides/keys"`
	ActiveIdentifier string `envconfig:"ACTIVE_IDENTIFIER"`
}

// LoadService populates cfg from the environment.
func LoadService(cfg *ServiceConfig) error {
	return envconfig.Process("", cfg)
}

// LoadClient populates cfg from the environment.
func LoadClient(cfg *ClientConfig) error {
	return envconfig.Process("", cfg)
}
