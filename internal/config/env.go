// Package config loads heatsim defaults from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Env holds environment-provided defaults. Flags override every field.
type Env struct {
	Output     string    `env:"HEATSIM_OUTPUT" envDefault:"text"`
	Threads    int       `env:"HEATSIM_THREADS" envDefault:"0"`
	Thresholds []float64 `env:"HEATSIM_THRESHOLDS" envSeparator:","`
	Quiet      bool      `env:"HEATSIM_QUIET"`

	OTelEndpoint string `env:"HEATSIM_OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"HEATSIM_OTEL_ENABLED" envDefault:"true"`
	ServiceName  string `env:"HEATSIM_SERVICE_NAME" envDefault:"heatsim"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses Env from the process environment.
func Load() (Env, error) {
	var e Env
	err := ParseEnv(&e)
	return e, err
}
