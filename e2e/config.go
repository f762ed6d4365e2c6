package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// BACKEND_ADDR points the suite at a real backend. Empty means the
	// suite starts its own in-process fake.
	BackendAddr string `envconfig:"BACKEND_ADDR"`
	// E2E_DEBUG_JSON allows dumping full HTTP request/response bodies as JSON
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
