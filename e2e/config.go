package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// RELAY_ADDR points the suite at an already-running relay; when empty
	// the suite starts one in-process on a loopback port.
	RelayAddr string `envconfig:"RELAY_ADDR"`
	// E2E_SESSION_TIMEOUT shortens the idle window so the eviction
	// scenario stays fast.
	SessionTimeout string `envconfig:"E2E_SESSION_TIMEOUT" default:"500ms"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
