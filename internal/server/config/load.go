package config

import (
	"fmt"

	"github.com/yndnr/statictls/internal/infra/confloader"
)

// Load builds the effective configuration. Sources are applied over
// Default() in order: file (if path is set), STATICTLS_* environment,
// then overrides keyed by dotted names such as "server.addr".
// The result is not verified.
func Load(path string, overrides map[string]any) (*ServerConfig, error) {
	cfg := Default()

	loader := confloader.NewLoader(
		confloader.WithConfigFile(path),
		confloader.WithOverrides(overrides),
	)
	if err := loader.Load(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}
