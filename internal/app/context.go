package app

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"ritech/internal/config"
)

const defaultDataset = "local-user"

// ResolveConfig loads the workspace config, seeding ritech.yml with defaults
// on first use. A non-empty dataset override wins over the file.
func ResolveConfig(workspace, dataset string) (*config.Config, error) {
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		seed := dataset
		if seed == "" {
			seed = defaultDataset
		}
		cfg = config.Default(seed)
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(config.Path(workspace), data, 0o644); err != nil {
			return nil, fmt.Errorf("seed config: %w", err)
		}
	}
	if dataset != "" {
		cfg.Company.Dataset = dataset
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SigningSecret returns the JWT secret for session tokens. Local CLI use
// falls back to a fixed development secret; `rt serve` refuses the fallback.
func SigningSecret() string {
	if s := os.Getenv("RITECH_JWT_SECRET"); s != "" {
		return s
	}
	return "ritech-local-dev"
}

// SigningSecretStrict returns the secret only if explicitly configured.
func SigningSecretStrict() (string, error) {
	s := os.Getenv("RITECH_JWT_SECRET")
	if s == "" {
		return "", fmt.Errorf("RITECH_JWT_SECRET is required for bearer auth")
	}
	return s, nil
}
