package config

import "os"

// parseEnv overlays connection settings from environment variables.
// Only variables that are set and non-empty take effect.
func parseEnv(cfg *Config) {
	if v := os.Getenv("SMARTCOOK_DB"); v != "" {
		cfg.LocalDBPath = v
	}
	if v := os.Getenv("SMARTCOOK_REMOTE_DSN"); v != "" {
		cfg.RemoteDSN = v
	}
	if v := os.Getenv("SMARTCOOK_OWNER"); v != "" {
		cfg.OwnerID = v
	}
}
