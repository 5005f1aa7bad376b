package config

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// DotEnvFile is read before environment overrides are applied, if present
var DotEnvFile = ".env"

// loadDotEnv copies DotEnvFile into the process environment. Variables that are
// already set win over the file.
func loadDotEnv() error {
	if err := godotenv.Load(DotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// loadFromEnv overrides configuration with environment variables. Nested
// fields are looked up under the name in their envconfig tag, e.g. DB_HOST.
func loadFromEnv(config *Config) error {
	return envconfig.Process("", config)
}
