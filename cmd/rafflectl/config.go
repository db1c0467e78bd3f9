package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// cliConfig is ~/.rafflectl.yaml. Flags override it; RAFFLE_API_URL overrides
// api_url.
type cliConfig struct {
	APIURL    string        `yaml:"api_url"`
	StateFile string        `yaml:"state_file"`
	Timeout   time.Duration `yaml:"timeout"`
	JWTSecret string        `yaml:"jwt_secret"`
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

func defaultConfigPath() string {
	return filepath.Join(homeDir(), ".rafflectl.yaml")
}

func defaultCLIConfig() cliConfig {
	return cliConfig{
		APIURL:    "http://localhost:5000/api",
		StateFile: filepath.Join(homeDir(), ".rafflectl", "state.json"),
		Timeout:   10 * time.Second,
	}
}

// loadCLIConfig reads path over the defaults. A missing file is not an error.
func loadCLIConfig(path string) (cliConfig, error) {
	cfg := defaultCLIConfig()

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if v := os.Getenv("RAFFLE_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return cfg, nil
}
