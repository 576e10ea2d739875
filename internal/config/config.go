package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"

	"islandora-handle-backend/internal/infrastructure/clients"
	"islandora-handle-backend/internal/infrastructure/repositories/fedora"
)

type (
	// Config is the application configuration
	Config struct {
		App      `yaml:"app"`
		Settings `yaml:"settings"`
		Log      `yaml:"logger"`
		Handle   clients.HandleConfig `yaml:"handle"`
		Fedora   fedora.Config        `yaml:"fedora"`
		Database Database             `yaml:"database"`
	}

	// App identifies the service
	App struct {
		Name    string `yaml:"name" env:"APP_NAME"`
		Version string `yaml:"version" env:"APP_VERSION"`
	}

	// Log configures logging
	Log struct {
		Verbosity int `yaml:"verbosity" env:"LOG_VERBOSITY"`
	}

	// Settings holds the serving addresses
	Settings struct {
		HTTPAddr string `yaml:"http-addr" env:"HTTP_ADDR"`
	}

	// Database selects the association store backend
	Database struct {
		Memory bool   `yaml:"memory" env:"DB_MEMORY"`
		PGURI  string `yaml:"pg-uri" env:"PG_URI"`
	}
)

// NewConfig loads configuration from an optional yaml file and the
// environment.
func NewConfig(path string) (*Config, error) {
	cfg := &Config{}

	// Defaults
	cfg.App.Name = "islandora-handle-backend"
	cfg.App.Version = "v1.0.0"
	cfg.Settings.HTTPAddr = ":8080"
	cfg.Handle = clients.DefaultHandleConfig()
	cfg.Fedora = fedora.DefaultConfig()
	cfg.Database.Memory = false

	if path != "" {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("config error: %w", err)
		}
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the loaded configuration for contradictions
func (c *Config) Validate() error {
	if c.Handle.Endpoint == "" {
		return fmt.Errorf("handle endpoint is required")
	}
	if c.Handle.Prefix == "" {
		return fmt.Errorf("handle prefix is required")
	}
	if !c.Database.Memory && c.Database.PGURI == "" {
		return fmt.Errorf("either database.memory or database.pg-uri must be set")
	}
	if !c.Database.Memory && c.Fedora.BaseURL == "" {
		return fmt.Errorf("fedora base_url is required outside memory mode")
	}
	return nil
}
