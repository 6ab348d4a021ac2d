package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Bootstrap BootstrapConfig `yaml:"bootstrap"`
}

type ServerConfig struct {
	Name string `yaml:"name"`
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type AuthConfig struct {
	TokenSecret     string        `yaml:"token_secret"`
	SessionTokenTTL time.Duration `yaml:"session_token_ttl"`
}

// BootstrapConfig seeds the initial creator account on a fresh database.
// Leaving the password empty disables seeding.
type BootstrapConfig struct {
	CreatorUsername string `yaml:"creator_username"`
	CreatorPassword string `yaml:"creator_password"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("VOX_TOKEN_SECRET"); v != "" {
		c.Auth.TokenSecret = v
	}
	if v := os.Getenv("VOX_DATABASE_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("VOX_CREATOR_PASSWORD"); v != "" {
		c.Bootstrap.CreatorPassword = v
	}
}

func (c *Config) validate() error {
	if c.Auth.TokenSecret == "" {
		return fmt.Errorf("auth.token_secret is required")
	}
	if len(c.Auth.TokenSecret) < 32 {
		return fmt.Errorf("auth.token_secret must be at least 32 characters")
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Server.Name == "" {
		c.Server.Name = "Vox Server"
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/vox.db"
	}
	if c.Auth.SessionTokenTTL == 0 {
		c.Auth.SessionTokenTTL = 90 * 24 * time.Hour
	}
	if c.Bootstrap.CreatorUsername == "" {
		c.Bootstrap.CreatorUsername = "creator"
	}
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
