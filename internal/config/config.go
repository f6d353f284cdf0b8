package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Timer     TimerConfig     `yaml:"timer"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns host:port for net.Listen.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type StorageConfig struct {
	Driver     string `yaml:"driver"` // sqlite, postgres or memory
	Path       string `yaml:"path"`
	Migrations string `yaml:"migrations"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
	File   string `yaml:"file"`
	Stdout bool   `yaml:"stdout"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type TimerConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server:    ServerConfig{Host: "127.0.0.1", Port: 8080},
		Storage:   StorageConfig{Driver: "sqlite", Path: "data/liftplan.db", Migrations: "migrations"},
		Database:  DatabaseConfig{Host: "localhost", Port: 5432, Name: "liftplan", User: "liftplan"},
		Log:       LogConfig{Level: "info", Format: "text", Stdout: true},
		Tailscale: TailscaleConfig{Hostname: "liftplan", StateDir: "tsnet-state"},
		Timer:     TimerConfig{Interval: time.Second},
	}
}

// Load reads config from a YAML file on top of Default, then applies
// environment variable overrides. An empty path skips the file.
// Env vars use the prefix LIFTPLAN_ and underscore-separated paths:
//
//	LIFTPLAN_SERVER_HOST, LIFTPLAN_SERVER_PORT,
//	LIFTPLAN_STORAGE_DRIVER, LIFTPLAN_STORAGE_PATH, LIFTPLAN_STORAGE_MIGRATIONS,
//	LIFTPLAN_DB_HOST, LIFTPLAN_DB_PORT, LIFTPLAN_DB_NAME,
//	LIFTPLAN_DB_USER, LIFTPLAN_DB_PASSWORD, LIFTPLAN_DB_SSLMODE,
//	LIFTPLAN_LOG_LEVEL, LIFTPLAN_LOG_FORMAT, LIFTPLAN_LOG_FILE,
//	LIFTPLAN_TAILSCALE_ENABLED, LIFTPLAN_TAILSCALE_HOSTNAME,
//	LIFTPLAN_TIMER_INTERVAL
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setString("LIFTPLAN_SERVER_HOST", &cfg.Server.Host)
	setInt("LIFTPLAN_SERVER_PORT", &cfg.Server.Port)

	setString("LIFTPLAN_STORAGE_DRIVER", &cfg.Storage.Driver)
	setString("LIFTPLAN_STORAGE_PATH", &cfg.Storage.Path)
	setString("LIFTPLAN_STORAGE_MIGRATIONS", &cfg.Storage.Migrations)

	setString("LIFTPLAN_DB_HOST", &cfg.Database.Host)
	setInt("LIFTPLAN_DB_PORT", &cfg.Database.Port)
	setString("LIFTPLAN_DB_NAME", &cfg.Database.Name)
	setString("LIFTPLAN_DB_USER", &cfg.Database.User)
	setString("LIFTPLAN_DB_PASSWORD", &cfg.Database.Password)
	setString("LIFTPLAN_DB_SSLMODE", &cfg.Database.SSLMode)

	setString("LIFTPLAN_LOG_LEVEL", &cfg.Log.Level)
	setString("LIFTPLAN_LOG_FORMAT", &cfg.Log.Format)
	setString("LIFTPLAN_LOG_FILE", &cfg.Log.File)

	if v := os.Getenv("LIFTPLAN_TAILSCALE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}
	setString("LIFTPLAN_TAILSCALE_HOSTNAME", &cfg.Tailscale.Hostname)

	if v := os.Getenv("LIFTPLAN_TIMER_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timer.Interval = d
		}
	}
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	switch c.Storage.Driver {
	case "sqlite":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for sqlite")
		}
	case "postgres":
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required")
		}
		if c.Database.Port == 0 {
			return fmt.Errorf("database.port is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required")
		}
	case "memory":
	default:
		return fmt.Errorf("storage.driver %q is not one of sqlite, postgres, memory", c.Storage.Driver)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q is not one of text, json", c.Log.Format)
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	if c.Timer.Interval <= 0 {
		return fmt.Errorf("timer.interval must be positive")
	}
	return nil
}
