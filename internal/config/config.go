package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	DB          DBConfig          `yaml:"db"`
	Log         LogConfig         `yaml:"log"`
	Attribution AttributionConfig `yaml:"attribution"`
	Notes       NotesConfig       `yaml:"notes"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// AttributionConfig configures the conversion postback client and the
// reporting policy. An empty endpoint disables reporting entirely.
type AttributionConfig struct {
	Endpoint   string `yaml:"endpoint"`
	APIKey     string `yaml:"api_key"`
	APIVersion string `yaml:"api_version"`

	// LockThreshold is the minimum fine value that locks the attribution
	// window; the window bounds are days since install.
	LockThreshold int `yaml:"lock_threshold"`
	Window0Days   int `yaml:"window0_days"`
	Window1Days   int `yaml:"window1_days"`
	Window2Days   int `yaml:"window2_days"`
}

// NotesConfig holds the milestone note counts for conversion signals.
type NotesConfig struct {
	MultiNoteThreshold  int `yaml:"multi_note_threshold"`
	ActiveUserThreshold int `yaml:"active_user_threshold"`
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "pageone.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Attribution: AttributionConfig{
			APIVersion:    "v2",
			LockThreshold: 2,
			Window0Days:   2,
			Window1Days:   7,
			Window2Days:   35,
		},
		Notes: NotesConfig{
			MultiNoteThreshold:  3,
			ActiveUserThreshold: 5,
		},
	}

	if path := os.Getenv("PAGEONE_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("PAGEONE_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("PAGEONE_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PAGEONE_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("PAGEONE_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("PAGEONE_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if endpoint := os.Getenv("PAGEONE_ATTRIBUTION_ENDPOINT"); endpoint != "" {
		cfg.Attribution.Endpoint = endpoint
	}
	if apiKey := os.Getenv("PAGEONE_ATTRIBUTION_API_KEY"); apiKey != "" {
		cfg.Attribution.APIKey = apiKey
	}
	if version := os.Getenv("PAGEONE_ATTRIBUTION_API_VERSION"); version != "" {
		cfg.Attribution.APIVersion = version
	}

	switch cfg.Attribution.APIVersion {
	case "v2", "v1", "v0":
	default:
		return Config{}, fmt.Errorf("invalid attribution api_version %q", cfg.Attribution.APIVersion)
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
