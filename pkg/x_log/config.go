// file:cas/pkg/x_log/config.go
package x_log

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

//---------------------
// Config
//---------------------

// Config controls where log lines go and how they look.
type Config struct {
	Level       string `json:"level" mapstructure:"level"`
	LogFile     string `json:"log_file" mapstructure:"log_file"`
	ToConsole   bool   `json:"to_console" mapstructure:"to_console"`
	ToFile      bool   `json:"to_file" mapstructure:"to_file"`
	ColoredFile bool   `json:"colored_file" mapstructure:"colored_file"`
	Style       string `json:"style" mapstructure:"style"` // dark or light
	MaxSize     int    `json:"max_size" mapstructure:"max_size"`       // MB
	MaxBackups  int    `json:"max_backups" mapstructure:"max_backups"` // rotated files
	MaxAge      int    `json:"max_age" mapstructure:"max_age"`         // days
	Compress    bool   `json:"compress" mapstructure:"compress"`
}

const defaultConfigPath = "./xlog.json"

var defaultConfig = Config{
	Level:      "info",
	LogFile:    "logs/cas.log",
	ToConsole:  true,
	Style:      "dark",
	MaxSize:    10,
	MaxBackups: 5,
	MaxAge:     7,
	Compress:   true,
}

// DefaultConfig returns a copy of the built-in configuration.
func DefaultConfig() Config { return defaultConfig }

//---------------------
// Loading
//---------------------

// LoadConfig reads a JSON config file. An empty path falls back to
// XLOG_CONFIG and then ./xlog.json; a missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("XLOG_CONFIG")
		if path == "" {
			path = defaultConfigPath
		}
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig
			return &cfg, nil
		}
		return nil, fmt.Errorf("read log config %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse log config %s: %w", path, err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// applyDefaults fills zero fields from defaultConfig.
func applyDefaults(cfg *Config) {
	if cfg.Level == "" {
		cfg.Level = defaultConfig.Level
	}
	if cfg.LogFile == "" {
		cfg.LogFile = defaultConfig.LogFile
	}
	if cfg.Style == "" {
		cfg.Style = defaultConfig.Style
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = defaultConfig.MaxSize
	}
	if cfg.MaxBackups <= 0 {
		cfg.MaxBackups = defaultConfig.MaxBackups
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = defaultConfig.MaxAge
	}
}
