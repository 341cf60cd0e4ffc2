// Package cmd_env holds the flags shared by every subcommand and turns
// them into a loaded config and an installed logger.
package cmd_env

import (
	"fmt"
	"os"
	"sync"

	"github.com/rskv-p/cas/config"
	"github.com/rskv-p/cas/pkg/x_log"
	"github.com/spf13/cobra"
)

var (
	ConfigPath string
	Sets       []string
	LogLevel   string

	once   sync.Once
	loaded *config.Config
	err    error
)

// Bind registers the persistent flags on root.
func Bind(root *cobra.Command) {
	f := root.PersistentFlags()
	f.StringVarP(&ConfigPath, "config", "c", "", "JSON config file (default $CAS_CONFIG)")
	f.StringArrayVar(&Sets, "set", nil, "override a config key, e.g. --set index.merge_threshold=500")
	f.StringVar(&LogLevel, "log-level", "", "log level (debug, info, warn, error)")
}

// Config loads the config once: defaults, then the file, then CAS_ env
// vars, then --set overrides.
func Config() (*config.Config, error) {
	once.Do(func() {
		loaded, err = load()
	})
	return loaded, err
}

func load() (*config.Config, error) {
	path := ConfigPath
	if path == "" {
		path = os.Getenv("CAS_CONFIG")
	}
	overrides, err := config.ParseSet(Sets)
	if err != nil {
		return nil, err
	}

	var opts []config.Option
	if path != "" {
		opts = append(opts, config.FromJSON(path))
	}
	opts = append(opts, config.FromEnv("CAS_"), config.WithOverrides(overrides))
	cfg, err := config.New(opts...)
	if err != nil {
		return nil, err
	}
	if LogLevel != "" {
		cfg.Log.Level = LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Setup loads the config and installs the logger. It is the root
// PersistentPreRunE.
func Setup(cmd *cobra.Command, _ []string) error {
	cfg, err := Config()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	x_log.InitWithConfig(&cfg.Log, "")
	return nil
}
