// file: cas/config/option.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Option is a functional config initializer.
type Option func(*Config) error

// New builds a config from the defaults and opts, in order.
func New(opts ...Option) (*Config, error) {
	cfg := Default()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// FromJSON replaces the config with the content of a JSON file.
func FromJSON(path string) Option {
	return func(c *Config) error {
		loaded, err := Load(path)
		if err != nil {
			return err
		}
		*c = *loaded
		return nil
	}
}

// FromEnv overlays environment variables with prefix.
func FromEnv(prefix string) Option {
	return func(c *Config) error {
		applyEnv(c, prefix)
		return nil
	}
}

// WithOverrides applies dotted key overrides, see ApplyOverrides.
func WithOverrides(values map[string]any) Option {
	return func(c *Config) error {
		return c.ApplyOverrides(values)
	}
}

//---------------------
// Overrides
//---------------------

// ApplyOverrides decodes values such as {"index.merge_threshold": "500"}
// into cfg. Strings are converted to the field types.
func (cfg *Config) ApplyOverrides(values map[string]any) error {
	nested, err := nest(values)
	if err != nil {
		return err
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return fmt.Errorf("config decoder: %w", err)
	}
	if err := dec.Decode(nested); err != nil {
		return fmt.Errorf("apply overrides: %w", err)
	}
	return nil
}

// nest turns dotted keys into nested maps.
func nest(values map[string]any) (map[string]any, error) {
	out := map[string]any{}
	for key, v := range values {
		parts := strings.Split(strings.ToLower(key), ".")
		m := out
		for _, p := range parts[:len(parts)-1] {
			next, ok := m[p]
			if !ok {
				child := map[string]any{}
				m[p] = child
				m = child
				continue
			}
			child, ok := next.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("override %q conflicts with %q", key, p)
			}
			m = child
		}
		m[parts[len(parts)-1]] = v
	}
	return out, nil
}

// ParseSet turns "key=value" pairs into an override map.
func ParseSet(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("override %q: want key=value", p)
		}
		out[strings.TrimSpace(k)] = ParseEnvValue(v)
	}
	return out, nil
}

// ParseEnvValue tries to interpret strings like "true", "123", etc.
func ParseEnvValue(v string) any {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "true") {
		return true
	}
	if strings.EqualFold(v, "false") {
		return false
	}
	if i, err := strconv.Atoi(v); err == nil {
		return i
	}
	return v
}

// ReplaceEnvVars replaces ${ENV_VAR} in raw JSON.
func ReplaceEnvVars(data []byte) []byte {
	return []byte(os.Expand(string(data), func(key string) string {
		return os.Getenv(key)
	}))
}
