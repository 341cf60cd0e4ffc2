// file: cas/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rskv-p/cas/pkg/x_cas"
	"github.com/rskv-p/cas/pkg/x_db"
	"github.com/rskv-p/cas/pkg/x_log"
)

// Config holds the index policies and the settings of every outer surface.
type Config struct {
	ValueType string        `json:"value_type" mapstructure:"value_type"` // int32, int64 or string
	Index     IndexSettings `json:"index" mapstructure:"index"`
	Log       x_log.Config  `json:"log" mapstructure:"log"`
	DB        DBSettings    `json:"db" mapstructure:"db"`
	API       APISettings   `json:"api" mapstructure:"api"`
	NATS      NATSSettings  `json:"nats" mapstructure:"nats"`
}

// IndexSettings names the update policies by their string form.
type IndexSettings struct {
	InsertMain     string `json:"insert_main" mapstructure:"insert_main"`
	InsertAux      string `json:"insert_aux" mapstructure:"insert_aux"`
	Delete         string `json:"delete" mapstructure:"delete"`
	Target         string `json:"target" mapstructure:"target"`
	Merge          string `json:"merge" mapstructure:"merge"`
	MergeThreshold int    `json:"merge_threshold" mapstructure:"merge_threshold"`
	Delimiter      string `json:"delimiter" mapstructure:"delimiter"` // CSV field separator
}

type DBSettings struct {
	Driver        string        `json:"driver" mapstructure:"driver"` // sqlite or postgres
	DSN           string        `json:"dsn" mapstructure:"dsn"`
	SlowThreshold time.Duration `json:"slow_threshold" mapstructure:"slow_threshold"`
}

type APISettings struct {
	Addr      string `json:"addr" mapstructure:"addr"`
	JWTSecret string `json:"jwt_secret" mapstructure:"jwt_secret"` // empty disables auth
	AdminUser string `json:"admin_user" mapstructure:"admin_user"`
	AdminHash string `json:"admin_hash" mapstructure:"admin_hash"` // bcrypt; empty disables /api/login
	CacheSize int64  `json:"cache_size" mapstructure:"cache_size"` // cached matches; 0 disables
	Metrics   bool   `json:"metrics" mapstructure:"metrics"`
}

type NATSSettings struct {
	URL      string        `json:"url" mapstructure:"url"`
	Embedded bool          `json:"embedded" mapstructure:"embedded"`
	Host     string        `json:"host" mapstructure:"host"`
	Port     int           `json:"port" mapstructure:"port"`
	Prefix   string        `json:"prefix" mapstructure:"prefix"`
	Timeout  time.Duration `json:"timeout" mapstructure:"timeout"`
}

// Default returns a default config.
func Default() *Config {
	return &Config{
		ValueType: "int64",
		Index: IndexSettings{
			InsertMain: "lazy",
			InsertAux:  "lazy",
			Delete:     "strict",
			Target:     "main",
			Merge:      "fast",
			Delimiter:  ";",
		},
		Log: x_log.DefaultConfig(),
		DB: DBSettings{
			Driver:        "sqlite",
			DSN:           "cas.db",
			SlowThreshold: 200 * time.Millisecond,
		},
		API: APISettings{
			Addr:      ":8080",
			AdminUser: "admin",
			CacheSize: 10000,
			Metrics:   true,
		},
		NATS: NATSSettings{
			URL:     "nats://127.0.0.1:4222",
			Host:    "127.0.0.1",
			Port:    4222,
			Prefix:  "cas",
			Timeout: 5 * time.Second,
		},
	}
}

// Load reads a JSON file over the defaults. ${VAR} references are expanded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	data = ReplaceEnvVars(data)

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config json: %w", err)
	}
	return cfg, nil
}

// LoadFromEnv loads config from environment using prefix.
func LoadFromEnv(prefix string) *Config {
	cfg := Default()
	applyEnv(cfg, prefix)
	return cfg
}

func applyEnv(cfg *Config, prefix string) {
	cfg.ValueType = GetEnvStr(prefix+"VALUE_TYPE", cfg.ValueType)

	cfg.Index.InsertMain = GetEnvStr(prefix+"INSERT_MAIN", cfg.Index.InsertMain)
	cfg.Index.InsertAux = GetEnvStr(prefix+"INSERT_AUX", cfg.Index.InsertAux)
	cfg.Index.Delete = GetEnvStr(prefix+"DELETE", cfg.Index.Delete)
	cfg.Index.Target = GetEnvStr(prefix+"TARGET", cfg.Index.Target)
	cfg.Index.Merge = GetEnvStr(prefix+"MERGE", cfg.Index.Merge)
	cfg.Index.MergeThreshold = GetEnvInt(prefix+"MERGE_THRESHOLD", cfg.Index.MergeThreshold)
	cfg.Index.Delimiter = GetEnvStr(prefix+"DELIMITER", cfg.Index.Delimiter)

	cfg.Log.Level = GetEnvStr(prefix+"LOG_LEVEL", cfg.Log.Level)
	cfg.Log.ToFile = GetEnvBool(prefix+"LOG_TO_FILE", cfg.Log.ToFile)
	cfg.Log.LogFile = GetEnvStr(prefix+"LOG_FILE", cfg.Log.LogFile)

	cfg.DB.Driver = GetEnvStr(prefix+"DB_DRIVER", cfg.DB.Driver)
	cfg.DB.DSN = GetEnvStr(prefix+"DB_DSN", cfg.DB.DSN)
	cfg.DB.SlowThreshold = GetEnvDuration(prefix+"DB_SLOW", cfg.DB.SlowThreshold)

	cfg.API.Addr = GetEnvStr(prefix+"API_ADDR", cfg.API.Addr)
	cfg.API.JWTSecret = GetEnvStr(prefix+"JWT_SECRET", cfg.API.JWTSecret)
	cfg.API.AdminUser = GetEnvStr(prefix+"ADMIN_USER", cfg.API.AdminUser)
	cfg.API.AdminHash = GetEnvStr(prefix+"ADMIN_HASH", cfg.API.AdminHash)
	cfg.API.CacheSize = int64(GetEnvInt(prefix+"CACHE_SIZE", int(cfg.API.CacheSize)))
	cfg.API.Metrics = GetEnvBool(prefix+"METRICS", cfg.API.Metrics)

	cfg.NATS.URL = GetEnvStr(prefix+"NATS_URL", cfg.NATS.URL)
	cfg.NATS.Embedded = GetEnvBool(prefix+"NATS_EMBEDDED", cfg.NATS.Embedded)
	cfg.NATS.Port = GetEnvInt(prefix+"NATS_PORT", cfg.NATS.Port)
	cfg.NATS.Timeout = GetEnvDuration(prefix+"NATS_TIMEOUT", cfg.NATS.Timeout)
	cfg.NATS.Prefix = GetEnvStr(prefix+"NATS_PREFIX", cfg.NATS.Prefix)
}

// LoadWithFallback loads from CAS_CONFIG or env vars.
func LoadWithFallback() *Config {
	if path := os.Getenv("CAS_CONFIG"); path != "" {
		if cfg, err := Load(path); err == nil {
			applyEnv(cfg, "CAS_")
			return cfg
		}
	}
	return LoadFromEnv("CAS_")
}

// MustLoadFromEnv panics if config is invalid.
func MustLoadFromEnv() *Config {
	cfg := LoadWithFallback()
	if err := cfg.Validate(); err != nil {
		panic(err.Error())
	}
	return cfg
}

//---------------------
// Validation
//---------------------

// Validate checks config for usable values.
func (cfg *Config) Validate() error {
	var bad []string
	switch cfg.ValueType {
	case "int32", "int64", "string":
	default:
		bad = append(bad, fmt.Sprintf("value_type(%q)", cfg.ValueType))
	}
	if _, err := cfg.IndexOptions(); err != nil {
		bad = append(bad, err.Error())
	}
	if cfg.Index.MergeThreshold < 0 {
		bad = append(bad, "index.merge_threshold")
	}
	if len(cfg.Index.Delimiter) != 1 {
		bad = append(bad, "index.delimiter")
	}
	switch cfg.DB.Driver {
	case "sqlite", "postgres":
	default:
		bad = append(bad, fmt.Sprintf("db.driver(%q)", cfg.DB.Driver))
	}
	if cfg.DB.DSN == "" {
		bad = append(bad, "db.dsn")
	}
	if cfg.API.Addr == "" {
		bad = append(bad, "api.addr")
	}
	if cfg.NATS.Prefix == "" {
		bad = append(bad, "nats.prefix")
	}
	if !cfg.NATS.Embedded && cfg.NATS.URL == "" {
		bad = append(bad, "nats.url")
	}
	if cfg.NATS.Embedded && (cfg.NATS.Port < 0 || cfg.NATS.Port > 65535) {
		bad = append(bad, fmt.Sprintf("nats.port(%d)", cfg.NATS.Port))
	}
	if len(bad) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(bad, ", "))
	}
	return nil
}

// DBConfig converts the db section for x_db.
func (cfg *Config) DBConfig() x_db.Config {
	c := x_db.DefaultConfig()
	c.Type = x_db.DbType(cfg.DB.Driver)
	c.DSN = cfg.DB.DSN
	c.SlowThreshold = cfg.DB.SlowThreshold
	return c
}

// Delim returns the CSV field separator.
func (cfg *Config) Delim() rune {
	for _, r := range cfg.Index.Delimiter {
		return r
	}
	return ';'
}

// IndexOptions converts the index section into engine options.
func (cfg *Config) IndexOptions() ([]x_cas.Option, error) {
	s := cfg.Index
	insMain, err := x_cas.ParseUpdateType(s.InsertMain)
	if err != nil {
		return nil, fmt.Errorf("index.insert_main: %w", err)
	}
	insAux, err := x_cas.ParseUpdateType(s.InsertAux)
	if err != nil {
		return nil, fmt.Errorf("index.insert_aux: %w", err)
	}
	del, err := x_cas.ParseUpdateType(s.Delete)
	if err != nil {
		return nil, fmt.Errorf("index.delete: %w", err)
	}
	target, err := x_cas.ParseInsertTarget(s.Target)
	if err != nil {
		return nil, fmt.Errorf("index.target: %w", err)
	}
	merge, err := x_cas.ParseMergeMethod(s.Merge)
	if err != nil {
		return nil, fmt.Errorf("index.merge: %w", err)
	}
	return []x_cas.Option{
		x_cas.WithInsert(insMain, insAux),
		x_cas.WithDelete(del),
		x_cas.WithTarget(target),
		x_cas.WithMerge(merge, s.MergeThreshold),
	}, nil
}

func (cfg *Config) String() string {
	data, _ := json.MarshalIndent(cfg, "", "  ")
	return string(data)
}

func (cfg *Config) Dump(w io.Writer) {
	data, _ := json.MarshalIndent(cfg, "", "  ")
	_, _ = w.Write(data)
}
