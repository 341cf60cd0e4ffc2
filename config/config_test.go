package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rskv-p/cas/config"
	"github.com/rskv-p/cas/pkg/x_cas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Default(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "int64", cfg.ValueType)

	opts, err := cfg.IndexOptions()
	require.NoError(t, err)
	o := x_cas.DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	assert.Equal(t, x_cas.LazyFast, o.InsertMain)
	assert.Equal(t, x_cas.StrictSlow, o.Delete)
	assert.Equal(t, x_cas.MainOnly, o.Target)
	assert.Equal(t, 0, o.MergeThreshold)
}

func TestConfig_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cas.json")
	content := `{"value_type": "string", "index": {"target": "main+aux", "merge_threshold": 64}, "api": {"jwt_secret": "${CAS_TEST_SECRET}"}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CAS_TEST_SECRET", "s3cret")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "string", cfg.ValueType)
	assert.Equal(t, "main+aux", cfg.Index.Target)
	assert.Equal(t, 64, cfg.Index.MergeThreshold)
	assert.Equal(t, "s3cret", cfg.API.JWTSecret)
	// untouched sections keep their defaults
	assert.Equal(t, "lazy", cfg.Index.InsertMain)
	assert.Equal(t, "sqlite", cfg.DB.Driver)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	cfg := config.Default()
	cfg.ValueType = "float"
	cfg.Index.Delete = "eager"
	cfg.DB.Driver = "mysql"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "value_type")
	assert.Contains(t, err.Error(), "index.delete")
	assert.Contains(t, err.Error(), "db.driver")
	assert.ErrorIs(t, func() error { _, err := cfg.IndexOptions(); return err }(), x_cas.ErrUnknownPolicy)
}

func TestConfig_ApplyOverrides(t *testing.T) {
	cfg := config.Default()
	set, err := config.ParseSet([]string{
		"index.merge_threshold=500",
		"index.target=aux",
		"db.slow_threshold=1s",
		"nats.embedded=true",
		"log.level=debug",
	})
	require.NoError(t, err)
	require.NoError(t, cfg.ApplyOverrides(set))

	assert.Equal(t, 500, cfg.Index.MergeThreshold)
	assert.Equal(t, "aux", cfg.Index.Target)
	assert.Equal(t, time.Second, cfg.DB.SlowThreshold)
	assert.True(t, cfg.NATS.Embedded)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "fast", cfg.Index.Merge)

	assert.Error(t, cfg.ApplyOverrides(map[string]any{"index.nope": 1}))
	_, err = config.ParseSet([]string{"novalue"})
	assert.Error(t, err)
}

func TestConfig_New(t *testing.T) {
	t.Setenv("CAS_TEST_MERGE", "slow")
	cfg, err := config.New(
		config.FromEnv("CAS_TEST_"),
		config.WithOverrides(map[string]any{"api.addr": ":9090"}),
	)
	require.NoError(t, err)
	assert.Equal(t, "slow", cfg.Index.Merge)
	assert.Equal(t, ":9090", cfg.API.Addr)

	cfg, err = config.New(config.FromJSON("nonexistent.json"))
	assert.Nil(t, cfg)
	assert.Error(t, err)
}

func TestConfig_LoadWithFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cas.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"value_type": "int32"}`), 0o600))
	t.Setenv("CAS_CONFIG", path)
	t.Setenv("CAS_MERGE_THRESHOLD", "7")

	cfg := config.LoadWithFallback()
	assert.Equal(t, "int32", cfg.ValueType)
	assert.Equal(t, 7, cfg.Index.MergeThreshold)
	assert.NotPanics(t, func() { config.MustLoadFromEnv() })
}

func TestConfig_StringAndDump(t *testing.T) {
	cfg := config.Default()
	assert.Contains(t, cfg.String(), `"value_type": "int64"`)

	var buf bytes.Buffer
	cfg.Dump(&buf)
	assert.Contains(t, buf.String(), `"merge": "fast"`)
}
