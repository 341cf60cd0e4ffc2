package config_test

import (
	"testing"
	"time"

	"github.com/rskv-p/cas/config"
	"github.com/stretchr/testify/assert"
)

func TestGetEnvStr(t *testing.T) {
	t.Setenv("CAS_ENV_STR", "hello")
	assert.Equal(t, "hello", config.GetEnvStr("CAS_ENV_STR", "default"))
	assert.Equal(t, "default", config.GetEnvStr("CAS_ENV_MISSING", "default"))
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("CAS_ENV_INT", "123")
	assert.Equal(t, 123, config.GetEnvInt("CAS_ENV_INT", 42))

	t.Setenv("CAS_ENV_INT", "bad")
	assert.Equal(t, 42, config.GetEnvInt("CAS_ENV_INT", 42))
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("CAS_ENV_DUR", "250ms")
	assert.Equal(t, 250*time.Millisecond, config.GetEnvDuration("CAS_ENV_DUR", time.Second))

	t.Setenv("CAS_ENV_DUR", "soon")
	assert.Equal(t, time.Second, config.GetEnvDuration("CAS_ENV_DUR", time.Second))
}

// TestLoadFromEnv tests that CAS_ variables reach every section.
func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CAS_VALUE_TYPE", "string")
	t.Setenv("CAS_MERGE_THRESHOLD", "64")
	t.Setenv("CAS_NATS_TIMEOUT", "2s")
	t.Setenv("CAS_DB_SLOW", "1s")
	t.Setenv("CAS_METRICS", "no")

	cfg := config.LoadFromEnv("CAS_")
	assert.Equal(t, "string", cfg.ValueType)
	assert.Equal(t, 64, cfg.Index.MergeThreshold)
	assert.Equal(t, 2*time.Second, cfg.NATS.Timeout)
	assert.Equal(t, time.Second, cfg.DB.SlowThreshold)
	assert.False(t, cfg.API.Metrics)
}

func TestGetEnvBool(t *testing.T) {
	for v, want := range map[string]bool{"true": true, "1": true, "yes": true, "false": false, "0": false, "no": false} {
		t.Setenv("CAS_ENV_BOOL", v)
		assert.Equal(t, want, config.GetEnvBool("CAS_ENV_BOOL", !want), "value %q", v)
	}
	t.Setenv("CAS_ENV_BOOL", "invalid")
	assert.True(t, config.GetEnvBool("CAS_ENV_BOOL", true))
}

func TestParseEnvValue(t *testing.T) {
	assert.Equal(t, true, config.ParseEnvValue(" TRUE "))
	assert.Equal(t, 12, config.ParseEnvValue("12"))
	assert.Equal(t, "1s", config.ParseEnvValue("1s"))
}
