package x_log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestInitWithConfig tests level selection.
func TestInitWithConfig(t *testing.T) {
	for lvl, want := range map[string]zerolog.Level{
		"debug": zerolog.DebugLevel,
		"error": zerolog.ErrorLevel,
		"":      zerolog.InfoLevel,
		"bogus": zerolog.InfoLevel,
	} {
		InitWithConfig(&Config{Level: lvl}, "cas")
		assert.Equal(t, want, zerolog.GlobalLevel(), "level %q", lvl)
	}
	assert.Equal(t, "dark", Active().Style)
}

// TestNew tests the module field of scoped loggers.
func TestNew(t *testing.T) {
	InitWithConfig(&Config{Level: "info"}, "")
	var buf bytes.Buffer
	logger := New("index").Output(&buf)
	logger.Info().Str("path", "/usr/lib").Msg("loaded")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "index", entry["module"])
	assert.Equal(t, "/usr/lib", entry["path"])
}

// TestFileLogging tests JSON lines in a rotated log file.
func TestFileLogging(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cas.log")
	InitWithConfig(&Config{Level: "info", ToFile: true, LogFile: path}, "cas")
	Info().Int("keys", 3).Msg("bulk load")
	Debug().Msg("hidden")
	require.NoError(t, Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"message":"bulk load"`)
	assert.Contains(t, string(content), `"module":"cas"`)
	assert.NotContains(t, string(content), "hidden")

	lines, err := Tail(path, 10)
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

// TestContextLogger tests loggers carried by a context.
func TestContextLogger(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	var buf bytes.Buffer
	logger := zerolog.New(&buf).With().Str("module", "api").Logger()

	ctx := WithLogger(context.Background(), &logger)
	From(ctx).Info().Msg("from context")
	assert.Contains(t, buf.String(), `"module":"api"`)

	log.Logger = zerolog.New(&buf)
	assert.Same(t, &log.Logger, From(context.Background()))
}

// TestConsoleWriter tests the styled console output.
func TestConsoleWriter(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	for _, noColor := range []bool{false, true} {
		var buf bytes.Buffer
		styles := DefaultStylesDark()
		styles.Out = &buf
		styles.NoColor = noColor
		logger := zerolog.New(ConsoleWriterWithStyles(styles)).With().Timestamp().Logger()

		logger.Debug().Msg("debug message")
		logger.Warn().Str("did", "7").Msg("warn message")
		logger.Error().Err(errors.New("sample error")).Msg("error message")

		out := buf.String()
		assert.Contains(t, out, "debug message")
		assert.Contains(t, out, "did=")
		assert.Contains(t, out, "sample error")
		assert.Equal(t, 3, strings.Count(out, "\n"))
	}
}
