package recover_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	recoverpkg "github.com/rskv-p/cas/recover"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var panicHookTriggered bool
var panicCapturedComponent, panicCapturedFunc string
var panicCapturedValue any

func TestMain(m *testing.M) {
	recoverpkg.OnPanic = func(component, fn string, r any) {
		panicHookTriggered = true
		panicCapturedComponent = component
		panicCapturedFunc = fn
		panicCapturedValue = r
	}
	m.Run()
}

// TestFunc tests that a panic becomes an error and is reported.
func TestFunc(t *testing.T) {
	t.Run("no panic", func(t *testing.T) {
		err := recoverpkg.Func(zerolog.Nop(), "bus", "query", func() error { return nil })
		assert.NoError(t, err)
	})

	t.Run("error passes through", func(t *testing.T) {
		want := errors.New("plain")
		err := recoverpkg.Func(zerolog.Nop(), "bus", "query", func() error { return want })
		assert.ErrorIs(t, err, want)
	})

	t.Run("panic", func(t *testing.T) {
		panicHookTriggered = false
		var buf bytes.Buffer
		err := recoverpkg.Func(zerolog.New(&buf), "bus", "insert", func() error {
			panic("node4 full")
		})
		require.ErrorIs(t, err, recoverpkg.ErrPanic)
		assert.Contains(t, err.Error(), "bus.insert: node4 full")
		assert.True(t, panicHookTriggered)
		assert.Equal(t, "bus", panicCapturedComponent)
		assert.Equal(t, "insert", panicCapturedFunc)
		assert.Equal(t, "node4 full", panicCapturedValue)
		assert.Contains(t, buf.String(), `"stack"`)
	})
}

// TestSafe tests that Safe swallows panics.
func TestSafe(t *testing.T) {
	panicHookTriggered = false
	assert.NotPanics(t, func() {
		recoverpkg.Safe(zerolog.Nop(), "my-safe", func() { panic("in safe") })
	})
	assert.True(t, panicHookTriggered)
	assert.Equal(t, "safe", panicCapturedComponent)
	assert.Equal(t, "my-safe", panicCapturedFunc)
}
