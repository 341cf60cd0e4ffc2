// file: cas/recover/recover.go

// Package recover turns panics in request handlers into logged errors.
package recover

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/rs/zerolog"
)

// ErrPanic wraps every recovered panic.
var ErrPanic = errors.New("panic recovered")

// OnPanic, when set, is called after a panic has been logged.
var OnPanic func(component, function string, recovered any)

// Report logs a recovered value with its stack.
func Report(log zerolog.Logger, component, function string, recovered any) {
	log.Error().
		Str("component", component).
		Str("function", function).
		Interface("panic", recovered).
		Str("stack", string(debug.Stack())).
		Msg("panic")
	if OnPanic != nil {
		OnPanic(component, function, recovered)
	}
}

// Func runs fn and returns a panic as an error wrapping ErrPanic.
func Func(log zerolog.Logger, component, function string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			Report(log, component, function, r)
			err = fmt.Errorf("%w in %s.%s: %v", ErrPanic, component, function, r)
		}
	}()
	return fn()
}

// Safe runs fn and swallows a panic after logging it.
func Safe(log zerolog.Logger, label string, fn func()) {
	_ = Func(log, "safe", label, func() error {
		fn()
		return nil
	})
}
