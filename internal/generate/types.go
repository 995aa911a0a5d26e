// Package generate runs asset generation units, sequentially or on a
// bounded pool of goroutines.
package generate

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pharaoh-reports/pharaoh/internal/output"
)

// ErrSkipped is returned by units that decided not to run, for example
// scripts marked as ignored.
var ErrSkipped = errors.New("unit skipped")

// Unit is one independent piece of asset generation work.
type Unit interface {
	// Source identifies the unit in logs and error reports.
	Source() string

	// Component is the component the unit registers assets for.
	Component() string

	// Run executes the unit. The context carries the unit's metadata
	// stack, asset registrar and logger.
	Run(ctx context.Context) error
}

// Result is the outcome of one unit.
type Result struct {
	Source    string
	Component string
	Err       error
	Trace     string
	Skipped   bool
	Duration  time.Duration
}

// Status returns a short status word for display.
func (r Result) Status() string {
	switch {
	case r.Err != nil:
		return output.StatusFailed
	case r.Skipped:
		return output.StatusSkipped
	default:
		return output.StatusGenerated
	}
}

// FuncUnit adapts a Go function to a Unit.
type FuncUnit struct {
	Name          string
	ComponentName string
	Fn            func(ctx context.Context) error
}

// Source implements Unit.
func (u *FuncUnit) Source() string { return u.Name }

// Component implements Unit.
func (u *FuncUnit) Component() string { return u.ComponentName }

// Run implements Unit.
func (u *FuncUnit) Run(ctx context.Context) error { return u.Fn(ctx) }

type loggerKey struct{}

// WithLogger returns a context carrying a unit logger.
func WithLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// Logger returns the unit logger carried by ctx, or the global logger.
func Logger(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return output.UnitLogger("")
}
