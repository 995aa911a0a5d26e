package generate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cast"

	"github.com/pharaoh-reports/pharaoh/internal/asset"
	oerrors "github.com/pharaoh-reports/pharaoh/internal/errors"
	"github.com/pharaoh-reports/pharaoh/internal/metadata"
	"github.com/pharaoh-reports/pharaoh/internal/output"
)

// Coordinator executes generation units.
type Coordinator struct {
	// Workers is the pool size. 0 runs every unit in the calling goroutine.
	Workers int

	// Log receives the output of all unit loggers. Defaults to the global
	// log destination.
	Log io.Writer

	// Registrar returns the asset registrar for a component. The
	// coordinator attaches the unit's metadata stack to it.
	Registrar func(component string) *asset.Registrar
}

// Run executes all units and returns one result per unit, in completion
// order. A failing or panicking unit never stops its siblings.
func (c *Coordinator) Run(ctx context.Context, units []Unit) []Result {
	dst := c.Log
	if dst == nil {
		dst = output.Destination()
	}
	funnel := output.NewFunnel(dst)
	defer funnel.Close()

	if c.Workers <= 0 {
		output.Debug("executing asset generation sequentially", "units", len(units))
		results := make([]Result, 0, len(units))
		for _, u := range units {
			results = append(results, c.runUnit(ctx, u, funnel))
		}
		return results
	}

	workers := min(c.Workers, len(units))
	output.Debug("executing asset generation in parallel", "units", len(units), "workers", workers)

	jobs := make(chan Unit)
	resultChan := make(chan Result, len(units))
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for u := range jobs {
				resultChan <- c.runUnit(ctx, u, funnel)
			}
		}()
	}

	go func() {
		for _, u := range units {
			jobs <- u
		}
		close(jobs)
	}()

	// Close channel when all workers complete
	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make([]Result, 0, len(units))
	for r := range resultChan {
		results = append(results, r)
	}
	return results
}

// runUnit executes one unit with its own metadata stack and logger.
func (c *Coordinator) runUnit(ctx context.Context, u Unit, w io.Writer) (res Result) {
	start := time.Now()
	res = Result{Source: u.Source(), Component: u.Component()}

	stack := metadata.New()
	stack.Push(asset.FrameGenerate, map[string]any{
		"asset": map[string]any{
			"script_name":    filepath.Base(u.Source()),
			"script_path":    u.Source(),
			"component_name": u.Component(),
			"index":          0,
		},
	})

	logger := output.NewUnitLogger(w, u.Source())
	uctx := metadata.WithStack(ctx, stack)
	uctx = WithLogger(uctx, logger)
	if c.Registrar != nil {
		reg := c.Registrar(u.Component())
		reg.Stack = stack
		uctx = asset.WithRegistrar(uctx, reg)
	}

	defer func() {
		if p := recover(); p != nil {
			res.Err = fmt.Errorf("panic: %v", p)
			res.Trace = string(debug.Stack())
			res.Duration = time.Since(start)
			logger.Error("unit panicked", "error", p)
		}
	}()

	err := u.Run(uctx)
	res.Duration = time.Since(start)
	switch {
	case errors.Is(err, ErrSkipped):
		res.Skipped = true
	case err != nil:
		res.Err = err
		logger.Error("unit failed", "error", err)
	default:
		logger.Debug("unit finished", "duration", res.Duration)
	}
	return res
}

// Aggregate turns failed results into a single *errors.GenerationError.
// It returns nil if every unit succeeded.
func Aggregate(results []Result) error {
	var failures []oerrors.UnitFailure
	for _, r := range results {
		if r.Err != nil {
			failures = append(failures, oerrors.UnitFailure{Source: r.Source, Err: r.Err, Trace: r.Trace})
		}
	}
	if len(failures) == 0 {
		return nil
	}
	return &oerrors.GenerationError{Failures: failures}
}

// ParseWorkers interprets the asset_gen.worker_processes setting: a
// non-negative integer or "auto" for one worker per CPU.
func ParseWorkers(v any) (int, error) {
	if s, ok := v.(string); ok && strings.EqualFold(strings.TrimSpace(s), "auto") {
		return runtime.NumCPU(), nil
	}
	n, err := cast.ToIntE(v)
	if err != nil || n < 0 {
		return 0, oerrors.NewValidationError(
			fmt.Sprintf("worker count must be a non-negative integer or \"auto\", got %v", v),
			"", "asset_gen.worker_processes", "")
	}
	return n, nil
}
