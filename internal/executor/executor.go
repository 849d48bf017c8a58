// Package executor runs downloaded algorithm scripts in process when the
// remote API cannot be reached.
//
// A script is Go source in package main declaring an entry function (Main by
// default). Its parameters are matched by name against the caller's inputs
// and its return value must be a JSON object, either marshalled from a Go
// value or returned as JSON text. The object's fields become the outputs.
package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/wagnerlima/algolab/internal/models"
	"github.com/wagnerlima/algolab/internal/value"
)

const (
	// DefaultTimeout bounds a single local execution.
	DefaultTimeout = 3000 * time.Millisecond
	// DefaultEntry is the function invoked in a script.
	DefaultEntry = "Main"
)

// ExecutionError is returned when a script cannot be loaded, fails, panics or
// runs out of time.
type ExecutionError struct {
	Name    string
	Timeout bool
	Err     error
}

func (e *ExecutionError) Error() string {
	if e.Timeout {
		return "Execution timed out"
	}
	if e.Err == nil {
		return "execution of " + e.Name + " failed"
	}
	return e.Err.Error()
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// EntryPoint is a resolved script function.
type EntryPoint interface {
	// ParamNames returns the formal parameter names in declaration order.
	ParamNames() []string
	// Invoke calls the function with one argument per formal parameter.
	Invoke(ctx context.Context, args []value.Value) (any, error)
}

// Runtime loads scripts by algorithm name.
type Runtime interface {
	Resolve(ctx context.Context, name string) (EntryPoint, error)
	// Forget drops any in-memory state kept for name.
	Forget(name string)
}

// Config tunes a Bridge.
type Config struct {
	Timeout time.Duration
	Workers int
}

// Bridge executes algorithms through a Runtime on a bounded pool.
type Bridge struct {
	rt      Runtime
	sem     *semaphore.Weighted
	timeout time.Duration
	logger  *zap.Logger
}

// NewBridge returns a Bridge over rt. Zero Config fields take defaults.
func NewBridge(rt Runtime, cfg Config, logger *zap.Logger) *Bridge {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{
		rt:      rt,
		sem:     semaphore.NewWeighted(int64(cfg.Workers)),
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

// Execute runs the named algorithm with inputs and returns its outputs in
// the order the script emitted them. Every failure is an *ExecutionError.
func (b *Bridge) Execute(ctx context.Context, name string, inputs []models.DataValue) ([]models.DataValue, error) {
	// One deadline covers loading, waiting for a worker and the call.
	callCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	ep, err := b.rt.Resolve(callCtx, name)
	if err != nil {
		return nil, b.fail(ctx, callCtx, name, err)
	}

	params := ep.ParamNames()
	args := make([]value.Value, 0, len(params))
	var missing []string
	for _, p := range params {
		dv, ok := findInput(inputs, p)
		if !ok {
			missing = append(missing, p)
			continue
		}
		args = append(args, dv.Value)
	}
	if len(missing) > 0 {
		return nil, &ExecutionError{Name: name, Err: fmt.Errorf("missing argument(s): %s", strings.Join(missing, ", "))}
	}

	if err := b.sem.Acquire(callCtx, 1); err != nil {
		return nil, b.fail(ctx, callCtx, name, err)
	}

	type outcome struct {
		ret any
		err error
	}
	done := make(chan outcome, 1)

	start := time.Now()
	go func() {
		// The slot is held until the script really returns; a timed out
		// script keeps running in the background.
		defer b.sem.Release(1)
		defer func() {
			if p := recover(); p != nil {
				done <- outcome{err: fmt.Errorf("panic: %v", p)}
			}
		}()
		ret, err := ep.Invoke(callCtx, args)
		done <- outcome{ret: ret, err: err}
	}()

	select {
	case o := <-done:
		b.logger.Debug("script finished", zap.String("algorithm", name), zap.Duration("elapsed", time.Since(start)), zap.Error(o.err))
		if o.err != nil {
			return nil, &ExecutionError{Name: name, Err: o.err}
		}
		outputs, err := DecodeOutputs(o.ret)
		if err != nil {
			return nil, &ExecutionError{Name: name, Err: err}
		}
		return outputs, nil
	case <-callCtx.Done():
		return nil, b.fail(ctx, callCtx, name, ctx.Err())
	}
}

// fail wraps err for name. It reports a timeout when callCtx ran out while
// the caller's ctx is still live.
func (b *Bridge) fail(ctx, callCtx context.Context, name string, err error) *ExecutionError {
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		b.logger.Warn("script timed out", zap.String("algorithm", name), zap.Duration("timeout", b.timeout))
		return &ExecutionError{Name: name, Timeout: true, Err: callCtx.Err()}
	}
	if err == nil {
		err = callCtx.Err()
	}
	return &ExecutionError{Name: name, Err: err}
}

// Forget drops the runtime's cached state for name.
func (b *Bridge) Forget(name string) {
	b.rt.Forget(name)
}

func findInput(inputs []models.DataValue, name string) (models.DataValue, bool) {
	for _, dv := range inputs {
		if dv.Name == name {
			return dv, true
		}
	}
	return models.DataValue{}, false
}
