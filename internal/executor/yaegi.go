package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sync"

	"github.com/traefik/yaegi/interp"
	"go.uber.org/zap"

	"github.com/wagnerlima/algolab/internal/storage"
	"github.com/wagnerlima/algolab/internal/value"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Yaegi is a Runtime interpreting scripts with yaegi. Each script gets its
// own interpreter, kept until the script changes or is forgotten.
type Yaegi struct {
	scripts *storage.Scripts
	entry   string
	logger  *zap.Logger

	once    sync.Once
	opts    interp.Options
	initErr error

	mu      sync.Mutex
	modules map[string]*yaegiEntry
}

// NewYaegi returns a runtime loading scripts from s. An empty entry selects
// DefaultEntry.
func NewYaegi(s *storage.Scripts, entry string, logger *zap.Logger) *Yaegi {
	if entry == "" {
		entry = DefaultEntry
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Yaegi{
		scripts: s,
		entry:   entry,
		logger:  logger,
		modules: make(map[string]*yaegiEntry),
	}
}

// init prepares the interpreter options shared by every script.
func (y *Yaegi) init() error {
	y.once.Do(func() {
		if y.scripts == nil {
			y.initErr = errors.New("executor: no script store")
			return
		}
		y.opts = interp.Options{
			GoPath: y.scripts.Dir(),
			Stdout: io.Discard,
			Stderr: io.Discard,
		}
		y.logger.Debug("interpreter initialised", zap.String("gopath", y.opts.GoPath))
	})
	return y.initErr
}

// Resolve loads the script of name, reusing the interpreter when the source
// is unchanged. Evaluation stops when ctx is done; the lock is only held to
// read and update the cache, so a slow script does not block other names.
func (y *Yaegi) Resolve(ctx context.Context, name string) (EntryPoint, error) {
	if err := y.init(); err != nil {
		return nil, err
	}
	src, err := y.scripts.Read(name)
	if err != nil {
		return nil, err
	}
	hash := hashSource(src)

	y.mu.Lock()
	e, ok := y.modules[name]
	y.mu.Unlock()
	if ok && e.hash == hash {
		return e, nil
	}

	e, err = y.load(ctx, name, src, hash)
	if err != nil {
		return nil, err
	}

	y.mu.Lock()
	defer y.mu.Unlock()
	if cur, ok := y.modules[name]; ok && cur.hash == hash {
		return cur, nil
	}
	y.modules[name] = e
	y.logger.Debug("script loaded", zap.String("algorithm", name), zap.Strings("params", e.params))
	return e, nil
}

// load evaluates src in a fresh interpreter and looks up the entry function.
func (y *Yaegi) load(ctx context.Context, name string, src []byte, hash string) (*yaegiEntry, error) {
	sig, err := y.signature(name, src, hash)
	if err != nil {
		return nil, err
	}

	i := interp.New(y.opts)
	if err := i.Use(scriptSymbols()); err != nil {
		return nil, fmt.Errorf("load stdlib: %w", err)
	}
	if _, err := i.EvalWithContext(ctx, string(src)); err != nil {
		return nil, fmt.Errorf("evaluate script %s: %w", name, err)
	}
	fn, err := i.EvalWithContext(ctx, "main."+y.entry)
	if err != nil {
		return nil, fmt.Errorf("function %s not found: %w", y.entry, err)
	}
	if fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("main.%s is a %s, not a function", y.entry, fn.Kind())
	}
	if err := checkResults(fn.Type()); err != nil {
		return nil, fmt.Errorf("main.%s: %w", y.entry, err)
	}
	if fn.Type().NumIn() != len(sig.Params) {
		return nil, fmt.Errorf("main.%s: declared %d parameters, interpreter reports %d", y.entry, len(sig.Params), fn.Type().NumIn())
	}
	return &yaegiEntry{hash: hash, params: sig.Params, fn: fn}, nil
}

// signature returns the entry signature from the cache directory when it
// matches hash, and re-derives and stores it otherwise.
func (y *Yaegi) signature(name string, src []byte, hash string) (signature, error) {
	if data, err := y.scripts.ReadCache(name); err == nil {
		if sig, err := decodeSignature(data); err == nil && sig.SHA256 == hash && sig.Entry == y.entry {
			return sig, nil
		}
	}

	sig, err := inspect(name, src, y.entry)
	if err != nil {
		return signature{}, err
	}
	data, err := json.Marshal(sig)
	if err == nil {
		err = y.scripts.WriteCache(name, data)
	}
	if err != nil {
		y.logger.Warn("could not cache script signature", zap.String("algorithm", name), zap.Error(err))
	}
	return sig, nil
}

// Forget drops the interpreter of name.
func (y *Yaegi) Forget(name string) {
	y.mu.Lock()
	delete(y.modules, name)
	y.mu.Unlock()
}

// Loaded reports whether an interpreter is held for name.
func (y *Yaegi) Loaded(name string) bool {
	y.mu.Lock()
	defer y.mu.Unlock()
	_, ok := y.modules[name]
	return ok
}

func checkResults(t reflect.Type) error {
	switch t.NumOut() {
	case 1:
		return nil
	case 2:
		if t.Out(1).Implements(errorType) {
			return nil
		}
		return fmt.Errorf("second result must be error, got %s", t.Out(1))
	}
	return fmt.Errorf("must return (T) or (T, error), got %d results", t.NumOut())
}

type yaegiEntry struct {
	hash   string
	params []string
	fn     reflect.Value
}

func (e *yaegiEntry) ParamNames() []string {
	return append([]string(nil), e.params...)
}

// Invoke coerces args to the function's parameter types and calls it. The
// interpreter cannot be interrupted, so ctx is only checked before the call.
func (e *yaegiEntry) Invoke(ctx context.Context, args []value.Value) (any, error) {
	t := e.fn.Type()
	if len(args) != t.NumIn() {
		return nil, fmt.Errorf("want %d arguments, got %d", t.NumIn(), len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		rv, err := a.Coerce(t.In(i))
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", e.params[i], err)
		}
		in[i] = rv
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []reflect.Value
	if t.IsVariadic() {
		out = e.fn.CallSlice(in)
	} else {
		out = e.fn.Call(in)
	}
	if len(out) == 2 && !out[1].IsNil() {
		return nil, out[1].Interface().(error)
	}
	ret := out[0].Interface()
	if b, ok := ret.([]byte); ok {
		return bytes.Clone(b), nil
	}
	return ret, nil
}
