package engine

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/easyeda/eext-simulation-with-ngspice/errors"
)

// Config holds configuration for engine creation
type Config struct {
	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	// 256 = 16MB, 1024 = 64MB, 4096 = 256MB
	MemoryLimitPages uint32
}

// Engine wraps a wazero runtime hosting the ngspice module
type Engine struct {
	runtime      wazero.Runtime
	wasiInitMu   sync.Mutex
	wasiInitDone atomic.Bool
}

// New creates a new wazero-based engine
func New(ctx context.Context) (*Engine, error) {
	return NewWithConfig(ctx, nil)
}

// NewWithConfig creates a new engine with custom configuration
func NewWithConfig(ctx context.Context, cfg *Config) (*Engine, error) {
	runtimeCfg := wazero.NewRuntimeConfig()

	if cfg != nil && cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}

	runtime := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)
	return &Engine{runtime: runtime}, nil
}

// Close releases all engine resources.
// All modules must be closed before calling this.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// ensureWASI instantiates the WASI preview1 host module exactly once.
func (e *Engine) ensureWASI(ctx context.Context) error {
	if e.wasiInitDone.Load() {
		return nil
	}
	e.wasiInitMu.Lock()
	defer e.wasiInitMu.Unlock()
	if e.wasiInitDone.Load() {
		return nil
	}
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, e.runtime); err != nil {
		return errors.Bootstrap("instantiate wasi host", err)
	}
	e.wasiInitDone.Store(true)
	return nil
}

// Options configures one factory invocation.
type Options struct {
	// MainPayload is the engine's main module binary.
	MainPayload []byte

	// LocateFile resolves auxiliary file requests to virtual filesystem
	// paths. Nil means identity.
	LocateFile func(path string) string

	// Stdout and Stderr receive the engine's console output. Nil
	// discards it.
	Stdout io.Writer
	Stderr io.Writer
}

// Factory produces a live engine Module from the main payload. The
// loader installs exactly one Factory process-wide.
type Factory func(ctx context.Context, opts Options) (*Module, error)

// Factory returns a Factory bound to this engine's runtime.
func (e *Engine) Factory() Factory {
	return func(ctx context.Context, opts Options) (*Module, error) {
		return e.instantiate(ctx, opts)
	}
}

func (e *Engine) instantiate(ctx context.Context, opts Options) (*Module, error) {
	if len(opts.MainPayload) == 0 {
		return nil, errors.InvalidInput(errors.PhaseBootstrap, "engine factory invoked without main payload")
	}

	if err := e.ensureWASI(ctx); err != nil {
		return nil, err
	}

	compiled, err := e.runtime.CompileModule(ctx, opts.MainPayload)
	if err != nil {
		return nil, errors.Bootstrap("compile main module", err)
	}

	vfs := NewVFS()

	modCfg := wazero.NewModuleConfig().
		WithName(mainModuleName).
		WithFSConfig(wazero.NewFSConfig().WithFSMount(vfs, "/")).
		WithStartFunctions() // reactor model: we call the initializer explicitly

	if opts.Stdout != nil {
		modCfg = modCfg.WithStdout(opts.Stdout)
	}
	if opts.Stderr != nil {
		modCfg = modCfg.WithStderr(opts.Stderr)
	}

	mod, err := e.runtime.InstantiateModule(ctx, compiled, modCfg)
	if err != nil {
		return nil, errors.Bootstrap("instantiate main module", err)
	}

	m := &Module{
		engine: e,
		mod:    mod,
		vfs:    vfs,
		locate: opts.LocateFile,
		linked: make(map[string]struct{}),
	}

	// Reactor-model builds export an initializer instead of _start.
	if init := mod.ExportedFunction(ExportInitialize); init != nil {
		if _, err := init.Call(ctx); err != nil {
			_ = mod.Close(ctx)
			return nil, errors.Bootstrap("engine initializer", err)
		}
	}

	Logger().Debug("engine module instantiated",
		zap.Int("payload_bytes", len(opts.MainPayload)))

	return m, nil
}
