package engine

import (
	"context"
	"path"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/easyeda/eext-simulation-with-ngspice/errors"
)

// Module is a live engine instance. It owns an in-process virtual
// filesystem and hands out simulation sessions.
//
// A Module is created once per bootstrap and never reused across the
// host's simulation runs; sessions are.
type Module struct {
	engine *Engine
	mod    api.Module
	vfs    *VFS
	locate func(string) string

	linkMu sync.Mutex
	linked map[string]struct{}
}

// FS returns the module's virtual filesystem.
func (m *Module) FS() *VFS {
	return m.vfs
}

// Close releases the module instance. Dynamically linked libraries stay
// resident until the engine itself closes.
func (m *Module) Close(ctx context.Context) error {
	return m.mod.Close(ctx)
}

// resolve applies the factory's LocateFile callback to auxiliary paths.
func (m *Module) resolve(p string) string {
	if m.locate == nil {
		return p
	}
	return m.locate(p)
}

// DynlibOptions controls dynamic library loading.
type DynlibOptions struct {
	// Global makes the library's exports visible to the whole instance.
	Global bool

	// NoDelete keeps the library resident for the engine's lifetime.
	NoDelete bool
}

// LoadDynamicLibrary links the library at the given virtual filesystem
// path into the running engine instance. Loading the same path twice is
// a no-op.
func (m *Module) LoadDynamicLibrary(ctx context.Context, libPath string, opts DynlibOptions) error {
	libPath = m.resolve(libPath)

	m.linkMu.Lock()
	defer m.linkMu.Unlock()
	if _, ok := m.linked[libPath]; ok {
		return nil
	}

	data, err := m.vfs.ReadFile(libPath)
	if err != nil {
		return errors.Link(libPath, err)
	}

	compiled, err := m.engine.runtime.CompileModule(ctx, data)
	if err != nil {
		return errors.Link(libPath, err)
	}

	// Instantiating under a stable name registers the library in the
	// runtime namespace, where its exports are import-resolvable by the
	// main module. The handle is deliberately not closed: NoDelete
	// libraries live as long as the engine.
	name := path.Base(libPath)
	if _, err := m.engine.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(name)); err != nil {
		return errors.Link(libPath, err)
	}

	m.linked[libPath] = struct{}{}

	Logger().Debug("dynamic library linked",
		zap.String("path", libPath),
		zap.Bool("global", opts.Global),
		zap.Bool("nodelete", opts.NoDelete))

	return nil
}

// BootstrapOptions configures one engine bootstrap.
type BootstrapOptions struct {
	// Main is the engine's main module payload. Passing nil lets the
	// factory report its own missing-payload failure.
	Main []byte

	// Side is the optional device-model side payload. Empty skips the
	// mount-and-link step.
	Side []byte

	// SideDir is the working directory for the side payload in the
	// engine's virtual filesystem. Defaults to "/lib".
	SideDir string

	// SidePath is the side payload's logical path. Defaults to
	// SideDir + "/ngspice-models.so".
	SidePath string

	// Locate resolves auxiliary file requests. Nil means identity.
	Locate func(string) string
}

// Bootstrap invokes the factory with the main payload and, when a side
// payload is present, writes it into the instance's virtual filesystem
// and links it as a globally-visible, non-unloadable library.
//
// Any failure during factory invocation, filesystem write, or dynamic
// linking propagates unchanged; there is no local recovery.
func Bootstrap(ctx context.Context, factory Factory, opts BootstrapOptions) (*Module, error) {
	m, err := factory(ctx, Options{
		MainPayload: opts.Main,
		LocateFile:  opts.Locate,
	})
	if err != nil {
		return nil, err
	}

	if len(opts.Side) > 0 {
		dir := opts.SideDir
		if dir == "" {
			dir = "/lib"
		}
		libPath := opts.SidePath
		if libPath == "" {
			libPath = path.Join(dir, "ngspice-models.so")
		}

		if info := m.FS().AnalyzePath(dir); !info.Exists {
			if err := m.FS().Mkdir(dir); err != nil {
				return nil, errors.Filesystem(dir, err)
			}
		}
		if err := m.FS().WriteFile(libPath, opts.Side); err != nil {
			return nil, errors.Filesystem(libPath, err)
		}
		if err := m.LoadDynamicLibrary(ctx, libPath, DynlibOptions{Global: true, NoDelete: true}); err != nil {
			return nil, err
		}
	}

	return m, nil
}
