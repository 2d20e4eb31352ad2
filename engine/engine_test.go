package engine

import (
	"context"
	"errors"
	"testing"

	eexterrors "github.com/easyeda/eext-simulation-with-ngspice/errors"
)

// minimalWASM is the smallest valid core module: magic and version, no
// sections. Enough to exercise compile/instantiate/link paths.
var minimalWASM = []byte("\x00asm\x01\x00\x00\x00")

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	ctx := context.Background()
	eng, err := New(ctx)
	if err != nil {
		t.Fatalf("create engine: %v", err)
	}
	t.Cleanup(func() { _ = eng.Close(ctx) })
	return eng
}

func TestFactory_MissingPayload(t *testing.T) {
	eng := newTestEngine(t)

	_, err := eng.Factory()(context.Background(), Options{})
	if err == nil {
		t.Fatal("expected error for missing main payload")
	}
	if !errors.Is(err, &eexterrors.Error{Phase: eexterrors.PhaseBootstrap, Kind: eexterrors.KindInvalidInput}) {
		t.Errorf("unexpected error taxonomy: %v", err)
	}
}

func TestFactory_Instantiate(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	m, err := eng.Factory()(ctx, Options{MainPayload: minimalWASM})
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	defer m.Close(ctx)

	if m.FS() == nil {
		t.Fatal("module has no virtual filesystem")
	}
}

func TestFactory_BadPayload(t *testing.T) {
	eng := newTestEngine(t)

	_, err := eng.Factory()(context.Background(), Options{MainPayload: []byte("not wasm")})
	if err == nil {
		t.Fatal("expected compile error")
	}
	if !errors.Is(err, &eexterrors.Error{Phase: eexterrors.PhaseBootstrap, Kind: eexterrors.KindInstantiation}) {
		t.Errorf("unexpected error taxonomy: %v", err)
	}
}

func TestBootstrap_SideModule(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	m, err := Bootstrap(ctx, eng.Factory(), BootstrapOptions{
		Main: minimalWASM,
		Side: minimalWASM,
	})
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	defer m.Close(ctx)

	if info := m.FS().AnalyzePath("/lib"); !info.Exists || !info.IsDir {
		t.Error("working directory for side module not created")
	}
	data, err := m.FS().ReadFile("/lib/ngspice-models.so")
	if err != nil {
		t.Fatalf("side payload not written: %v", err)
	}
	if len(data) != len(minimalWASM) {
		t.Errorf("side payload truncated: %d bytes", len(data))
	}
}

func TestBootstrap_NoSideModule(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	m, err := Bootstrap(ctx, eng.Factory(), BootstrapOptions{Main: minimalWASM})
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	defer m.Close(ctx)

	if info := m.FS().AnalyzePath("/lib"); info.Exists {
		t.Error("no side payload: working directory should not exist")
	}
}

func TestBootstrap_FactoryErrorPropagates(t *testing.T) {
	boom := errors.New("factory rejected")
	failing := Factory(func(context.Context, Options) (*Module, error) {
		return nil, boom
	})

	_, err := Bootstrap(context.Background(), failing, BootstrapOptions{Main: minimalWASM})
	if !errors.Is(err, boom) {
		t.Errorf("factory error not propagated unchanged: %v", err)
	}
}

func TestLoadDynamicLibrary_Idempotent(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	m, err := eng.Factory()(ctx, Options{MainPayload: minimalWASM})
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	defer m.Close(ctx)

	if err := m.FS().WriteFile("/lib/extra.so", minimalWASM); err != nil {
		t.Fatalf("write: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := m.LoadDynamicLibrary(ctx, "/lib/extra.so", DynlibOptions{Global: true, NoDelete: true}); err != nil {
			t.Fatalf("link attempt %d: %v", i, err)
		}
	}
}

func TestLoadDynamicLibrary_MissingFile(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	m, err := eng.Factory()(ctx, Options{MainPayload: minimalWASM})
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	defer m.Close(ctx)

	err = m.LoadDynamicLibrary(ctx, "/lib/absent.so", DynlibOptions{})
	if !errors.Is(err, &eexterrors.Error{Phase: eexterrors.PhaseBootstrap, Kind: eexterrors.KindLinkFailed}) {
		t.Errorf("unexpected error taxonomy: %v", err)
	}
}

func TestNewSession_MissingExports(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	m, err := eng.Factory()(ctx, Options{MainPayload: minimalWASM})
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	defer m.Close(ctx)

	if _, err := m.NewSession(ctx); err == nil {
		t.Fatal("expected error: placeholder module has no session exports")
	}
}
