package bridge

import (
	"context"
	"sync"

	"github.com/easyeda/eext-simulation-with-ngspice/engine"
	"github.com/easyeda/eext-simulation-with-ngspice/loader"
)

var _ SimSession = (*engine.Session)(nil)

// EngineSource is the production SessionSource: it resolves payloads
// through the loader, bootstraps the engine module once, and constructs
// a fresh session per request against that module instance.
type EngineSource struct {
	Loader *loader.Loader

	mu     sync.Mutex
	module *engine.Module
}

// NewEngineSource creates a source over the given loader.
func NewEngineSource(l *loader.Loader) *EngineSource {
	return &EngineSource{Loader: l}
}

// Session implements SessionSource. A bootstrap failure is not cached:
// the next request retries from the loader's installed state.
func (s *EngineSource) Session(ctx context.Context) (SimSession, error) {
	m, err := s.engineModule(ctx)
	if err != nil {
		return nil, err
	}
	return m.NewSession(ctx)
}

func (s *EngineSource) engineModule(ctx context.Context) (*engine.Module, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.module != nil {
		return s.module, nil
	}

	h, err := s.Loader.EnsureEngine(ctx)
	if err != nil {
		return nil, err
	}

	m, err := engine.Bootstrap(ctx, h.Factory, engine.BootstrapOptions{
		Main:     h.Main,
		Side:     h.Side,
		SidePath: h.SidePath,
	})
	if err != nil {
		return nil, err
	}

	s.module = m
	return m, nil
}
