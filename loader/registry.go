package loader

import (
	"sync"

	"github.com/easyeda/eext-simulation-with-ngspice/engine"
)

// EngineHandle bundles the installed engine factory with the payloads it
// was resolved against.
type EngineHandle struct {
	Factory  engine.Factory
	Main     []byte
	Side     []byte
	SidePath string
}

// The factory registration is the bridge's only process-wide shared
// state. It is guarded by a presence check: installation is idempotent
// and at-most-once-effective, safe under concurrent re-entry.
var (
	registryMu sync.Mutex
	installed  *EngineHandle
)

// InstalledEngine reports the currently installed engine handle.
func InstalledEngine() (*EngineHandle, bool) {
	registryMu.Lock()
	defer registryMu.Unlock()
	return installed, installed != nil
}

// install registers h unless a handle is already present, and returns
// the winning registration.
func install(h *EngineHandle) *EngineHandle {
	registryMu.Lock()
	defer registryMu.Unlock()
	if installed == nil {
		installed = h
	}
	return installed
}

// ResetRegistry clears the installed engine handle. Intended for tests.
func ResetRegistry() {
	registryMu.Lock()
	defer registryMu.Unlock()
	installed = nil
}
