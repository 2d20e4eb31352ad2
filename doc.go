// Package eext bridges the EasyEDA extension runtime to a precompiled
// ngspice simulation engine delivered as a WebAssembly module.
//
// The bridge receives lifecycle callbacks from the host, listens for
// simulation-request pull events, marshals a netlist and probe
// specifications into the engine, runs the simulation, and pushes the
// serialized result (or a failure message) back on the host's push-event
// channel.
//
// # Architecture Overview
//
// The module is organized into small concern packages:
//
//	eext/              Root package with host capability interfaces
//	├── loader/        Locates engine payloads and installs the factory
//	├── assets/        Build-time embedded engine payloads
//	├── engine/        wazero-backed engine instance and sessions
//	├── bridge/        Drives one simulation per request
//	├── host/          Lifecycle entry points and event listener wiring
//	├── events/        In-process pull/push event bus
//	├── config/        CLI harness configuration
//	└── errors/        Structured error types
//
// # Quick Start
//
// Wire the bridge against an in-process bus and activate it:
//
//	bus := events.NewBus(nil)
//	ext := host.New(host.Capabilities{Stream: bus, Sink: bus})
//	if err := ext.Activate(host.StatusStartupFinished, ""); err != nil {
//	    log.Fatal(err)
//	}
//	bus.Emit(eext.EventSimulateNetlist, []byte(`{"netlist":"R1 1 0 1k\n.end"}`))
//
// # Thread Safety
//
// The bridge creates a fresh engine session per request and awaits
// nothing from its caller, so overlapping requests run independently.
// The only shared mutations are the process-wide factory registration
// and virtual-filesystem directory creation, both idempotent and
// mutex-guarded.
package eext
