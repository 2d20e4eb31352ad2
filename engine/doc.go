// Package engine bootstraps and drives the ngspice simulation engine.
//
// The engine ships as a WebAssembly module and runs on wazero. A Factory
// turns the main engine payload into a live Module with an in-process
// virtual filesystem; the bootstrapper mounts the optional device-model
// side payload into that filesystem and links it into the running
// instance as a globally-visible, non-unloadable dynamic library.
//
// A Module hands out Sessions, one per simulation run. Sessions expose
// the engine's flat export ABI: load a netlist, register probes, run,
// and fetch the serialized result text.
package engine
