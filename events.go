package eext

// Event tags exchanged with the host.
const (
	// EventSimulateNetlist is the pull event requesting one simulation
	// run. Payload: {netlist?: string, probeNodes?: [...]}.
	EventSimulateNetlist = "SIMULATE_NETLIST"

	// EventSimulationResult carries the engine's serialized output,
	// forwarded verbatim.
	EventSimulationResult = "SIMULATION_RESULT"

	// EventErrorResult carries a human-readable failure message.
	EventErrorResult = "ERROR_RESULT"
)

// ScopeAll subscribes a listener to every event source.
const ScopeAll = "all"

// ListenerName identifies this extension's single persistent listener.
const ListenerName = "ngspice-simulation"

// Version is the extension version shown by the about dialog.
const Version = "1.2.0"
