// Package bridge drives one ngspice simulation per host request.
//
// Given a request payload with an optional netlist and probe list, the
// bridge obtains a fresh engine session, loads the netlist (or a
// built-in fallback), registers the probes, runs the simulation, and
// pushes the serialized result to the host. Every failure in that
// sequence is caught at a single top-level recovery point and reported
// as exactly one error push; nothing re-raises, retries, or partially
// reports.
package bridge
