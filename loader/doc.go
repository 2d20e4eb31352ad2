// Package loader locates the ngspice engine payloads and installs the
// engine factory process-wide.
//
// Each payload resolves through a failover chain, every step attempted
// only when the prior yields nothing:
//
//  1. the host's extension filesystem, retried with a leading path
//     separator when the first form is not found,
//  2. the payload embedded at build time (raw bytes, or base64 text
//     decoded on demand),
//  3. a network fetch against the configured base URL.
//
// Installation is idempotent and at-most-once-effective: once a factory
// is registered, EnsureEngine short-circuits without re-running any
// resolution strategy.
package loader
