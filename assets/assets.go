// Package assets carries the engine payloads bundled at build time.
//
// The checked-in payload files are minimal placeholders; the release
// pipeline replaces them with the actual ngspice engine build before
// packaging the extension. They are the last-resort fallback behind the
// host's extension filesystem.
package assets

import (
	"embed"
	"encoding/base64"
)

//go:embed payloads
var payloads embed.FS

// Canonical payload paths, shared with the loader's resolution chain.
const (
	// MainPayloadPath is the engine's main WebAssembly module.
	MainPayloadPath = "ngspice.wasm"

	// SidePayloadPath is the device-model side module linked into the
	// running engine as a dynamic library.
	SidePayloadPath = "ngspice-models.so"
)

// MainPayload returns the embedded engine module bytes, or nil when no
// payload was bundled.
func MainPayload() []byte {
	return read(MainPayloadPath)
}

// SidePayload returns the embedded side module bytes, or nil when no
// payload was bundled.
func SidePayload() []byte {
	return read(SidePayloadPath)
}

func read(name string) []byte {
	data, err := payloads.ReadFile("payloads/" + name)
	if err != nil {
		return nil
	}
	return data
}

// DecodeBase64 decodes a payload carried as base64 text. Payload kind
// decides the carrier: binary payloads embed as raw bytes, text-carried
// ones pass through here first.
func DecodeBase64(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}
