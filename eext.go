package eext

// File is one file handed out by the host's extension filesystem.
type File interface {
	Text() (string, error)
	Bytes() ([]byte, error)
}

// FileProvider is the host's extension virtual filesystem. The boolean
// reports whether a file exists at the given path.
type FileProvider interface {
	GetExtensionFile(path string) (File, bool)
}

// EventHandler receives one pull event from the host's event stream.
type EventHandler func(eventType string, payload []byte)

// EventStream registers named, scoped listeners on the host's
// simulation pull-event stream.
type EventStream interface {
	AddEventListener(name, scope string, h EventHandler) error
}

// EventSink pushes asynchronous notifications back to the host.
type EventSink interface {
	PushEvent(eventType, data string)
}

// DialogService displays host-native informational dialogs.
type DialogService interface {
	Information(message string)
}

// Localizer formats host-localized text.
type Localizer interface {
	Format(key string, args ...string) string
}
