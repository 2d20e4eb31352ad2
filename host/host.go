// Package host adapts the extension runtime's lifecycle and event API
// to the simulation bridge.
package host

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	eext "github.com/easyeda/eext-simulation-with-ngspice"
	"github.com/easyeda/eext-simulation-with-ngspice/bridge"
	"github.com/easyeda/eext-simulation-with-ngspice/errors"
	"github.com/easyeda/eext-simulation-with-ngspice/loader"
)

// Lifecycle status tags the host passes to Activate. Only
// StatusStartupFinished is handled.
const StatusStartupFinished = "onStartupFinished"

// Capabilities are the host services injected into the extension. Every
// capability may be absent; absence disables the dependent behavior.
type Capabilities struct {
	Files     eext.FileProvider
	Stream    eext.EventStream
	Sink      eext.EventSink
	Dialog    eext.DialogService
	Localizer eext.Localizer
}

// Extension is the host-facing entry point of the simulation bridge.
type Extension struct {
	caps   Capabilities
	bridge *bridge.Bridge
	logger *zap.Logger
}

// Option customizes an Extension.
type Option func(*Extension)

// WithLogger installs a logger. Nil disables logging.
func WithLogger(l *zap.Logger) Option {
	return func(e *Extension) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithBridge replaces the default bridge.
func WithBridge(b *bridge.Bridge) Option {
	return func(e *Extension) { e.bridge = b }
}

// New creates an Extension. The default bridge resolves engine payloads
// through the host filesystem with the embedded payloads as fallback.
func New(caps Capabilities, opts ...Option) *Extension {
	e := &Extension{
		caps:   caps,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.bridge == nil {
		l := &loader.Loader{
			Files:    caps.Files,
			Embedded: loader.DefaultEmbedded(),
			Logger:   e.logger,
		}
		e.bridge = bridge.New(bridge.NewEngineSource(l), caps.Sink, e.logger)
	}
	return e
}

// Activate is the host's lifecycle entry point. When the host reports
// finished startup it registers the extension's single persistent
// simulation listener; every other status is ignored. Registration
// failures propagate to the host uncaught.
func (e *Extension) Activate(status, arg string) error {
	e.logger.Info("activate",
		zap.String("status", status),
		zap.String("arg", arg))

	if status != StatusStartupFinished {
		return nil
	}
	if e.caps.Stream == nil {
		e.logger.Warn("event stream capability unavailable; simulation listener not registered")
		return nil
	}

	err := e.caps.Stream.AddEventListener(eext.ListenerName, eext.ScopeAll, e.onPullEvent)
	if err != nil {
		return errors.Registration(eext.ListenerName, err)
	}
	return nil
}

// onPullEvent dispatches simulation requests fire-and-forget: the
// listener never awaits the run, and the bridge catches every failure
// internally.
func (e *Extension) onPullEvent(eventType string, payload []byte) {
	if eventType != eext.EventSimulateNetlist {
		return
	}
	go e.bridge.HandleSimulateNetlist(context.Background(), payload)
}

// About displays the static informational dialog with the extension
// version. Independent of the simulation path.
func (e *Extension) About() {
	if e.caps.Dialog == nil {
		return
	}
	msg := fmt.Sprintf("ngspice simulation extension v%s", eext.Version)
	if e.caps.Localizer != nil {
		msg = e.caps.Localizer.Format("about.message", eext.Version)
	}
	e.caps.Dialog.Information(msg)
}
