// Package events provides an in-process stand-in for the host's
// pull/push event machinery. The CLI harness and tests wire the bridge
// against it; in production the host supplies its own EventStream and
// EventSink implementations.
package events

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	eext "github.com/easyeda/eext-simulation-with-ngspice"
)

type listener struct {
	name    string
	scope   string
	handler eext.EventHandler
}

// Bus is a goroutine-safe in-process event bus implementing both
// eext.EventStream (pull side) and eext.EventSink (push side).
type Bus struct {
	mu        sync.RWMutex
	listeners map[string]listener
	pushSubs  []func(eventType, data string)
	logger    *zap.Logger
}

var (
	_ eext.EventStream = (*Bus)(nil)
	_ eext.EventSink   = (*Bus)(nil)
)

// NewBus creates a bus. A nil logger disables logging.
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		listeners: make(map[string]listener),
		logger:    logger,
	}
}

// AddEventListener registers a named, scoped listener on the pull-event
// stream. Listener names are unique; re-registering a name fails.
func (b *Bus) AddEventListener(name, scope string, h eext.EventHandler) error {
	if name == "" {
		return fmt.Errorf("listener name must not be empty")
	}
	if h == nil {
		return fmt.Errorf("listener %s: handler must not be nil", name)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.listeners[name]; ok {
		return fmt.Errorf("listener %s already registered", name)
	}
	b.listeners[name] = listener{name: name, scope: scope, handler: h}
	return nil
}

// RemoveEventListener drops a named listener. Unknown names are a no-op.
func (b *Bus) RemoveEventListener(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.listeners, name)
}

// Emit delivers a pull event from an anonymous source.
func (b *Bus) Emit(eventType string, payload []byte) {
	b.EmitFrom("", eventType, payload)
}

// EmitFrom delivers a pull event to every listener scoped to "all" or
// to the given source. Delivery is synchronous; panicking handlers are
// recovered.
func (b *Bus) EmitFrom(source, eventType string, payload []byte) {
	b.mu.RLock()
	matched := make([]listener, 0, len(b.listeners))
	for _, l := range b.listeners {
		if l.scope == eext.ScopeAll || l.scope == source {
			matched = append(matched, l)
		}
	}
	b.mu.RUnlock()

	for _, l := range matched {
		b.deliver(l, eventType, payload)
	}
}

func (b *Bus) deliver(l listener, eventType string, payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event listener panicked",
				zap.String("listener", l.name),
				zap.String("event", eventType),
				zap.Any("panic", r))
		}
	}()
	l.handler(eventType, payload)
}

// OnPush subscribes to events pushed back toward the host.
func (b *Bus) OnPush(fn func(eventType, data string)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pushSubs = append(b.pushSubs, fn)
}

// PushEvent implements eext.EventSink.
func (b *Bus) PushEvent(eventType, data string) {
	b.mu.RLock()
	subs := make([]func(string, string), len(b.pushSubs))
	copy(subs, b.pushSubs)
	b.mu.RUnlock()

	b.logger.Debug("push event",
		zap.String("event", eventType),
		zap.Int("bytes", len(data)))

	for _, fn := range subs {
		fn(eventType, data)
	}
}
