package host

import (
	"context"
	"errors"
	"testing"
	"time"

	eext "github.com/easyeda/eext-simulation-with-ngspice"
	"github.com/easyeda/eext-simulation-with-ngspice/bridge"
	"github.com/easyeda/eext-simulation-with-ngspice/events"
)

type stubSession struct {
	netlist string
	result  string
}

func (s *stubSession) LoadNetlist(_ context.Context, netlist string) error {
	s.netlist = netlist
	return nil
}
func (s *stubSession) AddProbeNode(context.Context, string, float64, float64, float64) error {
	return nil
}
func (s *stubSession) Run(context.Context) error { return nil }
func (s *stubSession) ResultJSON(context.Context) (string, error) {
	return s.result, nil
}

type stubSource struct{ session *stubSession }

func (s *stubSource) Session(context.Context) (bridge.SimSession, error) {
	return s.session, nil
}

type recordingStream struct {
	name    string
	scope   string
	handler eext.EventHandler
	calls   int
	err     error
}

func (r *recordingStream) AddEventListener(name, scope string, h eext.EventHandler) error {
	r.calls++
	if r.err != nil {
		return r.err
	}
	r.name, r.scope, r.handler = name, scope, h
	return nil
}

func TestActivate_RegistersListener(t *testing.T) {
	stream := &recordingStream{}
	ext := New(Capabilities{Stream: stream})

	if err := ext.Activate(StatusStartupFinished, "profile=default"); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if stream.calls != 1 {
		t.Fatalf("registrations = %d, want 1", stream.calls)
	}
	if stream.name != eext.ListenerName {
		t.Errorf("listener name = %q", stream.name)
	}
	if stream.scope != eext.ScopeAll {
		t.Errorf("listener scope = %q", stream.scope)
	}
}

func TestActivate_IgnoresOtherStatuses(t *testing.T) {
	stream := &recordingStream{}
	ext := New(Capabilities{Stream: stream})

	for _, status := range []string{"", "onUninstall", "onUpgrade"} {
		if err := ext.Activate(status, ""); err != nil {
			t.Fatalf("activate(%q): %v", status, err)
		}
	}
	if stream.calls != 0 {
		t.Errorf("registrations = %d, want 0", stream.calls)
	}
}

func TestActivate_RegistrationErrorPropagates(t *testing.T) {
	stream := &recordingStream{err: errors.New("stream closed")}
	ext := New(Capabilities{Stream: stream})

	if err := ext.Activate(StatusStartupFinished, ""); err == nil {
		t.Fatal("registration failure must propagate")
	}
}

func TestActivate_MissingStreamIsNotAnError(t *testing.T) {
	ext := New(Capabilities{})
	if err := ext.Activate(StatusStartupFinished, ""); err != nil {
		t.Fatalf("activate without stream: %v", err)
	}
}

func TestListener_RoutesSimulationRequests(t *testing.T) {
	bus := events.NewBus(nil)
	done := make(chan string, 1)
	bus.OnPush(func(eventType, data string) {
		if eventType == eext.EventSimulationResult {
			done <- data
		}
	})

	sess := &stubSession{result: `{"ok":true}`}
	b := bridge.New(&stubSource{session: sess}, bus, nil)
	ext := New(Capabilities{Stream: bus, Sink: bus}, WithBridge(b))

	if err := ext.Activate(StatusStartupFinished, ""); err != nil {
		t.Fatalf("activate: %v", err)
	}

	bus.Emit(eext.EventSimulateNetlist, []byte(`{"netlist":"R1 1 0 1k\n.end"}`))

	select {
	case data := <-done:
		if data != sess.result {
			t.Errorf("result = %q", data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("simulation result never pushed")
	}
	if sess.netlist != "R1 1 0 1k\n.end" {
		t.Errorf("netlist = %q", sess.netlist)
	}
}

func TestListener_IgnoresOtherEvents(t *testing.T) {
	bus := events.NewBus(nil)
	pushed := make(chan struct{}, 1)
	bus.OnPush(func(string, string) { pushed <- struct{}{} })

	sess := &stubSession{result: "{}"}
	b := bridge.New(&stubSource{session: sess}, bus, nil)
	ext := New(Capabilities{Stream: bus, Sink: bus}, WithBridge(b))

	if err := ext.Activate(StatusStartupFinished, ""); err != nil {
		t.Fatalf("activate: %v", err)
	}

	bus.Emit("SCHEMATIC_SAVED", []byte(`{}`))

	select {
	case <-pushed:
		t.Fatal("unrelated event reached the bridge")
	case <-time.After(100 * time.Millisecond):
	}
}

type recordingDialog struct{ messages []string }

func (d *recordingDialog) Information(msg string) { d.messages = append(d.messages, msg) }

type upperLocalizer struct{}

func (upperLocalizer) Format(key string, args ...string) string {
	return key + ":" + args[0]
}

func TestAbout(t *testing.T) {
	dialog := &recordingDialog{}
	ext := New(Capabilities{Dialog: dialog, Localizer: upperLocalizer{}})
	ext.About()

	if len(dialog.messages) != 1 {
		t.Fatalf("dialogs shown = %d, want 1", len(dialog.messages))
	}
	if dialog.messages[0] != "about.message:"+eext.Version {
		t.Errorf("message = %q", dialog.messages[0])
	}

	// Absent dialog capability is a no-op.
	New(Capabilities{}).About()
}
