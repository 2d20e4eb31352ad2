package loader

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	eext "github.com/easyeda/eext-simulation-with-ngspice"
	eexterrors "github.com/easyeda/eext-simulation-with-ngspice/errors"
)

var minimalWASM = []byte("\x00asm\x01\x00\x00\x00")

type fakeFile struct {
	data []byte
	err  error
}

func (f *fakeFile) Text() (string, error) { return string(f.data), f.err }
func (f *fakeFile) Bytes() ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

// fakeProvider records every lookup so tests can assert that resolution
// strategies do not re-run.
type fakeProvider struct {
	files   map[string][]byte
	lookups []string
}

func (p *fakeProvider) GetExtensionFile(path string) (eext.File, bool) {
	p.lookups = append(p.lookups, path)
	data, ok := p.files[path]
	if !ok {
		return nil, false
	}
	return &fakeFile{data: data}, true
}

func TestResolve_HostWinsOverEmbedded(t *testing.T) {
	hostBytes := []byte("host copy")
	l := &Loader{
		Files:    &fakeProvider{files: map[string][]byte{"ngspice.wasm": hostBytes}},
		Embedded: Embedded{Main: minimalWASM},
	}

	got, err := l.Resolve(context.Background(), ResourceMain)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if string(got) != string(hostBytes) {
		t.Errorf("host filesystem should win: got %q", got)
	}
}

func TestResolve_LeadingSeparatorRetry(t *testing.T) {
	p := &fakeProvider{files: map[string][]byte{"/ngspice.wasm": minimalWASM}}
	l := &Loader{Files: p}

	got, err := l.Resolve(context.Background(), ResourceMain)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got == nil {
		t.Fatal("payload not found via leading-separator retry")
	}
	want := []string{"ngspice.wasm", "/ngspice.wasm"}
	if len(p.lookups) != 2 || p.lookups[0] != want[0] || p.lookups[1] != want[1] {
		t.Errorf("lookups = %v, want %v", p.lookups, want)
	}
}

func TestResolve_EmbeddedFallback(t *testing.T) {
	l := &Loader{Embedded: Embedded{Main: minimalWASM}}

	got, err := l.Resolve(context.Background(), ResourceMain)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if string(got) != string(minimalWASM) {
		t.Error("embedded payload not returned")
	}
}

func TestResolve_EmbeddedBase64Text(t *testing.T) {
	l := &Loader{Embedded: Embedded{MainText: base64.StdEncoding.EncodeToString(minimalWASM)}}

	got, err := l.Resolve(context.Background(), ResourceMain)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if string(got) != string(minimalWASM) {
		t.Error("base64 payload not decoded")
	}
}

func TestResolve_EmbeddedBase64Invalid(t *testing.T) {
	l := &Loader{Embedded: Embedded{MainText: "not*base64"}}

	_, err := l.Resolve(context.Background(), ResourceMain)
	if !errors.Is(err, &eexterrors.Error{Phase: eexterrors.PhaseDecode, Kind: eexterrors.KindNoDecoder}) {
		t.Errorf("unexpected error taxonomy: %v", err)
	}
}

func TestResolve_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/engine/ngspice.wasm" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(minimalWASM)
	}))
	defer srv.Close()

	l := &Loader{BaseURL: srv.URL + "/engine"}

	got, err := l.Resolve(context.Background(), ResourceMain)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if string(got) != string(minimalWASM) {
		t.Error("fetched payload mismatch")
	}
}

func TestResolve_FetchNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	l := &Loader{BaseURL: srv.URL}

	_, err := l.Resolve(context.Background(), ResourceMain)
	if !errors.Is(err, &eexterrors.Error{Phase: eexterrors.PhaseLoad, Kind: eexterrors.KindFetchFailed}) {
		t.Fatalf("unexpected error taxonomy: %v", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "ngspice.wasm") || !strings.Contains(msg, "503") {
		t.Errorf("error %q should carry path and status", msg)
	}
}

func TestResolve_NoSources(t *testing.T) {
	l := &Loader{}

	got, err := l.Resolve(context.Background(), ResourceMain)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != nil {
		t.Errorf("expected nothing, got %d bytes", len(got))
	}
}

func TestEnsureEngine_LoaderNotFound(t *testing.T) {
	ResetRegistry()
	t.Cleanup(ResetRegistry)

	l := &Loader{}
	_, err := l.EnsureEngine(context.Background())
	if err == nil {
		t.Fatal("expected terminal loader error")
	}
	if got := eexterrors.Message(err); got != "Ngspice loader not found after script load" {
		t.Errorf("message = %q", got)
	}
}

func TestEnsureEngine_Idempotent(t *testing.T) {
	ResetRegistry()
	t.Cleanup(ResetRegistry)

	p := &fakeProvider{files: map[string][]byte{
		"ngspice.wasm":      minimalWASM,
		"ngspice-models.so": minimalWASM,
	}}
	l := &Loader{Files: p}
	ctx := context.Background()

	first, err := l.EnsureEngine(ctx)
	if err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	lookupsAfterFirst := len(p.lookups)

	second, err := l.EnsureEngine(ctx)
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if second != first {
		t.Error("second ensure returned a different handle")
	}
	if len(p.lookups) != lookupsAfterFirst {
		t.Errorf("resolution strategies re-ran: %d lookups after second call, %d after first",
			len(p.lookups), lookupsAfterFirst)
	}
}

func TestEnsureEngine_ConcurrentInstall(t *testing.T) {
	ResetRegistry()
	t.Cleanup(ResetRegistry)

	l := &Loader{Embedded: Embedded{Main: minimalWASM}}
	ctx := context.Background()

	const n = 8
	handles := make([]*EngineHandle, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := l.EnsureEngine(ctx)
			if err != nil {
				t.Errorf("ensure %d: %v", i, err)
				return
			}
			handles[i] = h
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if handles[i] != handles[0] {
			t.Fatalf("handle %d differs from handle 0", i)
		}
	}
}

func TestEnsureEngine_SidePayloadOptional(t *testing.T) {
	ResetRegistry()
	t.Cleanup(ResetRegistry)

	l := &Loader{Embedded: Embedded{Main: minimalWASM}}
	h, err := l.EnsureEngine(context.Background())
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if h.Side != nil {
		t.Error("side payload should be absent")
	}
	if h.SidePath != "/lib/ngspice-models.so" {
		t.Errorf("side path = %q", h.SidePath)
	}
}
