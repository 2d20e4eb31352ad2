package loader

import (
	"context"
	"io"
	"net/http"
	"path"
	"strings"

	"go.uber.org/zap"

	eext "github.com/easyeda/eext-simulation-with-ngspice"
	"github.com/easyeda/eext-simulation-with-ngspice/assets"
	"github.com/easyeda/eext-simulation-with-ngspice/engine"
	"github.com/easyeda/eext-simulation-with-ngspice/errors"
)

// Resource identifies one of the engine's payloads.
type Resource int

const (
	// ResourceMain is the engine's main module.
	ResourceMain Resource = iota

	// ResourceSide is the device-model side module.
	ResourceSide
)

// Embedded holds payloads bundled at build time. A payload is carried
// either as a raw pre-decoded byte buffer or as base64 text, depending
// on payload kind; bytes win when both are set.
type Embedded struct {
	Main     []byte
	Side     []byte
	MainText string
	SideText string
}

// DefaultEmbedded returns the payloads shipped in the assets package.
func DefaultEmbedded() Embedded {
	return Embedded{
		Main: assets.MainPayload(),
		Side: assets.SidePayload(),
	}
}

// Loader resolves engine payloads. The zero value has no sources; every
// field is optional and its absence skips that strategy.
type Loader struct {
	// Files is the host's extension filesystem.
	Files eext.FileProvider

	// Embedded supplies the build-time fallback payloads.
	Embedded Embedded

	// BaseURL enables the network-fetch fallback. Empty disables it.
	BaseURL string

	// Client performs network fetches. Nil uses http.DefaultClient.
	Client *http.Client

	// MainPath and SidePath override the logical payload paths.
	MainPath string
	SidePath string

	// EngineConfig configures the engine runtime created on first use.
	EngineConfig *engine.Config

	// Logger logs resolution steps. Nil disables logging.
	Logger *zap.Logger
}

func (l *Loader) path(res Resource) string {
	switch res {
	case ResourceSide:
		if l.SidePath != "" {
			return l.SidePath
		}
		return assets.SidePayloadPath
	default:
		if l.MainPath != "" {
			return l.MainPath
		}
		return assets.MainPayloadPath
	}
}

func (l *Loader) logger() *zap.Logger {
	if l.Logger == nil {
		return zap.NewNop()
	}
	return l.Logger
}

// Resolve produces the payload bytes for a resource, or (nil, nil) when
// no strategy yields anything.
func (l *Loader) Resolve(ctx context.Context, res Resource) ([]byte, error) {
	p := l.path(res)

	if data, err := l.fromHost(p); err != nil || data != nil {
		return data, err
	}
	if data, err := l.fromEmbedded(res, p); err != nil || data != nil {
		return data, err
	}
	return l.fetch(ctx, p)
}

// fromHost asks the host's extension filesystem, retrying with a
// leading separator when the bare path is not found.
func (l *Loader) fromHost(p string) ([]byte, error) {
	if l.Files == nil {
		return nil, nil
	}

	f, ok := l.Files.GetExtensionFile(p)
	if !ok && !strings.HasPrefix(p, "/") {
		f, ok = l.Files.GetExtensionFile("/" + p)
	}
	if !ok {
		return nil, nil
	}

	data, err := f.Bytes()
	if err != nil {
		return nil, errors.InvalidInput(errors.PhaseLoad, "read extension file "+p+": "+err.Error())
	}
	l.logger().Debug("payload resolved from host filesystem",
		zap.String("path", p), zap.Int("bytes", len(data)))
	return data, nil
}

func (l *Loader) fromEmbedded(res Resource, p string) ([]byte, error) {
	var raw []byte
	var text string
	switch res {
	case ResourceSide:
		raw, text = l.Embedded.Side, l.Embedded.SideText
	default:
		raw, text = l.Embedded.Main, l.Embedded.MainText
	}

	if len(raw) > 0 {
		l.logger().Debug("payload resolved from embedded bytes", zap.String("path", p))
		return raw, nil
	}
	if text != "" {
		data, err := assets.DecodeBase64(text)
		if err != nil {
			return nil, errors.Decode(p, err)
		}
		l.logger().Debug("payload resolved from embedded base64 text", zap.String("path", p))
		return data, nil
	}
	return nil, nil
}

func (l *Loader) fetch(ctx context.Context, p string) ([]byte, error) {
	if l.BaseURL == "" {
		return nil, nil
	}

	url := strings.TrimSuffix(l.BaseURL, "/") + "/" + strings.TrimPrefix(p, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.InvalidInput(errors.PhaseLoad, "fetch "+p+": "+err.Error())
	}

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &errors.Error{
			Phase:    errors.PhaseLoad,
			Kind:     errors.KindFetchFailed,
			Resource: p,
			Detail:   "fetch " + p,
			Cause:    err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Fetch(p, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errors.Error{
			Phase:    errors.PhaseLoad,
			Kind:     errors.KindFetchFailed,
			Resource: p,
			Detail:   "fetch " + p,
			Cause:    err,
		}
	}
	l.logger().Debug("payload resolved over network",
		zap.String("url", url), zap.Int("bytes", len(data)))
	return data, nil
}

// EnsureEngine returns the process-wide engine handle, resolving
// payloads and creating the engine runtime on first call. Once a handle
// is installed, subsequent calls return it immediately without
// re-running any resolution strategy.
//
// When every strategy is exhausted without producing the engine's main
// payload, the returned error carries the terminal loader message.
func (l *Loader) EnsureEngine(ctx context.Context) (*EngineHandle, error) {
	if h, ok := InstalledEngine(); ok {
		return h, nil
	}

	main, err := l.Resolve(ctx, ResourceMain)
	if err != nil {
		return nil, err
	}
	if len(main) == 0 {
		return nil, errors.NotFound(errors.PhaseLoad, "Ngspice loader not found after script load")
	}

	side, err := l.Resolve(ctx, ResourceSide)
	if err != nil {
		return nil, err
	}

	eng, err := engine.NewWithConfig(ctx, l.EngineConfig)
	if err != nil {
		return nil, err
	}

	h := &EngineHandle{
		Factory:  eng.Factory(),
		Main:     main,
		Side:     side,
		SidePath: "/lib/" + path.Base(l.path(ResourceSide)),
	}

	winner := install(h)
	if winner != h {
		// Lost the install race: another caller's engine is already
		// registered.
		_ = eng.Close(ctx)
	}
	return winner, nil
}
