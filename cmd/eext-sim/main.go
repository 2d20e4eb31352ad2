// Command eext-sim exercises the simulation bridge outside the host:
// it wires the extension against an in-process event bus, emits one
// simulation request, and prints the pushed result.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	eext "github.com/easyeda/eext-simulation-with-ngspice"
	"github.com/easyeda/eext-simulation-with-ngspice/bridge"
	"github.com/easyeda/eext-simulation-with-ngspice/config"
	"github.com/easyeda/eext-simulation-with-ngspice/engine"
	"github.com/easyeda/eext-simulation-with-ngspice/events"
	"github.com/easyeda/eext-simulation-with-ngspice/host"
	"github.com/easyeda/eext-simulation-with-ngspice/loader"
)

func main() {
	var (
		netlistFile = flag.String("netlist", "", "Path to netlist file (omit for the built-in RC fallback)")
		probeSpecs  = flag.String("probes", "", "Probe specs: node[:type[:low[:high]]],...")
		configFile  = flag.String("config", "", "Path to YAML config file")
		enginePath  = flag.String("engine", "", "Path to engine wasm (overrides embedded payload)")
		sidePath    = flag.String("side", "", "Path to side module (overrides embedded payload)")
		fetchBase   = flag.String("fetch", "", "Base URL for network payload fetch")
		about       = flag.Bool("about", false, "Show extension info and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *about {
		ext := host.New(host.Capabilities{Dialog: stdoutDialog{}})
		ext.About()
		return
	}

	if *interactive {
		if err := runInteractive(*configFile, *enginePath, *sidePath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*configFile, *netlistFile, *probeSpecs, *enginePath, *sidePath, *fetchBase); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type stdoutDialog struct{}

func (stdoutDialog) Information(msg string) { fmt.Println(msg) }

func run(configFile, netlistFile, probeSpecs, enginePath, sidePath, fetchBase string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if fetchBase != "" {
		cfg.Engine.FetchBaseURL = fetchBase
	}

	logger, err := buildLogger(cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	engine.SetLogger(logger)

	l, err := buildLoader(cfg, enginePath, sidePath, logger)
	if err != nil {
		return err
	}

	payload, err := buildPayload(netlistFile, probeSpecs)
	if err != nil {
		return err
	}

	bus := events.NewBus(logger)
	outcome := make(chan pushResult, 1)
	bus.OnPush(func(eventType, data string) {
		select {
		case outcome <- pushResult{eventType, data}:
		default:
		}
	})

	ext := host.New(
		host.Capabilities{Stream: bus, Sink: bus},
		host.WithLogger(logger),
		host.WithBridge(bridge.New(bridge.NewEngineSource(l), bus, logger)),
	)
	if err := ext.Activate(host.StatusStartupFinished, "cli"); err != nil {
		return err
	}

	bus.Emit(eext.EventSimulateNetlist, payload)

	res := <-outcome
	if res.eventType == eext.EventErrorResult {
		return fmt.Errorf("simulation failed: %s", res.data)
	}
	fmt.Println(res.data)
	return nil
}

type pushResult struct {
	eventType string
	data      string
}

func buildLogger(level string) (*zap.Logger, error) {
	var zapCfg zap.Config
	if term.IsTerminal(int(os.Stderr.Fd())) {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("logging level: %w", err)
	}
	zapCfg.Level = lvl
	return zapCfg.Build()
}

func buildLoader(cfg config.Config, enginePath, sidePath string, logger *zap.Logger) (*loader.Loader, error) {
	embedded := loader.DefaultEmbedded()
	if enginePath != "" {
		data, err := os.ReadFile(enginePath)
		if err != nil {
			return nil, fmt.Errorf("read engine payload: %w", err)
		}
		embedded.Main = data
	}
	if sidePath != "" {
		data, err := os.ReadFile(sidePath)
		if err != nil {
			return nil, fmt.Errorf("read side payload: %w", err)
		}
		embedded.Side = data
	}

	var engineCfg *engine.Config
	if cfg.Engine.MemoryLimitPages > 0 {
		engineCfg = &engine.Config{MemoryLimitPages: cfg.Engine.MemoryLimitPages}
	}

	return &loader.Loader{
		Embedded:     embedded,
		BaseURL:      cfg.Engine.FetchBaseURL,
		MainPath:     cfg.Engine.MainPath,
		SidePath:     cfg.Engine.SidePath,
		EngineConfig: engineCfg,
		Logger:       logger,
	}, nil
}

// buildPayload assembles the SIMULATE_NETLIST request from CLI inputs.
func buildPayload(netlistFile, probeSpecs string) ([]byte, error) {
	var sb strings.Builder
	sb.WriteByte('{')

	if netlistFile != "" {
		data, err := os.ReadFile(netlistFile)
		if err != nil {
			return nil, fmt.Errorf("read netlist: %w", err)
		}
		sb.WriteString(`"netlist":`)
		sb.WriteString(strconv.Quote(string(data)))
	}

	if probeSpecs != "" {
		probes, err := parseProbeSpecs(probeSpecs)
		if err != nil {
			return nil, err
		}
		if netlistFile != "" {
			sb.WriteByte(',')
		}
		sb.WriteString(`"probeNodes":[`)
		for i, p := range probes {
			if i > 0 {
				sb.WriteByte(',')
			}
			fmt.Fprintf(&sb, `{"ProbeNode":%s,"ProbeType":%g,"LowLevel":%g,"HighLevel":%g}`,
				strconv.Quote(p.node), p.kind, p.low, p.high)
		}
		sb.WriteByte(']')
	}

	sb.WriteByte('}')
	return []byte(sb.String()), nil
}

type probeSpec struct {
	node string
	kind float64
	low  float64
	high float64
}

// parseProbeSpecs parses "node[:type[:low[:high]]]" entries separated
// by commas. Omitted numeric fields default to 1, matching the request
// contract.
func parseProbeSpecs(s string) ([]probeSpec, error) {
	var probes []probeSpec
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if parts[0] == "" {
			return nil, fmt.Errorf("probe spec %q: missing node", entry)
		}
		p := probeSpec{node: parts[0], kind: 1, low: 1, high: 1}
		targets := []*float64{&p.kind, &p.low, &p.high}
		if len(parts)-1 > len(targets) {
			return nil, fmt.Errorf("probe spec %q: too many fields", entry)
		}
		for i, raw := range parts[1:] {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("probe spec %q: %w", entry, err)
			}
			*targets[i] = v
		}
		probes = append(probes, p)
	}
	return probes, nil
}
