package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	eext "github.com/easyeda/eext-simulation-with-ngspice"
	"github.com/easyeda/eext-simulation-with-ngspice/bridge"
	"github.com/easyeda/eext-simulation-with-ngspice/config"
	"github.com/easyeda/eext-simulation-with-ngspice/events"
	"github.com/easyeda/eext-simulation-with-ngspice/host"
	"go.uber.org/zap"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateInput modelState = iota
	stateRunning
	stateShowResult
)

type interactiveModel struct {
	bus      *events.Bus
	outcome  chan pushResult
	inputs   []textinput.Model
	focusIdx int
	state    modelState
	result   string
	isError  bool
}

type simDoneMsg pushResult

func newInteractiveModel(bus *events.Bus, outcome chan pushResult) *interactiveModel {
	netlist := textinput.New()
	netlist.Placeholder = "netlist file (empty = built-in RC circuit)"
	netlist.Focus()
	netlist.Width = 60

	probes := textinput.New()
	probes.Placeholder = "probes: node[:type[:low[:high]]],..."
	probes.Width = 60

	return &interactiveModel{
		bus:     bus,
		outcome: outcome,
		inputs:  []textinput.Model{netlist, probes},
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "shift+tab":
			if m.state == stateInput {
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				for i := range m.inputs {
					if i == m.focusIdx {
						m.inputs[i].Focus()
					} else {
						m.inputs[i].Blur()
					}
				}
			}
			return m, nil
		case "enter":
			switch m.state {
			case stateInput:
				m.state = stateRunning
				return m, m.runSimulation()
			case stateShowResult:
				m.state = stateInput
				m.result = ""
				return m, nil
			}
		}

	case simDoneMsg:
		m.state = stateShowResult
		m.result = msg.data
		m.isError = msg.eventType == eext.EventErrorResult
		return m, nil
	}

	if m.state == stateInput {
		var cmd tea.Cmd
		m.inputs[m.focusIdx], cmd = m.inputs[m.focusIdx].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *interactiveModel) runSimulation() tea.Cmd {
	netlistFile := strings.TrimSpace(m.inputs[0].Value())
	probeSpecs := strings.TrimSpace(m.inputs[1].Value())

	return func() tea.Msg {
		payload, err := buildPayload(netlistFile, probeSpecs)
		if err != nil {
			return simDoneMsg{eventType: eext.EventErrorResult, data: err.Error()}
		}
		m.bus.Emit(eext.EventSimulateNetlist, payload)
		return simDoneMsg(<-m.outcome)
	}
}

func (m *interactiveModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("eext-sim — ngspice simulation bridge"))
	b.WriteString("\n\n")

	switch m.state {
	case stateInput:
		b.WriteString(labelStyle.Render("Netlist") + "\n")
		b.WriteString(m.inputs[0].View() + "\n\n")
		b.WriteString(labelStyle.Render("Probes") + "\n")
		b.WriteString(m.inputs[1].View() + "\n\n")
		b.WriteString(helpStyle.Render("enter: run · tab: switch field · esc: quit"))

	case stateRunning:
		b.WriteString("Running simulation...\n")

	case stateShowResult:
		if m.isError {
			b.WriteString(errorStyle.Render("Error: "+m.result) + "\n\n")
		} else {
			b.WriteString(resultStyle.Render(m.result) + "\n\n")
		}
		b.WriteString(helpStyle.Render("enter: new run · esc: quit"))
	}

	b.WriteString("\n")
	return b.String()
}

func runInteractive(configFile, enginePath, sidePath string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	// TUI owns the terminal; keep logs out of it.
	logger := zap.NewNop()

	l, err := buildLoader(cfg, enginePath, sidePath, logger)
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
		host.WithBridge(bridge.New(bridge.NewEngineSource(l), bus, logger)),
	)
	if err := ext.Activate(host.StatusStartupFinished, "cli-interactive"); err != nil {
		return err
	}

	p := tea.NewProgram(newInteractiveModel(bus, outcome))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
