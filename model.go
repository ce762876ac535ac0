package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"qsimdeck/sim"
)

// focus represents which panel/mode has keyboard input.
type focus int

const (
	focusCircuit focus = iota
	focusQASM
	focusMenu
	focusSelectQubit
	focusInputParam
)

const defaultShots = 1024

// Model represents the TUI application state. The circuit is the single
// source of truth: every edit replays it into the engine from scratch, and
// the QASM view is regenerated from it.
type Model struct {
	circuit *sim.Circuit
	engine  *sim.Engine
	sampler *sim.Sampler

	cursorQubit int
	cursorDepth int
	width       int
	height      int
	qasmEditor  textarea.Model
	focus       focus
	lastQASM    string
	statusMsg   string

	// Menu state
	menuCat  int
	menuItem int

	// Pending gate placement (multi-qubit picks and parameter input)
	pendingKind   sim.Kind
	pendingPicks  []int
	pendingParams []float64
	paramInput    string
	selQubit      int

	// Shot histogram from the last run, nil until `r` is pressed.
	histogram map[string]int
	shots     int

	// Step playback state: true while space is walking depth slots.
	stepping bool
}

func initialModel(logger *log.Logger) Model {
	ta := textarea.New()
	ta.Placeholder = "Edit QASM here..."
	ta.SetWidth(40)
	ta.SetHeight(20)
	ta.ShowLineNumbers = true
	ta.KeyMap.InsertNewline.SetEnabled(true)

	lib := sim.NewLibrary()
	circuit, err := sim.NewCircuit(3)
	if err != nil {
		panic(err)
	}
	engine, err := sim.NewEngine(lib, circuit.NumQubits())
	if err != nil {
		panic(err)
	}
	engine.SetLogger(logger)

	m := Model{
		circuit:    circuit,
		engine:     engine,
		sampler:    sim.NewSampler(time.Now().UnixNano()),
		qasmEditor: ta,
		focus:      focusCircuit,
	}
	m.resync()
	return m
}

// resync replays the circuit into the engine and regenerates the QASM view.
// Called after every circuit edit; it also drops stale run results.
func (m *Model) resync() {
	m.histogram = nil
	m.stepping = false
	if m.cursorQubit >= m.circuit.NumQubits() {
		m.cursorQubit = m.circuit.NumQubits() - 1
	}
	if err := m.circuit.Replay(m.engine); err != nil {
		m.statusMsg = err.Error()
	}
	qasm := m.circuit.ToQASM()
	m.qasmEditor.SetValue(qasm)
	m.lastQASM = qasm
}

// parseQASMInput rebuilds the circuit from the editor contents. A line that
// fails to parse leaves the previous circuit in place.
func (m *Model) parseQASMInput() {
	qasm := m.qasmEditor.Value()
	if qasm == m.lastQASM {
		return
	}
	parsed, err := sim.ParseQASM(qasm)
	if err != nil {
		m.statusMsg = err.Error()
		m.lastQASM = qasm
		return
	}
	m.circuit = parsed
	m.lastQASM = qasm
	m.histogram = nil
	m.stepping = false
	if m.cursorQubit >= m.circuit.NumQubits() {
		m.cursorQubit = m.circuit.NumQubits() - 1
	}
	if err := m.circuit.Replay(m.engine); err != nil {
		m.statusMsg = err.Error()
	}
}

// picksNeeded is how many qubits beyond the cursor a kind requires.
func picksNeeded(k sim.Kind) int {
	switch k {
	case sim.KindCX, sim.KindCZ, sim.KindCRX, sim.KindCRY, sim.KindCRZ, sim.KindSWAP:
		return 1
	case sim.KindCCX, sim.KindCSWAP:
		return 2
	default:
		return 0
	}
}

// pickPrompt labels the qubit currently being selected.
func pickPrompt(k sim.Kind, idx int) string {
	switch k {
	case sim.KindSWAP:
		return "swap partner"
	case sim.KindCCX:
		if idx == 0 {
			return "second control"
		}
		return "target"
	case sim.KindCSWAP:
		if idx == 0 {
			return "first swap qubit"
		}
		return "second swap qubit"
	default:
		return "target"
	}
}

// buildPending assembles the gate from the cursor qubit, the picked qubits,
// and any parameters. The cursor is the control for controlled kinds and the
// first exchange qubit for SWAP.
func (m *Model) buildPending() sim.Gate {
	k := m.pendingKind
	cur := m.cursorQubit
	picks := m.pendingPicks
	params := m.pendingParams
	switch k {
	case sim.KindCX, sim.KindCZ, sim.KindCRX, sim.KindCRY, sim.KindCRZ:
		return sim.NewControlled(k, picks[0], []int{cur}, params...)
	case sim.KindSWAP:
		return sim.NewSwap(cur, picks[0])
	case sim.KindCCX:
		return sim.NewControlled(k, picks[1], []int{cur, picks[0]})
	case sim.KindCSWAP:
		return sim.NewSwap(picks[0], picks[1], cur)
	default:
		return sim.NewGate(k, cur, params...)
	}
}

func (m *Model) clearPending() {
	m.pendingKind = ""
	m.pendingPicks = nil
	m.pendingParams = nil
	m.paramInput = ""
}

// pickTaken reports whether a qubit is already claimed by the pending gate.
func (m *Model) pickTaken(q int) bool {
	if q == m.cursorQubit {
		return true
	}
	for _, p := range m.pendingPicks {
		if p == q {
			return true
		}
	}
	return false
}

// startPicks moves into qubit selection, or places immediately for
// single-qubit gates.
func (m *Model) startPicks() {
	need := picksNeeded(m.pendingKind)
	if need == 0 {
		m.placePending()
		return
	}
	if m.circuit.NumQubits() < need+1 {
		m.statusMsg = fmt.Sprintf("%s needs %d qubits", m.pendingKind, need+1)
		m.clearPending()
		m.focus = focusCircuit
		return
	}
	m.focus = focusSelectQubit
	m.selQubit = m.nextFreeQubit()
}

// nextFreeQubit returns the first qubit not claimed by the pending gate.
func (m *Model) nextFreeQubit() int {
	for q := 0; q < m.circuit.NumQubits(); q++ {
		if !m.pickTaken(q) {
			return q
		}
	}
	return 0
}

func (m *Model) placePending() {
	if _, err := m.circuit.AddGate(m.buildPending()); err != nil {
		m.statusMsg = err.Error()
	}
	m.clearPending()
	m.resync()
	m.focus = focusCircuit
}

// runShots samples the current state and stores the histogram.
func (m *Model) runShots() {
	counts, err := m.sampler.Shots(m.engine, defaultShots)
	if err != nil {
		m.statusMsg = err.Error()
		return
	}
	m.histogram = counts
	m.shots = defaultShots
	m.statusMsg = fmt.Sprintf("Ran %d shots", defaultShots)
}

// stepOnce advances playback by one depth slot.
func (m *Model) stepOnce() {
	if !m.stepping {
		m.circuit.Rewind()
		m.histogram = nil
	}
	more, err := m.circuit.Step(m.engine)
	if err != nil {
		m.statusMsg = err.Error()
		m.stepping = false
		return
	}
	m.stepping = more
	if more {
		m.statusMsg = fmt.Sprintf("Step %d/%d", m.circuit.Playhead(), m.circuit.MaxDepth())
	} else {
		m.statusMsg = "Playback complete"
	}
}

// ──────────────────────────── Init / Update ────────────────────────────

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		qasmW := max(msg.Width/3-6, 20)
		m.qasmEditor.SetWidth(qasmW)
		ctrlH := 6
		circH := msg.Height - ctrlH - 4
		editorH := max(circH-8, 4)
		m.qasmEditor.SetHeight(editorH)

	case tea.KeyMsg:
		key := msg.String()
		m.statusMsg = ""

		if key == "ctrl+c" {
			return m, tea.Quit
		}

		switch m.focus {
		case focusCircuit:
			switch key {
			case "q":
				return m, tea.Quit
			case "tab":
				m.focus = focusQASM
				m.qasmEditor.Focus()
			case "ctrl+r":
				m.circuit.Clear()
				m.cursorDepth = 0
				m.resync()
			case "ctrl+s":
				if err := os.WriteFile("circuit.qasm", []byte(m.circuit.ToQASM()), 0644); err != nil {
					m.statusMsg = fmt.Sprintf("Save error: %v", err)
				} else {
					m.statusMsg = "Saved circuit.qasm"
				}
			case "up", "k":
				if m.cursorQubit > 0 {
					m.cursorQubit--
				}
			case "down", "j":
				if m.cursorQubit < m.circuit.NumQubits()-1 {
					m.cursorQubit++
				}
			case "left", "h":
				if m.cursorDepth > 0 {
					m.cursorDepth--
				}
			case "right", "l":
				m.cursorDepth++
			case "+", "=":
				if err := m.circuit.AddQubit(); err != nil {
					m.statusMsg = err.Error()
				}
				m.resync()
			case "-":
				if err := m.circuit.RemoveQubit(); err != nil {
					m.statusMsg = err.Error()
				}
				m.resync()
			case "a":
				m.focus = focusMenu
				m.menuCat = 0
				m.menuItem = 0
			case "backspace", "delete":
				if err := m.circuit.RemoveGateAt(m.cursorDepth, m.cursorQubit); err != nil {
					m.statusMsg = err.Error()
				}
				m.resync()
			case "u":
				if err := m.circuit.Undo(); err != nil {
					m.statusMsg = err.Error()
				}
				m.resync()
			case "y":
				if err := m.circuit.Redo(); err != nil {
					m.statusMsg = err.Error()
				}
				m.resync()
			case "r":
				m.runShots()
			case "m":
				outcome, err := m.sampler.MeasureQubit(m.engine, m.cursorQubit)
				if err != nil {
					m.statusMsg = err.Error()
				} else {
					m.histogram = nil
					m.statusMsg = fmt.Sprintf("q[%d] measured: %d (state collapsed; edit to reset)", m.cursorQubit, outcome)
				}
			case " ":
				m.stepOnce()
			}

		case focusMenu:
			switch key {
			case "esc":
				m.focus = focusCircuit
			case "up", "k":
				if m.menuItem > 0 {
					m.menuItem--
				}
			case "down", "j":
				cat := gateMenu[m.menuCat]
				if m.menuItem < len(cat.items)-1 {
					m.menuItem++
				}
			case "left", "h":
				if m.menuCat > 0 {
					m.menuCat--
					m.menuItem = 0
				}
			case "right", "l":
				if m.menuCat < len(gateMenu)-1 {
					m.menuCat++
					m.menuItem = 0
				}
			case "enter":
				item := gateMenu[m.menuCat].items[m.menuItem]
				m.pendingKind = item.kind
				m.pendingPicks = nil
				m.pendingParams = nil
				if sim.IsParameterized(item.kind) {
					m.paramInput = ""
					m.focus = focusInputParam
					break
				}
				m.startPicks()
			}

		case focusSelectQubit:
			switch key {
			case "esc":
				m.clearPending()
				m.focus = focusCircuit
			case "up", "k":
				for next := m.selQubit - 1; next >= 0; next-- {
					if !m.pickTaken(next) {
						m.selQubit = next
						break
					}
				}
			case "down", "j":
				for next := m.selQubit + 1; next < m.circuit.NumQubits(); next++ {
					if !m.pickTaken(next) {
						m.selQubit = next
						break
					}
				}
			case "enter":
				m.pendingPicks = append(m.pendingPicks, m.selQubit)
				if len(m.pendingPicks) >= picksNeeded(m.pendingKind) {
					m.placePending()
					break
				}
				m.selQubit = m.nextFreeQubit()
			}

		case focusInputParam:
			switch key {
			case "esc":
				m.clearPending()
				m.focus = focusCircuit
			case "backspace":
				if len(m.paramInput) > 0 {
					m.paramInput = m.paramInput[:len(m.paramInput)-1]
				}
			case "enter":
				params := sim.ParseParams(m.paramInput)
				if m.paramInput != "" && params == nil {
					m.statusMsg = "Invalid parameter — use numbers or pi expressions (e.g. pi/2, 3*pi/4)"
					break
				}
				m.pendingParams = params
				m.startPicks()
			default:
				if len(key) == 1 {
					ch := key[0]
					if (ch >= '0' && ch <= '9') || ch == '.' || ch == ',' || ch == '-' || ch == 'e' || ch == 'E' || ch == '+' ||
						ch == 'p' || ch == 'i' || ch == '*' || ch == '/' {
						m.paramInput += key
					}
				}
			}

		case focusQASM:
			switch key {
			case "tab":
				m.focus = focusCircuit
				m.qasmEditor.Blur()
			default:
				var cmd tea.Cmd
				m.qasmEditor, cmd = m.qasmEditor.Update(msg)
				cmds = append(cmds, cmd)
				m.parseQASMInput()
			}
		}
	}

	return m, tea.Batch(cmds...)
}

// View renders the UI.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	qasmWidth := m.width / 3
	leftWidth := m.width - qasmWidth - 4
	controlsHeight := 6
	bodyHeight := max(m.height-controlsHeight-2, 6)
	circuitHeight := max(bodyHeight*3/5, 8)
	stateHeight := max(bodyHeight-circuitHeight, 6)

	circuitPanel := m.renderCircuitPanel(leftWidth, circuitHeight)
	statePanel := m.renderStatePanel(leftWidth, stateHeight)
	leftCol := lipgloss.JoinVertical(lipgloss.Left, circuitPanel, statePanel)
	qasmPanel := m.renderQASMPanel(qasmWidth, bodyHeight)
	controlsPanel := m.renderControlsPanel(m.width-4, controlsHeight-2)

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, leftCol, qasmPanel)
	frame := lipgloss.JoinVertical(lipgloss.Left, topRow, controlsPanel)

	if m.focus == focusMenu {
		frame = overlayAt(frame, m.renderMenu(), 2, 2)
	}
	if m.focus == focusInputParam {
		frame = overlayAt(frame, m.renderParamInput(), 2, 2)
	}

	return frame
}
