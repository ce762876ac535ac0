package main

import (
	"fmt"
	"sort"
	"strings"

	"qsimdeck/sim"
)

// ──────────────────────────── Rendering helpers ────────────────────────────

// padCenter centres a string within the given width.
func padCenter(s string, width int) string {
	if len(s) >= width {
		return s[:width]
	}
	total := width - len(s)
	left := total / 2
	right := total - left
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
}

// cellRole is how a qubit participates in the entry occupying its cell.
type cellRole int

const (
	roleEmpty cellRole = iota // bare wire
	roleBox                   // boxed gate name on the wire
	roleDot                   // control dot (also CZ's symmetric dot)
	rolePlus                  // ⊕ target of CX/CCX
	roleCross                 // × end of SWAP/CSWAP
	rolePass                  // uninvolved wire crossed by a vertical connector
)

// cellInfo describes one (depth, qubit) cell of the circuit grid.
type cellInfo struct {
	role      cellRole
	name      string // box label when role == roleBox
	vertAbove bool
	vertBelow bool
}

// boxLabel is the short name drawn inside a gate box.
func boxLabel(k sim.Kind) string {
	switch k {
	case sim.KindSDG:
		return "S†"
	case sim.KindTDG:
		return "T†"
	case sim.KindCRX:
		return "RX"
	case sim.KindCRY:
		return "RY"
	case sim.KindCRZ:
		return "RZ"
	default:
		return string(k)
	}
}

// cellAt derives the cell content for one grid position from the circuit.
func (m Model) cellAt(depth, qubit int) cellInfo {
	en := m.circuit.EntryAt(depth, qubit)
	if en == nil {
		// A multi-qubit entry at this depth may span across this wire.
		for _, other := range m.circuit.Entries() {
			if other.Depth != depth {
				continue
			}
			lo, hi := qubitSpan(other.Gate)
			if lo < qubit && qubit < hi {
				return cellInfo{role: rolePass, vertAbove: true, vertBelow: true}
			}
		}
		return cellInfo{}
	}

	g := en.Gate
	lo, hi := qubitSpan(g)
	info := cellInfo{vertAbove: qubit > lo, vertBelow: qubit < hi}

	switch {
	case containsInt(g.Controls, qubit):
		info.role = roleDot
	case g.Kind == sim.KindSWAP || g.Kind == sim.KindCSWAP:
		info.role = roleCross
	case g.Kind == sim.KindCX || g.Kind == sim.KindCCX:
		info.role = rolePlus
	case g.Kind == sim.KindCZ:
		info.role = roleDot
	default:
		info.role = roleBox
		info.name = boxLabel(g.Kind)
	}
	return info
}

// qubitSpan returns the lowest and highest qubit a gate touches.
func qubitSpan(g sim.Gate) (lo, hi int) {
	qs := g.Qubits()
	lo, hi = qs[0], qs[0]
	for _, q := range qs[1:] {
		if q < lo {
			lo = q
		}
		if q > hi {
			hi = q
		}
	}
	return lo, hi
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// ──────────────────────────── Cell rendering ────────────────────────────

type cellHighlight int

const (
	hlNone cellHighlight = iota
	hlCursor
	hlPickSelect
)

// renderCell returns 3 lines (top, mid, bot) for a single cell. Each line is
// exactly cellW visual characters wide.
func renderCell(info cellInfo, hl cellHighlight) (top, mid, bot string) {
	emptyRow := strings.Repeat(" ", cellW)
	halfW := cellW / 2
	vertRow := strings.Repeat(" ", halfW) + "│" + strings.Repeat(" ", cellW-halfW-1)

	symbolFor := func() string {
		switch info.role {
		case roleDot:
			return "●"
		case rolePlus:
			return "⊕"
		case roleCross:
			return "×"
		case rolePass:
			return "┼"
		}
		return ""
	}

	// ── Highlighted cell (cursor or qubit pick) ──
	if hl != hlNone {
		bdr := cursorBoxStyle
		if hl == hlPickSelect {
			bdr = pickSelectStyle
		}
		innerW := cellW - 2
		dashL := (innerW - 1) / 2
		dashR := innerW - dashL - 1

		top = bdr.Render("╔" + strings.Repeat("═", innerW) + "╗")
		bot = bdr.Render("╚" + strings.Repeat("═", innerW) + "╝")

		switch info.role {
		case roleBox:
			name := padCenter(info.name, gateNameW)
			mid = bdr.Render("║") + "─┤" + gateStyle.Render(name) + "├─" + bdr.Render("║")
		case roleEmpty:
			mid = bdr.Render("║") + strings.Repeat("─", innerW) + bdr.Render("║")
		default:
			mid = bdr.Render("║") + strings.Repeat("─", dashL) + gateStyle.Render(symbolFor()) + strings.Repeat("─", dashR) + bdr.Render("║")
		}
		return
	}

	// ── Normal cells ──
	dashL := (cellW - 1) / 2
	dashR := cellW - dashL - 1

	top = emptyRow
	bot = emptyRow
	if info.vertAbove {
		top = vertRow
	}
	if info.vertBelow {
		bot = vertRow
	}

	switch info.role {
	case roleBox:
		margin := (cellW - gateBoxW) / 2
		rightMargin := cellW - margin - gateBoxW
		name := padCenter(info.name, gateNameW)
		top = strings.Repeat(" ", margin) + gateStyle.Render("┌"+strings.Repeat("─", gateNameW)+"┐") + strings.Repeat(" ", rightMargin)
		mid = strings.Repeat("─", margin) + gateStyle.Render("┤"+name+"├") + strings.Repeat("─", rightMargin)
		bot = strings.Repeat(" ", margin) + gateStyle.Render("└"+strings.Repeat("─", gateNameW)+"┘") + strings.Repeat(" ", rightMargin)
		if info.vertAbove {
			top = vertRow
		}
		if info.vertBelow {
			bot = vertRow
		}
	case roleEmpty:
		mid = strings.Repeat("─", cellW)
	default:
		mid = strings.Repeat("─", dashL) + gateStyle.Render(symbolFor()) + strings.Repeat("─", dashR)
	}

	return
}

// ──────────────────────────── Panel rendering ────────────────────────────

// renderCircuitPanel renders the circuit grid panel.
func (m Model) renderCircuitPanel(width, height int) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Quantum Circuit"))
	sb.WriteString("\n\n")

	// How many depth slots fit
	availWidth := width - labelVisualW - 4
	maxSlots := max(availWidth/cellW, 1)

	startDepth := 0
	if m.cursorDepth >= maxSlots {
		startDepth = m.cursorDepth - maxSlots + 1
	}
	if startDepth > 0 {
		fmt.Fprintf(&sb, "  ◀ showing slots %d–%d\n", startDepth, startDepth+maxSlots-1)
	}

	// Slot number header; the playback marker sits over the playhead slot.
	header := strings.Repeat(" ", labelVisualW)
	for depth := startDepth; depth < startDepth+maxSlots; depth++ {
		label := fmt.Sprintf("%d", depth)
		if m.stepping && depth == m.circuit.Playhead()-1 {
			label = "▶" + label
		}
		header += dimStyle.Render(padCenter(label, cellW))
	}
	sb.WriteString(header + "\n")

	for qubit := 0; qubit < m.circuit.NumQubits(); qubit++ {
		topLine := strings.Repeat(" ", labelVisualW)
		label := fmt.Sprintf("q[%d]", qubit)
		midLine := qubitLabelStyle.Render(fmt.Sprintf("%-5s", label)) + "──"
		botLine := strings.Repeat(" ", labelVisualW)

		for depth := startDepth; depth < startDepth+maxSlots; depth++ {
			info := m.cellAt(depth, qubit)

			hl := hlNone
			if depth == m.cursorDepth && qubit == m.cursorQubit &&
				(m.focus == focusCircuit || m.focus == focusSelectQubit || m.focus == focusMenu) {
				hl = hlCursor
			} else if depth == m.cursorDepth && qubit == m.selQubit && m.focus == focusSelectQubit {
				hl = hlPickSelect
			}

			top, mid, bot := renderCell(info, hl)
			topLine += top
			midLine += mid
			botLine += bot
		}

		sb.WriteString(topLine + "\n")
		sb.WriteString(midLine + "\n")
		sb.WriteString(botLine + "\n")
	}

	// Status line
	if m.focus == focusSelectQubit {
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "  %s", activeGateStyle.Render(string(m.pendingKind)))
		fmt.Fprintf(&sb, "  Select %s: ", pickPrompt(m.pendingKind, len(m.pendingPicks)))
		fmt.Fprintf(&sb, "%s", pickSelectStyle.Render(fmt.Sprintf("q[%d]", m.selQubit)))
		sb.WriteString(dimStyle.Render("   ↑↓ Move  Enter Confirm  Esc Cancel"))
	} else {
		fmt.Fprintf(&sb, "\n  Slot %d, Qubit %d", m.cursorDepth, m.cursorQubit)
		if m.statusMsg != "" {
			fmt.Fprintf(&sb, "  │  %s", activeGateStyle.Render(m.statusMsg))
		}
	}

	return circuitStyle.Width(width).Height(height).Render(sb.String())
}

// renderStatePanel renders per-qubit marginals, Bloch coordinates, and, when
// shots have been run, the outcome histogram.
func (m Model) renderStatePanel(width, height int) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("State"))
	sb.WriteString("\n\n")

	blochs := m.engine.BlochAll()
	for q := 0; q < m.engine.NumQubits(); q++ {
		p0, p1 := m.engine.QubitProbability(q)
		v := blochs[q]
		fmt.Fprintf(&sb, "%s  P0 %s  P1 %s   x %+.3f y %+.3f z %+.3f\n",
			qubitLabelStyle.Render(fmt.Sprintf("q[%d]", q)),
			probStyle.Render(fmt.Sprintf("%.3f", p0)),
			probStyle.Render(fmt.Sprintf("%.3f", p1)),
			v.X, v.Y, v.Z)
	}

	if m.histogram != nil {
		sb.WriteString("\n")
		sb.WriteString(titleStyle.Render(fmt.Sprintf("Histogram (%d shots)", m.shots)))
		sb.WriteString("\n")
		sb.WriteString(renderHistogram(m.histogram, m.shots, width-8))
	} else if amps := m.engine.Amplitudes(); len(amps) <= 8 {
		sb.WriteString("\n")
		for i, a := range amps {
			fmt.Fprintf(&sb, "|%s⟩ %+.3f%+.3fi\n", sim.Bitstring(i, m.engine.NumQubits()), real(a), imag(a))
		}
	}

	return stateStyle.Width(width).Height(height).Render(sb.String())
}

// renderHistogram draws horizontal count bars for up to eight outcomes,
// largest first.
func renderHistogram(counts map[string]int, shots, width int) string {
	type row struct {
		bits  string
		count int
	}
	rows := make([]row, 0, len(counts))
	for bits, count := range counts {
		rows = append(rows, row{bits, count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].bits < rows[j].bits
	})
	if len(rows) > 8 {
		rows = rows[:8]
	}

	barW := max(width-16, 10)
	var sb strings.Builder
	for _, r := range rows {
		filled := r.count * barW / shots
		fmt.Fprintf(&sb, "%s %s %d\n",
			qubitLabelStyle.Render(r.bits),
			histBarStyle.Render(strings.Repeat("█", filled)),
			r.count)
	}
	return sb.String()
}

// renderQASMPanel renders the QASM editor panel.
func (m Model) renderQASMPanel(width, height int) string {
	var sb strings.Builder

	title := "QASM Editor"
	if m.focus == focusQASM {
		title += " [ACTIVE]"
	}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n\n")
	sb.WriteString(m.qasmEditor.View())

	return qasmStyle.Width(width).Height(height).Render(sb.String())
}

// renderControlsPanel renders the bottom help/controls bar.
func (m Model) renderControlsPanel(width, height int) string {
	var sb strings.Builder

	sb.WriteString(activeGateStyle.Render("Navigate: "))
	sb.WriteString("↑↓/jk Qubit  ←→/hl Slot  +/- Qubits    ")
	sb.WriteString(activeGateStyle.Render("a"))
	sb.WriteString(" Add gate  ")
	sb.WriteString(activeGateStyle.Render("u/y"))
	sb.WriteString(" Undo/Redo\n")

	sb.WriteString(activeGateStyle.Render("Simulate: "))
	sb.WriteString("r Run shots  Space Step  m Measure qubit    ")
	sb.WriteString(activeGateStyle.Render("Actions:"))
	sb.WriteString(" Tab Focus  Bksp Delete  ^R Clear  ^S Save  q Quit")

	return controlsStyle.Width(width).Height(height).Render(sb.String())
}

// renderParamInput renders the parameter input overlay.
func (m Model) renderParamInput() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Enter Parameter"))
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "%s: %s_", string(m.pendingKind), m.paramInput)
	sb.WriteString("\n\n")
	sb.WriteString(dimStyle.Render("Examples: pi/2, 3*pi/4, 1.57"))
	return menuBorderStyle.Render(sb.String())
}

// ──────────────────────────── Overlay helpers ────────────────────────────

// overlayAt composites the overlay string on top of the background at
// position (x, y).
func overlayAt(bg, overlay string, x, y int) string {
	bgLines := strings.Split(bg, "\n")
	ovLines := strings.Split(overlay, "\n")

	for i, ovLine := range ovLines {
		bgIdx := y + i
		if bgIdx < 0 || bgIdx >= len(bgLines) {
			continue
		}
		bgLines[bgIdx] = spliceLineAt(bgLines[bgIdx], ovLine, x)
	}
	return strings.Join(bgLines, "\n")
}

// spliceLineAt replaces visible columns starting at position x in bgLine with
// overlay content, tracking ANSI escape sequences in the background line.
func spliceLineAt(bgLine, overlay string, x int) string {
	runes := []rune(bgLine)
	ovWidth := visibleLen(overlay)

	var prefix strings.Builder
	var suffix strings.Builder

	col := 0
	i := 0
	inEsc := false

	// Collect prefix: everything up to visible column x
	for i < len(runes) && col < x {
		if runes[i] == '\x1b' {
			inEsc = true
			for i < len(runes) {
				prefix.WriteRune(runes[i])
				if inEsc && runes[i] != '\x1b' && runes[i] != '[' && ((runes[i] >= 'A' && runes[i] <= 'Z') || (runes[i] >= 'a' && runes[i] <= 'z')) {
					inEsc = false
					i++
					break
				}
				i++
			}
		} else {
			prefix.WriteRune(runes[i])
			col++
			i++
		}
	}

	// Pad prefix if bg line is shorter than x
	for col < x {
		prefix.WriteRune(' ')
		col++
	}

	// Skip over ovWidth visible columns in the background
	skipped := 0
	for i < len(runes) && skipped < ovWidth {
		if runes[i] == '\x1b' {
			for i < len(runes) {
				i++
				if i > 0 && runes[i-1] != '\x1b' && runes[i-1] != '[' && ((runes[i-1] >= 'A' && runes[i-1] <= 'Z') || (runes[i-1] >= 'a' && runes[i-1] <= 'z')) {
					break
				}
			}
		} else {
			skipped++
			i++
		}
	}

	// Collect suffix: rest of the background line
	for i < len(runes) {
		suffix.WriteRune(runes[i])
		i++
	}

	return prefix.String() + overlay + suffix.String()
}

// visibleLen returns the number of visible (non-ANSI-escape) characters in a
// string.
func visibleLen(s string) int {
	n := 0
	inEsc := false
	for _, r := range s {
		if r == '\x1b' {
			inEsc = true
			continue
		}
		if inEsc {
			if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
				inEsc = false
			}
			continue
		}
		n++
	}
	return n
}
