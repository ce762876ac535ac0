package main

import (
	"fmt"
	"strings"

	"qsimdeck/sim"
)

// menuItem represents a single gate choice in the menu.
type menuItem struct {
	name      string
	kind      sim.Kind
	symbol    string
	paramHint string
}

// menuCategory groups related menu items under a tab.
type menuCategory struct {
	name  string
	items []menuItem
}

// gateMenu defines the gate picker categories and items.
var gateMenu = []menuCategory{
	{
		name: "Single Qubit",
		items: []menuItem{
			{name: "Hadamard", kind: sim.KindH, symbol: "H"},
			{name: "Pauli-X (NOT)", kind: sim.KindX, symbol: "X"},
			{name: "Pauli-Y", kind: sim.KindY, symbol: "Y"},
			{name: "Pauli-Z", kind: sim.KindZ, symbol: "Z"},
			{name: "Identity", kind: sim.KindI, symbol: "I"},
			{name: "Phase (S)", kind: sim.KindS, symbol: "S"},
			{name: "Phase Dagger (S†)", kind: sim.KindSDG, symbol: "S†"},
			{name: "T Gate", kind: sim.KindT, symbol: "T"},
			{name: "T Dagger (T†)", kind: sim.KindTDG, symbol: "T†"},
		},
	},
	{
		name: "Rotation",
		items: []menuItem{
			{name: "Rotate X", kind: sim.KindRX, symbol: "RX", paramHint: "pi/2"},
			{name: "Rotate Y", kind: sim.KindRY, symbol: "RY", paramHint: "pi/2"},
			{name: "Rotate Z", kind: sim.KindRZ, symbol: "RZ", paramHint: "pi/2"},
			{name: "Phase Shift", kind: sim.KindP, symbol: "P", paramHint: "pi/4"},
			{name: "Universal U3", kind: sim.KindU, symbol: "U", paramHint: "theta,phi,lambda"},
		},
	},
	{
		name: "Multi Qubit",
		items: []menuItem{
			{name: "CNOT", kind: sim.KindCX, symbol: "●─⊕"},
			{name: "Controlled-Z", kind: sim.KindCZ, symbol: "●─●"},
			{name: "SWAP", kind: sim.KindSWAP, symbol: "×─×"},
			{name: "C-Rotate X", kind: sim.KindCRX, symbol: "●─RX", paramHint: "pi/2"},
			{name: "C-Rotate Y", kind: sim.KindCRY, symbol: "●─RY", paramHint: "pi/2"},
			{name: "C-Rotate Z", kind: sim.KindCRZ, symbol: "●─RZ", paramHint: "pi/2"},
			{name: "Toffoli (CCX)", kind: sim.KindCCX, symbol: "●─●─⊕"},
			{name: "Fredkin (CSWAP)", kind: sim.KindCSWAP, symbol: "●─×─×"},
		},
	},
}

// renderMenu renders the floating gate-picker popup.
func (m Model) renderMenu() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Add Gate"))
	sb.WriteString("\n")

	// Category tabs
	for i, cat := range gateMenu {
		name := " " + cat.name + " "
		if i == m.menuCat {
			sb.WriteString(activeGateStyle.Render(name))
		} else {
			sb.WriteString(dimStyle.Render(name))
		}
		if i < len(gateMenu)-1 {
			sb.WriteString(dimStyle.Render("│"))
		}
	}
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render(strings.Repeat("─", 42)))
	sb.WriteString("\n")

	// Items in the selected category
	cat := gateMenu[m.menuCat]
	for i, item := range cat.items {
		if i == m.menuItem {
			sb.WriteString(menuSelectedStyle.Render(" ▸ "))
			sb.WriteString(menuSelectedStyle.Render(fmt.Sprintf("%-18s", item.name)))
			sb.WriteString(gateStyle.Render(item.symbol))
		} else {
			sb.WriteString("   ")
			sb.WriteString(menuNormalStyle.Render(fmt.Sprintf("%-18s", item.name)))
			sb.WriteString(dimStyle.Render(item.symbol))
		}
		if picksNeeded(item.kind) > 0 {
			sb.WriteString(dimStyle.Render(fmt.Sprintf(" +%d qubit", picksNeeded(item.kind))))
		}
		if item.paramHint != "" {
			sb.WriteString(dimStyle.Render(fmt.Sprintf(" (%s)", item.paramHint)))
		}
		sb.WriteString("\n")
	}
	sb.WriteString(dimStyle.Render(" ↑↓ Select  ←→ Cat  ⏎ Ok  Esc ✕"))

	return menuBorderStyle.Render(sb.String())
}
