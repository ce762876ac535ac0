package sim

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Pre-compiled regexps for QASM parsing.
var (
	singleGateRegex      = regexp.MustCompile(`^(\w+)\s+q\[(\d+)\];?$`)
	singleGateParamRegex = regexp.MustCompile(`^(\w+)\s*\(\s*(` + paramPattern + `(?:\s*,\s*` + paramPattern + `)*)\s*\)\s+q\[(\d+)\];?$`)
	twoQubitRegex        = regexp.MustCompile(`^(\w+)\s+q\[(\d+)\],\s*q\[(\d+)\];?$`)
	twoQubitParamRegex   = regexp.MustCompile(`^(\w+)\s*\(\s*(` + paramPattern + `)\s*\)\s+q\[(\d+)\],\s*q\[(\d+)\];?$`)
	threeQubitRegex      = regexp.MustCompile(`^(\w+)\s+q\[(\d+)\],\s*q\[(\d+)\],\s*q\[(\d+)\];?$`)
	qregRegex            = regexp.MustCompile(`qreg\s+(\w+)\[(\d+)\]`)
)

// ToQASM serializes the circuit as OpenQASM 2.0, one instruction per line in
// depth order.
func (c *Circuit) ToQASM() string {
	var sb strings.Builder
	sb.WriteString("OPENQASM 2.0;\n")
	sb.WriteString("include \"qelib1.inc\";\n\n")
	fmt.Fprintf(&sb, "qreg q[%d];\n\n", c.numQubits)

	for _, en := range c.ordered() {
		writeGateQASM(&sb, en.Gate)
	}
	return sb.String()
}

// writeGateQASM writes one gate line.
func writeGateQASM(sb *strings.Builder, g Gate) {
	switch g.Kind {
	case KindI:
		fmt.Fprintf(sb, "id q[%d];\n", g.Target)
	case KindX, KindY, KindZ, KindH, KindS, KindSDG, KindT, KindTDG:
		fmt.Fprintf(sb, "%s q[%d];\n", strings.ToLower(string(g.Kind)), g.Target)
	case KindRX, KindRY, KindRZ:
		fmt.Fprintf(sb, "%s(%s) q[%d];\n", strings.ToLower(string(g.Kind)), FormatParam(g.Theta()), g.Target)
	case KindP:
		fmt.Fprintf(sb, "p(%s) q[%d];\n", FormatParam(g.Theta()), g.Target)
	case KindU:
		fmt.Fprintf(sb, "u3(%s, %s, %s) q[%d];\n",
			FormatParam(g.param(0)), FormatParam(g.param(1)), FormatParam(g.param(2)), g.Target)
	case KindCX, KindCZ:
		fmt.Fprintf(sb, "%s q[%d], q[%d];\n", strings.ToLower(string(g.Kind)), g.Controls[0], g.Target)
	case KindCRX, KindCRY, KindCRZ:
		fmt.Fprintf(sb, "%s(%s) q[%d], q[%d];\n",
			strings.ToLower(string(g.Kind)), FormatParam(g.Theta()), g.Controls[0], g.Target)
	case KindSWAP:
		fmt.Fprintf(sb, "swap q[%d], q[%d];\n", g.Target, g.Target2)
	case KindCCX:
		fmt.Fprintf(sb, "ccx q[%d], q[%d], q[%d];\n", g.Controls[0], g.Controls[1], g.Target)
	case KindCSWAP:
		fmt.Fprintf(sb, "cswap q[%d], q[%d], q[%d];\n", g.Controls[0], g.Target, g.Target2)
	}
}

// ParseQASM parses OpenQASM 2.0 text into a fresh circuit. Gates land on
// depth slots via the usual placement rule, so independent single-qubit
// gates written on consecutive lines pack into the same slot. Lines that do
// not match the supported gate set are skipped, as are comments, barriers,
// and classical-register plumbing.
func ParseQASM(qasm string) (*Circuit, error) {
	numQubits := 1
	var gates []Gate

	for _, line := range strings.Split(qasm, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "//") ||
			strings.HasPrefix(line, "OPENQASM") || strings.HasPrefix(line, "include") ||
			strings.HasPrefix(line, "creg") || strings.HasPrefix(line, "barrier") {
			continue
		}
		if strings.HasPrefix(line, "qreg") {
			if matches := qregRegex.FindStringSubmatch(line); len(matches) > 2 {
				n, _ := strconv.Atoi(matches[2])
				numQubits = n
			}
			continue
		}
		if g, ok := parseGateLine(line); ok {
			gates = append(gates, g)
			for _, q := range g.Qubits() {
				if q+1 > numQubits {
					numQubits = q + 1
				}
			}
		}
	}

	c, err := NewCircuit(numQubits)
	if err != nil {
		return nil, err
	}
	for _, g := range gates {
		if err := g.Validate(numQubits); err != nil {
			return nil, err
		}
		c.place(g)
	}
	c.pushHistory()
	return c, nil
}

// parseGateLine parses one QASM gate statement.
func parseGateLine(line string) (Gate, bool) {
	// Three-qubit gates: ccx, cswap.
	if matches := threeQubitRegex.FindStringSubmatch(line); matches != nil {
		q1, _ := strconv.Atoi(matches[2])
		q2, _ := strconv.Atoi(matches[3])
		q3, _ := strconv.Atoi(matches[4])
		switch strings.ToLower(matches[1]) {
		case "ccx", "toffoli":
			return NewControlled(KindCCX, q3, []int{q1, q2}), true
		case "cswap", "fredkin":
			return NewSwap(q2, q3, q1), true
		}
		return Gate{}, false
	}

	// Two-qubit parameterized gates: crx, cry, crz.
	if matches := twoQubitParamRegex.FindStringSubmatch(line); matches != nil {
		param, ok := ParseParamExpr(matches[2])
		if !ok {
			return Gate{}, false
		}
		q1, _ := strconv.Atoi(matches[3])
		q2, _ := strconv.Atoi(matches[4])
		switch strings.ToLower(matches[1]) {
		case "crx":
			return NewControlled(KindCRX, q2, []int{q1}, param), true
		case "cry":
			return NewControlled(KindCRY, q2, []int{q1}, param), true
		case "crz":
			return NewControlled(KindCRZ, q2, []int{q1}, param), true
		}
		return Gate{}, false
	}

	// Two-qubit gates: cx, cz, swap.
	if matches := twoQubitRegex.FindStringSubmatch(line); matches != nil {
		q1, _ := strconv.Atoi(matches[2])
		q2, _ := strconv.Atoi(matches[3])
		switch strings.ToLower(matches[1]) {
		case "cx", "cnot":
			return NewControlled(KindCX, q2, []int{q1}), true
		case "cz":
			return NewControlled(KindCZ, q2, []int{q1}), true
		case "swap":
			return NewSwap(q1, q2), true
		}
		return Gate{}, false
	}

	// Single-qubit parameterized gates: rx, ry, rz, p/u1, u3/u.
	if matches := singleGateParamRegex.FindStringSubmatch(line); matches != nil {
		target, _ := strconv.Atoi(matches[3])
		var params []float64
		for _, pStr := range strings.Split(matches[2], ",") {
			p, ok := ParseParamExpr(strings.TrimSpace(pStr))
			if !ok {
				return Gate{}, false
			}
			params = append(params, p)
		}
		switch strings.ToLower(matches[1]) {
		case "rx":
			return NewGate(KindRX, target, params...), true
		case "ry":
			return NewGate(KindRY, target, params...), true
		case "rz":
			return NewGate(KindRZ, target, params...), true
		case "p", "u1":
			return NewGate(KindP, target, params...), true
		case "u", "u3":
			if len(params) == 3 {
				return NewGate(KindU, target, params...), true
			}
		}
		return Gate{}, false
	}

	// Single-qubit fixed gates.
	if matches := singleGateRegex.FindStringSubmatch(line); matches != nil {
		target, _ := strconv.Atoi(matches[2])
		switch strings.ToLower(matches[1]) {
		case "id", "i":
			return NewGate(KindI, target), true
		case "x":
			return NewGate(KindX, target), true
		case "y":
			return NewGate(KindY, target), true
		case "z":
			return NewGate(KindZ, target), true
		case "h":
			return NewGate(KindH, target), true
		case "s":
			return NewGate(KindS, target), true
		case "sdg":
			return NewGate(KindSDG, target), true
		case "t":
			return NewGate(KindT, target), true
		case "tdg":
			return NewGate(KindTDG, target), true
		}
	}

	return Gate{}, false
}
