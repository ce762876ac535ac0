package sim

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToQASMHeader(t *testing.T) {
	c := newTestCircuit(t, 3)
	qasm := c.ToQASM()
	require.True(t, strings.HasPrefix(qasm, "OPENQASM 2.0;\n"))
	require.Contains(t, qasm, `include "qelib1.inc";`)
	require.Contains(t, qasm, "qreg q[3];")
}

func TestToQASMGateLines(t *testing.T) {
	c := newTestCircuit(t, 3)
	for _, g := range []Gate{
		NewGate(KindI, 0),
		NewGate(KindH, 0),
		NewGate(KindRZ, 1, math.Pi/2),
		NewGate(KindU, 2, math.Pi, 0.25, math.Pi/4),
		NewControlled(KindCX, 1, []int{0}),
		NewControlled(KindCRY, 2, []int{1}, 3*math.Pi/4),
		NewSwap(0, 1),
		NewControlled(KindCCX, 2, []int{0, 1}),
		NewSwap(1, 2, 0),
	} {
		_, err := c.AddGate(g)
		require.NoError(t, err)
	}

	qasm := c.ToQASM()
	for _, line := range []string{
		"id q[0];",
		"h q[0];",
		"rz(pi/2) q[1];",
		"u3(pi, 0.25, pi/4) q[2];",
		"cx q[0], q[1];",
		"cry(3*pi/4) q[1], q[2];",
		"swap q[0], q[1];",
		"ccx q[0], q[1], q[2];",
		"cswap q[0], q[1], q[2];",
	} {
		require.Contains(t, qasm, line+"\n")
	}
}

func TestParseQASMBell(t *testing.T) {
	qasm := `OPENQASM 2.0;
include "qelib1.inc";

qreg q[2];
creg c[2];

h q[0];
cx q[0], q[1];
`
	c, err := ParseQASM(qasm)
	require.NoError(t, err)
	require.Equal(t, 2, c.NumQubits())
	require.Len(t, c.Entries(), 2)

	e, err := NewEngine(NewLibrary(), 2)
	require.NoError(t, err)
	require.NoError(t, c.Replay(e))
	inv := complex(1/math.Sqrt2, 0)
	requireAmps(t, e, []complex128{inv, 0, 0, inv})
}

func TestParseQASMAliases(t *testing.T) {
	qasm := `qreg q[3];
cnot q[0], q[1];
toffoli q[0], q[1], q[2];
fredkin q[0], q[1], q[2];
u1(pi/8) q[0];
i q[1];
`
	c, err := ParseQASM(qasm)
	require.NoError(t, err)
	kinds := make([]Kind, 0, len(c.Entries()))
	for _, en := range c.Entries() {
		kinds = append(kinds, en.Gate.Kind)
	}
	require.Equal(t, []Kind{KindCX, KindCCX, KindCSWAP, KindP, KindI}, kinds)
}

func TestParseQASMSkipsUnsupported(t *testing.T) {
	qasm := `OPENQASM 2.0;
qreg q[2];
// a comment
barrier q;
measure q[0] -> c[0];
h q[0];
`
	c, err := ParseQASM(qasm)
	require.NoError(t, err)
	require.Len(t, c.Entries(), 1)
	require.Equal(t, KindH, c.Entries()[0].Gate.Kind)
}

func TestParseQASMInfersQubitCount(t *testing.T) {
	// No qreg line: the register grows to fit the highest index used.
	c, err := ParseQASM("h q[0];\ncx q[0], q[3];\n")
	require.NoError(t, err)
	require.Equal(t, 4, c.NumQubits())
}

func TestParseQASMPacksIndependentGates(t *testing.T) {
	qasm := `qreg q[3];
h q[0];
h q[1];
h q[2];
cx q[0], q[1];
`
	c, err := ParseQASM(qasm)
	require.NoError(t, err)
	for q := 0; q < 3; q++ {
		en := c.EntryAt(0, q)
		require.NotNil(t, en, "qubit %d slot 0", q)
		require.Equal(t, KindH, en.Gate.Kind)
	}
	require.Equal(t, KindCX, c.EntryAt(1, 0).Gate.Kind)
}

func TestParseQASMSingleUndoStep(t *testing.T) {
	c, err := ParseQASM("qreg q[1];\nh q[0];\nx q[0];\n")
	require.NoError(t, err)
	require.NoError(t, c.Undo())
	require.Empty(t, c.Entries())
	var opErr *InvalidOperationError
	require.ErrorAs(t, c.Undo(), &opErr)
}

func TestParseQASMRejectsOutOfRangeQreg(t *testing.T) {
	_, err := ParseQASM("qreg q[0];\n")
	var qcErr *InvalidQubitCountError
	require.ErrorAs(t, err, &qcErr)
}

func TestQASMRoundTrip(t *testing.T) {
	c := newTestCircuit(t, 3)
	for _, g := range []Gate{
		NewGate(KindH, 0),
		NewGate(KindT, 1),
		NewGate(KindRX, 2, math.Pi/3),
		NewGate(KindU, 0, math.Pi/2, 0, math.Pi),
		NewControlled(KindCX, 1, []int{0}),
		NewControlled(KindCRZ, 2, []int{0}, -math.Pi/4),
		NewSwap(1, 2),
		NewControlled(KindCCX, 0, []int{1, 2}),
	} {
		_, err := c.AddGate(g)
		require.NoError(t, err)
	}

	parsed, err := ParseQASM(c.ToQASM())
	require.NoError(t, err)
	require.Equal(t, c.NumQubits(), parsed.NumQubits())

	// Same state out of both circuits.
	lib := NewLibrary()
	want, err := NewEngine(lib, 3)
	require.NoError(t, err)
	require.NoError(t, c.Replay(want))
	got, err := NewEngine(lib, 3)
	require.NoError(t, err)
	require.NoError(t, parsed.Replay(got))
	requireAmps(t, got, want.Clone())
}
