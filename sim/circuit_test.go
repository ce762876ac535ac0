package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestCircuit(t *testing.T, n int) *Circuit {
	t.Helper()
	c, err := NewCircuit(n)
	require.NoError(t, err)
	return c
}

func TestAddGateDepthAssignment(t *testing.T) {
	c := newTestCircuit(t, 3)

	// Independent single-qubit gates share slot 0.
	h0, err := c.AddGate(NewGate(KindH, 0))
	require.NoError(t, err)
	h1, err := c.AddGate(NewGate(KindH, 1))
	require.NoError(t, err)
	require.Equal(t, h0, c.EntryAt(0, 0).ID)
	require.Equal(t, h1, c.EntryAt(0, 1).ID)

	// A CX on qubits 0 and 1 must come after both H gates.
	cx, err := c.AddGate(NewControlled(KindCX, 1, []int{0}))
	require.NoError(t, err)
	require.Equal(t, cx, c.EntryAt(1, 0).ID)
	require.Equal(t, cx, c.EntryAt(1, 1).ID)

	// Qubit 2 is still free at slot 0.
	x2, err := c.AddGate(NewGate(KindX, 2))
	require.NoError(t, err)
	require.Equal(t, x2, c.EntryAt(0, 2).ID)

	require.Equal(t, 2, c.MaxDepth())
}

func TestRemoveGateDoesNotCompact(t *testing.T) {
	c := newTestCircuit(t, 1)
	first, err := c.AddGate(NewGate(KindH, 0))
	require.NoError(t, err)
	second, err := c.AddGate(NewGate(KindX, 0))
	require.NoError(t, err)

	require.NoError(t, c.RemoveGate(first))
	require.Nil(t, c.EntryAt(0, 0))
	require.Equal(t, second, c.EntryAt(1, 0).ID)
	require.Equal(t, 2, c.MaxDepth())

	require.Error(t, c.RemoveGate(first))
}

func TestRemoveGateAt(t *testing.T) {
	c := newTestCircuit(t, 2)
	_, err := c.AddGate(NewControlled(KindCZ, 1, []int{0}))
	require.NoError(t, err)

	// Removable through either operand qubit.
	require.NoError(t, c.RemoveGateAt(0, 1))
	require.Empty(t, c.Entries())

	var opErr *InvalidOperationError
	require.ErrorAs(t, c.RemoveGateAt(0, 0), &opErr)
}

func TestQubitAddRemoveIdempotent(t *testing.T) {
	lib := NewLibrary()
	c := newTestCircuit(t, 2)
	_, err := c.AddGate(NewGate(KindH, 0))
	require.NoError(t, err)
	_, err = c.AddGate(NewControlled(KindCX, 1, []int{0}))
	require.NoError(t, err)

	e, err := NewEngine(lib, 2)
	require.NoError(t, err)
	require.NoError(t, c.Replay(e))
	before := e.Clone()

	require.NoError(t, c.AddQubit())
	require.NoError(t, c.Replay(e))
	require.Len(t, e.Amplitudes(), 8)

	require.NoError(t, c.RemoveQubit())
	require.NoError(t, c.Replay(e))
	requireAmps(t, e, before)
}

func TestRemoveQubitDropsReferencingGates(t *testing.T) {
	c := newTestCircuit(t, 3)
	_, err := c.AddGate(NewGate(KindH, 0))
	require.NoError(t, err)
	_, err = c.AddGate(NewControlled(KindCX, 2, []int{0}))
	require.NoError(t, err)
	_, err = c.AddGate(NewGate(KindX, 2))
	require.NoError(t, err)

	require.NoError(t, c.RemoveQubit())
	require.Equal(t, 2, c.NumQubits())
	require.Len(t, c.Entries(), 1)
	require.Equal(t, KindH, c.Entries()[0].Gate.Kind)
}

func TestRemoveQubitBelowOneRejected(t *testing.T) {
	c := newTestCircuit(t, 1)
	var opErr *InvalidOperationError
	require.ErrorAs(t, c.RemoveQubit(), &opErr)
	require.Equal(t, 1, c.NumQubits())
}

func TestUndoRedo(t *testing.T) {
	c := newTestCircuit(t, 2)
	_, err := c.AddGate(NewGate(KindH, 0))
	require.NoError(t, err)
	_, err = c.AddGate(NewGate(KindX, 1))
	require.NoError(t, err)

	require.NoError(t, c.Undo())
	require.Len(t, c.Entries(), 1)
	require.NoError(t, c.Undo())
	require.Empty(t, c.Entries())

	var opErr *InvalidOperationError
	require.ErrorAs(t, c.Undo(), &opErr)

	require.NoError(t, c.Redo())
	require.NoError(t, c.Redo())
	require.Len(t, c.Entries(), 2)
	require.ErrorAs(t, c.Redo(), &opErr)
}

func TestUndoCoversQubitEdits(t *testing.T) {
	c := newTestCircuit(t, 2)
	require.NoError(t, c.AddQubit())
	require.Equal(t, 3, c.NumQubits())
	require.NoError(t, c.Undo())
	require.Equal(t, 2, c.NumQubits())
}

func TestMutationDiscardsRedoBranch(t *testing.T) {
	c := newTestCircuit(t, 1)
	_, err := c.AddGate(NewGate(KindH, 0))
	require.NoError(t, err)
	require.NoError(t, c.Undo())

	_, err = c.AddGate(NewGate(KindX, 0))
	require.NoError(t, err)

	var opErr *InvalidOperationError
	require.ErrorAs(t, c.Redo(), &opErr)
	require.Equal(t, KindX, c.Entries()[0].Gate.Kind)
}

func TestHistoryBounded(t *testing.T) {
	c := newTestCircuit(t, 1)
	for i := 0; i < historyCap+20; i++ {
		_, err := c.AddGate(NewGate(KindX, 0))
		require.NoError(t, err)
	}

	// Only historyCap-1 undo steps remain; the oldest were evicted.
	undos := 0
	for c.Undo() == nil {
		undos++
	}
	require.Equal(t, historyCap-1, undos)
}

func TestStepPlayback(t *testing.T) {
	lib := NewLibrary()
	c := newTestCircuit(t, 2)
	_, err := c.AddGate(NewGate(KindH, 0))
	require.NoError(t, err)
	_, err = c.AddGate(NewControlled(KindCX, 1, []int{0}))
	require.NoError(t, err)

	e, err := NewEngine(lib, 2)
	require.NoError(t, err)

	more, err := c.Step(e)
	require.NoError(t, err)
	require.True(t, more)
	p0, p1 := e.QubitProbability(0)
	require.InDelta(t, 0.5, p0, eps)
	require.InDelta(t, 0.5, p1, eps)

	more, err = c.Step(e)
	require.NoError(t, err)
	require.False(t, more)
	inv := complex(1/math.Sqrt2, 0)
	requireAmps(t, e, []complex128{inv, 0, 0, inv})

	// Past the end: no-op.
	more, err = c.Step(e)
	require.NoError(t, err)
	require.False(t, more)

	// Rewind restarts from |00⟩.
	c.Rewind()
	more, err = c.Step(e)
	require.NoError(t, err)
	require.True(t, more)
	require.Equal(t, 1, c.Playhead())
}

func TestStepMatchesReplay(t *testing.T) {
	lib := NewLibrary()
	c := newTestCircuit(t, 3)
	for _, g := range []Gate{
		NewGate(KindH, 0),
		NewGate(KindT, 2),
		NewControlled(KindCX, 1, []int{0}),
		NewGate(KindRZ, 2, 0.7),
		NewSwap(0, 2),
	} {
		_, err := c.AddGate(g)
		require.NoError(t, err)
	}

	replayed, err := NewEngine(lib, 3)
	require.NoError(t, err)
	require.NoError(t, c.Replay(replayed))

	stepped, err := NewEngine(lib, 3)
	require.NoError(t, err)
	for {
		more, err := c.Step(stepped)
		require.NoError(t, err)
		if !more {
			break
		}
	}
	requireAmps(t, stepped, replayed.Clone())
}

func TestExportDepthOrder(t *testing.T) {
	c := newTestCircuit(t, 2)
	_, err := c.AddGate(NewGate(KindH, 0))
	require.NoError(t, err)
	_, err = c.AddGate(NewGate(KindX, 1))
	require.NoError(t, err)
	_, err = c.AddGate(NewControlled(KindCX, 1, []int{0}))
	require.NoError(t, err)
	_, err = c.AddGate(NewGate(KindRZ, 0, math.Pi/4))
	require.NoError(t, err)

	instrs := c.Export()
	require.Len(t, instrs, 4)
	require.Equal(t, KindH, instrs[0].Kind)
	require.Equal(t, KindX, instrs[1].Kind)
	require.Equal(t, KindCX, instrs[2].Kind)
	require.Equal(t, []int{1, 0}, instrs[2].Qubits)
	require.Equal(t, KindRZ, instrs[3].Kind)
	require.Equal(t, []float64{math.Pi / 4}, instrs[3].Params)
}

func TestClear(t *testing.T) {
	c := newTestCircuit(t, 2)
	_, err := c.AddGate(NewGate(KindH, 0))
	require.NoError(t, err)
	c.Clear()
	require.Empty(t, c.Entries())
	require.Equal(t, 2, c.NumQubits())

	// Clear is itself undoable.
	require.NoError(t, c.Undo())
	require.Len(t, c.Entries(), 1)
}
