package sim

import (
	"math"
	"math/cmplx"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, n int) *Engine {
	t.Helper()
	e, err := NewEngine(NewLibrary(), n)
	require.NoError(t, err)
	return e
}

func requireAmps(t *testing.T, e *Engine, want []complex128) {
	t.Helper()
	amps := e.Amplitudes()
	require.Len(t, amps, len(want))
	for i := range want {
		require.InDeltaf(t, real(want[i]), real(amps[i]), eps, "amplitude %d real", i)
		require.InDeltaf(t, imag(want[i]), imag(amps[i]), eps, "amplitude %d imag", i)
	}
}

func TestInitialize(t *testing.T) {
	e := newTestEngine(t, 3)
	amps := e.Amplitudes()
	require.Len(t, amps, 8)
	require.Equal(t, complex128(1), amps[0])
	for i := 1; i < 8; i++ {
		require.Equal(t, complex128(0), amps[i])
	}
}

func TestInitializeRejectsBadCounts(t *testing.T) {
	lib := NewLibrary()
	for _, n := range []int{0, -1, MaxQubits + 1} {
		_, err := NewEngine(lib, n)
		var qcErr *InvalidQubitCountError
		require.ErrorAs(t, err, &qcErr, "count %d", n)
		require.Equal(t, n, qcErr.Count)
	}

	// A failed resize leaves the prior state alone.
	e := newTestEngine(t, 2)
	require.NoError(t, e.Apply(NewGate(KindX, 0)))
	before := e.Clone()
	require.Error(t, e.Initialize(0))
	requireAmps(t, e, before)
	require.Equal(t, 2, e.NumQubits())
}

func TestApplyRejectsBadGates(t *testing.T) {
	e := newTestEngine(t, 2)
	before := e.Clone()

	for _, g := range []Gate{
		NewGate(KindH, 2),
		NewGate(KindH, -1),
		NewControlled(KindCX, 1, []int{1}),
		NewControlled(KindCX, 0, []int{4}),
	} {
		err := e.Apply(g)
		var dimErr *GateDimensionError
		require.ErrorAs(t, err, &dimErr)
	}
	requireAmps(t, e, before)
}

func TestBellState(t *testing.T) {
	e := newTestEngine(t, 2)
	require.NoError(t, e.Apply(NewGate(KindH, 0)))
	require.NoError(t, e.Apply(NewControlled(KindCX, 1, []int{0})))

	inv := complex(1/math.Sqrt2, 0)
	requireAmps(t, e, []complex128{inv, 0, 0, inv})
}

func TestControlledGateLeavesControlZeroAlone(t *testing.T) {
	// With the control in |0⟩ a CX is a no-op.
	e := newTestEngine(t, 2)
	require.NoError(t, e.Apply(NewControlled(KindCX, 1, []int{0})))
	requireAmps(t, e, []complex128{1, 0, 0, 0})
}

func TestToffoliTruthTable(t *testing.T) {
	e := newTestEngine(t, 3)

	// |110⟩ with only one control set: target untouched.
	require.NoError(t, e.Apply(NewGate(KindX, 0)))
	require.NoError(t, e.Apply(NewControlled(KindCCX, 2, []int{0, 1})))
	requireAmps(t, e, []complex128{0, 1, 0, 0, 0, 0, 0, 0})

	// Both controls set: target flips.
	require.NoError(t, e.Apply(NewGate(KindX, 1)))
	require.NoError(t, e.Apply(NewControlled(KindCCX, 2, []int{0, 1})))
	requireAmps(t, e, []complex128{0, 0, 0, 0, 0, 0, 0, 1})
}

func TestFredkinExchange(t *testing.T) {
	// Control (qubit 0) clear: no exchange.
	e := newTestEngine(t, 3)
	require.NoError(t, e.Apply(NewGate(KindX, 1)))
	require.NoError(t, e.Apply(NewGate(KindX, 2)))
	require.NoError(t, e.Apply(NewSwap(1, 2, 0)))
	requireAmps(t, e, []complex128{0, 0, 0, 0, 0, 0, 1, 0})

	// Control set: qubits 1 and 2 exchange.
	e = newTestEngine(t, 3)
	require.NoError(t, e.Apply(NewGate(KindX, 0)))
	require.NoError(t, e.Apply(NewGate(KindX, 1)))
	require.NoError(t, e.Apply(NewSwap(1, 2, 0)))
	requireAmps(t, e, []complex128{0, 0, 0, 0, 0, 1, 0, 0})
}

func TestSwapExchangesBits(t *testing.T) {
	e := newTestEngine(t, 2)
	require.NoError(t, e.Apply(NewGate(KindX, 0)))
	require.NoError(t, e.Apply(NewSwap(0, 1)))
	requireAmps(t, e, []complex128{0, 0, 1, 0})
}

// randomGate draws a valid gate over n qubits.
func randomGate(rng *rand.Rand, n int) Gate {
	kinds := []Kind{
		KindX, KindY, KindZ, KindH, KindS, KindSDG, KindT, KindTDG,
		KindRX, KindRY, KindRZ, KindP, KindU,
	}
	if n >= 2 {
		kinds = append(kinds, KindCX, KindCZ, KindSWAP, KindCRX, KindCRY, KindCRZ)
	}
	if n >= 3 {
		kinds = append(kinds, KindCCX, KindCSWAP)
	}
	kind := kinds[rng.Intn(len(kinds))]

	perm := rng.Perm(n)
	var params []float64
	if IsParameterized(kind) || kind == KindU {
		params = []float64{rng.Float64() * 2 * math.Pi}
		if kind == KindU {
			params = append(params, rng.Float64()*2*math.Pi, rng.Float64()*2*math.Pi)
		}
	}
	switch operandCount(kind) {
	case 2:
		if kind == KindSWAP {
			return NewSwap(perm[0], perm[1])
		}
		return NewControlled(kind, perm[0], []int{perm[1]}, params...)
	case 3:
		if kind == KindCSWAP {
			return NewSwap(perm[0], perm[1], perm[2])
		}
		return NewControlled(kind, perm[0], []int{perm[1], perm[2]}, params...)
	default:
		return NewGate(kind, perm[0], params...)
	}
}

func TestNormPreservedByRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	e := newTestEngine(t, 4)
	for i := 0; i < 500; i++ {
		require.NoError(t, e.Apply(randomGate(rng, 4)))
		require.InDelta(t, 1.0, e.Norm(), eps, "after %d gates", i+1)
	}
}

func TestInverseRoundTripOnState(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	e := newTestEngine(t, 3)

	// Scramble into a generic state first.
	for i := 0; i < 20; i++ {
		require.NoError(t, e.Apply(randomGate(rng, 3)))
	}
	before := e.Clone()

	for _, g := range []Gate{
		NewGate(KindX, 1),
		NewGate(KindH, 0),
		NewGate(KindS, 2),
		NewGate(KindT, 0),
		NewGate(KindRZ, 1, 0.83),
		NewGate(KindRX, 2, -1.9),
		NewGate(KindU, 0, 0.4, 1.1, 2.2),
		NewControlled(KindCX, 2, []int{0}),
		NewControlled(KindCRY, 1, []int{2}, 2.71),
		NewSwap(0, 2),
		NewControlled(KindCCX, 1, []int{0, 2}),
	} {
		require.NoError(t, e.Apply(g))
		require.NoError(t, e.Apply(Inverse(g)))
		requireAmps(t, e, before)
	}
}

func TestRenormalizeRepairsDrift(t *testing.T) {
	e := newTestEngine(t, 2)
	// Inject drift directly; the next interval check must repair it.
	for i := range e.amps {
		e.amps[i] *= complex(1+1e-6, 0)
	}
	e.renormalize()
	require.InDelta(t, 1.0, e.Norm(), eps)
}

func TestQubitProbability(t *testing.T) {
	e := newTestEngine(t, 2)
	require.NoError(t, e.Apply(NewGate(KindRY, 0, math.Pi/3)))
	p0, p1 := e.QubitProbability(0)
	require.InDelta(t, math.Pow(math.Cos(math.Pi/6), 2), p0, eps)
	require.InDelta(t, math.Pow(math.Sin(math.Pi/6), 2), p1, eps)
	require.InDelta(t, 1.0, p0+p1, eps)

	probs := e.Probabilities()
	sum := 0.0
	for _, p := range probs {
		sum += p
	}
	require.InDelta(t, 1.0, sum, eps)
}

func TestCloneIsIndependent(t *testing.T) {
	e := newTestEngine(t, 2)
	require.NoError(t, e.Apply(NewGate(KindH, 0)))
	clone := e.Clone()

	// Mutating the engine must not touch the clone.
	require.NoError(t, e.Apply(NewGate(KindX, 1)))
	require.InDelta(t, 1/math.Sqrt2, cmplx.Abs(clone[0]), eps)
	require.InDelta(t, 1/math.Sqrt2, cmplx.Abs(clone[1]), eps)
	require.InDelta(t, 0, cmplx.Abs(clone[2]), eps)
	require.InDelta(t, 0, cmplx.Abs(e.Amplitudes()[0]), eps)
}
