package sim

import "math/cmplx"

// BlochVector is a point in the unit ball representing one qubit's marginal
// state. Entangled qubits land strictly inside the sphere.
type BlochVector struct {
	X, Y, Z float64
}

// Bloch projects qubit q onto Bloch coordinates via its 2x2 reduced density
// matrix — a genuine partial trace over the other qubits, so entanglement
// shows up as a shortened vector rather than a wrong direction.
func (e *Engine) Bloch(q int) (BlochVector, error) {
	if q < 0 || q >= e.numQubits {
		return BlochVector{}, &GateDimensionError{Kind: "BLOCH", Qubit: q, Reason: "index out of range"}
	}

	// ρ00 = Σ|a_i|² over bit q clear, ρ11 over bit q set,
	// ρ01 = Σ a_i · conj(a_{i|bit}) over bit q clear.
	bit := 1 << q
	var rho00, rho11 float64
	var rho01 complex128
	for i, a := range e.amps {
		if i&bit != 0 {
			rho11 += real(a * cmplx.Conj(a))
			continue
		}
		rho00 += real(a * cmplx.Conj(a))
		rho01 += a * cmplx.Conj(e.amps[i|bit])
	}

	return BlochVector{
		X: 2 * real(rho01),
		Y: -2 * imag(rho01),
		Z: rho00 - rho11,
	}, nil
}

// BlochAll returns the Bloch vector of every qubit.
func (e *Engine) BlochAll() []BlochVector {
	vs := make([]BlochVector, e.numQubits)
	for q := range vs {
		v, _ := e.Bloch(q)
		vs[q] = v
	}
	return vs
}
