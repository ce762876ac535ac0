// Package sim implements a small state-vector quantum simulator: a gate
// library of canonical unitaries, an amplitude-vector engine, an editable
// circuit with undo history, Born-rule measurement sampling, and Bloch
// sphere projection of single-qubit marginals.
//
// Amplitude indexing is little-endian: bit i of a basis-state index is the
// value of qubit i.
package sim

import (
	"math"
	"math/cmplx"
)

// Kind identifies a gate type. Values match the upper-case QASM mnemonics.
type Kind string

const (
	KindI   Kind = "I"
	KindX   Kind = "X"
	KindY   Kind = "Y"
	KindZ   Kind = "Z"
	KindH   Kind = "H"
	KindS   Kind = "S"
	KindSDG Kind = "SDG"
	KindT   Kind = "T"
	KindTDG Kind = "TDG"
	KindRX  Kind = "RX"
	KindRY  Kind = "RY"
	KindRZ  Kind = "RZ"
	KindP   Kind = "P"
	KindU   Kind = "U"

	KindCX  Kind = "CX"
	KindCZ  Kind = "CZ"
	KindCRX Kind = "CRX"
	KindCRY Kind = "CRY"
	KindCRZ Kind = "CRZ"

	KindSWAP  Kind = "SWAP"
	KindCCX   Kind = "CCX"
	KindCSWAP Kind = "CSWAP"
)

// Gate is an immutable placement-free description of a single operation:
// a kind, its operand qubits, and any rotation angles.
//
// Target is always set. Target2 is the second exchange qubit for SWAP and
// CSWAP and -1 otherwise. Controls holds zero, one, or two control qubits
// depending on the kind.
type Gate struct {
	Kind     Kind
	Target   int
	Target2  int
	Controls []int
	Params   []float64
}

// NewGate builds a single-qubit gate.
func NewGate(kind Kind, target int, params ...float64) Gate {
	return Gate{Kind: kind, Target: target, Target2: -1, Params: params}
}

// NewControlled builds a controlled gate (CX, CZ, CRX, CRY, CRZ, CCX).
func NewControlled(kind Kind, target int, controls []int, params ...float64) Gate {
	return Gate{Kind: kind, Target: target, Target2: -1, Controls: controls, Params: params}
}

// NewSwap builds a SWAP, or a Fredkin when a control is given.
func NewSwap(a, b int, control ...int) Gate {
	g := Gate{Kind: KindSWAP, Target: a, Target2: b}
	if len(control) > 0 {
		g.Kind = KindCSWAP
		g.Controls = []int{control[0]}
	}
	return g
}

// Qubits returns every qubit the gate touches, target(s) first.
func (g Gate) Qubits() []int {
	qs := []int{g.Target}
	if g.Target2 >= 0 {
		qs = append(qs, g.Target2)
	}
	qs = append(qs, g.Controls...)
	return qs
}

// Theta returns the first rotation parameter, defaulting to 0.
func (g Gate) Theta() float64 {
	if len(g.Params) > 0 {
		return g.Params[0]
	}
	return 0
}

// param returns Params[i] or 0.
func (g Gate) param(i int) float64 {
	if i < len(g.Params) {
		return g.Params[i]
	}
	return 0
}

// Validate checks operand qubits against a register of n qubits.
func (g Gate) Validate(n int) error {
	seen := make(map[int]bool, 3)
	for _, q := range g.Qubits() {
		if q < 0 || q >= n {
			return &GateDimensionError{Kind: g.Kind, Qubit: q, Reason: "index out of range"}
		}
		if seen[q] {
			return &GateDimensionError{Kind: g.Kind, Qubit: q, Reason: "qubit used in more than one role"}
		}
		seen[q] = true
	}
	want := operandCount(g.Kind)
	if got := len(g.Qubits()); got != want {
		return &GateDimensionError{Kind: g.Kind, Qubit: g.Target, Reason: "wrong operand count"}
	}
	return nil
}

// operandCount returns how many distinct qubits a kind acts on.
func operandCount(k Kind) int {
	switch k {
	case KindCX, KindCZ, KindCRX, KindCRY, KindCRZ, KindSWAP:
		return 2
	case KindCCX, KindCSWAP:
		return 3
	default:
		return 1
	}
}

// baseKind maps a controlled kind to the single-qubit block it embeds.
func baseKind(k Kind) Kind {
	switch k {
	case KindCX, KindCCX:
		return KindX
	case KindCZ:
		return KindZ
	case KindCRX:
		return KindRX
	case KindCRY:
		return KindRY
	case KindCRZ:
		return KindRZ
	default:
		return k
	}
}

// IsParameterized reports whether the kind carries rotation angles.
func IsParameterized(k Kind) bool {
	switch k {
	case KindRX, KindRY, KindRZ, KindP, KindU, KindCRX, KindCRY, KindCRZ:
		return true
	}
	return false
}

// block is a dense 2x2 complex matrix, the unit of work for the engine's
// pair loops.
type block [2][2]complex128

// Matrix is a dense square complex matrix in row-major order. Within a
// matrix returned by Library.Matrix, bit 0 of the basis index is the gate's
// first operand in Gate.Qubits() order, bit 1 the second, and so on.
type Matrix struct {
	N    int
	Data []complex128
}

func newMatrix(n int) Matrix {
	return Matrix{N: n, Data: make([]complex128, n*n)}
}

// At returns the element at row r, column c.
func (m Matrix) At(r, c int) complex128 { return m.Data[r*m.N+c] }

func (m Matrix) set(r, c int, v complex128) { m.Data[r*m.N+c] = v }

// Dagger returns the conjugate transpose.
func (m Matrix) Dagger() Matrix {
	d := newMatrix(m.N)
	for r := 0; r < m.N; r++ {
		for c := 0; c < m.N; c++ {
			d.set(c, r, cmplx.Conj(m.At(r, c)))
		}
	}
	return d
}

// Mul returns the matrix product m·o.
func (m Matrix) Mul(o Matrix) Matrix {
	p := newMatrix(m.N)
	for r := 0; r < m.N; r++ {
		for c := 0; c < m.N; c++ {
			var sum complex128
			for k := 0; k < m.N; k++ {
				sum += m.At(r, k) * o.At(k, c)
			}
			p.set(r, c, sum)
		}
	}
	return p
}

// Library constructs canonical unitary matrices for gates. It is stateless
// apart from a cache of the fixed 2x2 matrices; pass one instance to the
// engine and circuit rather than reaching for a package-level singleton.
type Library struct {
	fixed map[Kind]block
}

// NewLibrary returns a gate library with the fixed single-qubit matrices
// precomputed.
func NewLibrary() *Library {
	invSqrt2 := complex(1/math.Sqrt2, 0)
	expPi4 := cmplx.Exp(complex(0, math.Pi/4))
	return &Library{fixed: map[Kind]block{
		KindI:   {{1, 0}, {0, 1}},
		KindX:   {{0, 1}, {1, 0}},
		KindY:   {{0, -1i}, {1i, 0}},
		KindZ:   {{1, 0}, {0, -1}},
		KindH:   {{invSqrt2, invSqrt2}, {invSqrt2, -invSqrt2}},
		KindS:   {{1, 0}, {0, 1i}},
		KindSDG: {{1, 0}, {0, -1i}},
		KindT:   {{1, 0}, {0, expPi4}},
		KindTDG: {{1, 0}, {0, cmplx.Conj(expPi4)}},
	}}
}

// block returns the 2x2 matrix for a single-qubit kind, or the embedded
// block of a controlled kind.
func (l *Library) block(g Gate) (block, error) {
	k := baseKind(g.Kind)
	if b, ok := l.fixed[k]; ok {
		return b, nil
	}
	switch k {
	case KindRX:
		c := complex(math.Cos(g.Theta()/2), 0)
		js := complex(0, -math.Sin(g.Theta()/2))
		return block{{c, js}, {js, c}}, nil
	case KindRY:
		c := complex(math.Cos(g.Theta()/2), 0)
		s := complex(math.Sin(g.Theta()/2), 0)
		return block{{c, -s}, {s, c}}, nil
	case KindRZ:
		e := cmplx.Exp(complex(0, g.Theta()/2))
		return block{{cmplx.Conj(e), 0}, {0, e}}, nil
	case KindP:
		return block{{1, 0}, {0, cmplx.Exp(complex(0, g.Theta()))}}, nil
	case KindU:
		theta, phi, lambda := g.param(0), g.param(1), g.param(2)
		c := complex(math.Cos(theta/2), 0)
		s := complex(math.Sin(theta/2), 0)
		return block{
			{c, -cmplx.Exp(complex(0, lambda)) * s},
			{cmplx.Exp(complex(0, phi)) * s, cmplx.Exp(complex(0, phi+lambda)) * c},
		}, nil
	}
	return block{}, &GateDimensionError{Kind: g.Kind, Qubit: g.Target, Reason: "unknown gate kind"}
}

// Matrix returns the full 2^k x 2^k unitary for the gate, k being the
// number of operand qubits. Two calls with identical parameters return
// numerically identical matrices.
func (l *Library) Matrix(g Gate) (Matrix, error) {
	switch g.Kind {
	case KindSWAP:
		m := identityMatrix(4)
		m.set(1, 1, 0)
		m.set(2, 2, 0)
		m.set(1, 2, 1)
		m.set(2, 1, 1)
		return m, nil
	case KindCSWAP:
		// Bit 2 is the control; exchange bits 0 and 1 when it is set.
		m := identityMatrix(8)
		m.set(5, 5, 0)
		m.set(6, 6, 0)
		m.set(5, 6, 1)
		m.set(6, 5, 1)
		return m, nil
	}

	b, err := l.block(g)
	if err != nil {
		return Matrix{}, err
	}
	switch operandCount(g.Kind) {
	case 1:
		m := newMatrix(2)
		m.set(0, 0, b[0][0])
		m.set(0, 1, b[0][1])
		m.set(1, 0, b[1][0])
		m.set(1, 1, b[1][1])
		return m, nil
	case 2:
		// Bit 0 is the target, bit 1 the control: the block occupies the
		// control=1 subspace, identity elsewhere.
		m := identityMatrix(4)
		embedBlock(&m, b, 2)
		return m, nil
	case 3:
		// Toffoli: bits 1 and 2 are controls.
		m := identityMatrix(8)
		embedBlock(&m, b, 6)
		return m, nil
	}
	return Matrix{}, &GateDimensionError{Kind: g.Kind, Qubit: g.Target, Reason: "unknown gate kind"}
}

// embedBlock writes the 2x2 block over the pair of basis states
// {base, base|1}, leaving the rest of the matrix untouched.
func embedBlock(m *Matrix, b block, base int) {
	m.set(base, base, b[0][0])
	m.set(base, base+1, b[0][1])
	m.set(base+1, base, b[1][0])
	m.set(base+1, base+1, b[1][1])
}

func identityMatrix(n int) Matrix {
	m := newMatrix(n)
	for i := 0; i < n; i++ {
		m.set(i, i, 1)
	}
	return m
}

// Inverse returns the gate whose matrix is the adjoint of g's: fixed gates
// map to their dagger partners and rotations negate their angles.
func Inverse(g Gate) Gate {
	inv := g
	switch g.Kind {
	case KindS:
		inv.Kind = KindSDG
	case KindSDG:
		inv.Kind = KindS
	case KindT:
		inv.Kind = KindTDG
	case KindTDG:
		inv.Kind = KindT
	case KindRX, KindRY, KindRZ, KindP, KindCRX, KindCRY, KindCRZ:
		inv.Params = []float64{-g.Theta()}
	case KindU:
		// U(θ, φ, λ)⁻¹ = U(−θ, −λ, −φ)
		inv.Params = []float64{-g.param(0), -g.param(2), -g.param(1)}
	}
	return inv
}
