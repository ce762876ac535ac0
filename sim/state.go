package sim

import (
	"io"
	"math"
	"math/cmplx"

	"github.com/charmbracelet/log"
)

const (
	// MaxQubits bounds register size; the amplitude array is 2^n complex128
	// values, so 24 qubits is already 256 MiB.
	MaxQubits = 24

	// normTolerance is the allowed drift of the state norm from 1.
	normTolerance = 1e-9

	// renormInterval is how many gate applications pass between drift checks.
	// Checking the norm costs a full pass over the amplitudes, so it is not
	// done per gate.
	renormInterval = 64
)

// Engine owns the amplitude vector and applies unitary transforms to it in
// place. It is single-writer: callers must not apply gates concurrently.
type Engine struct {
	amps      []complex128
	numQubits int
	lib       *Library
	logger    *log.Logger

	sinceCheck int
}

// NewEngine returns an engine initialized to |0…0⟩ over n qubits.
func NewEngine(lib *Library, n int) (*Engine, error) {
	e := &Engine{lib: lib, logger: log.New(io.Discard)}
	if err := e.Initialize(n); err != nil {
		return nil, err
	}
	return e, nil
}

// SetLogger routes renormalization diagnostics to the given logger.
func (e *Engine) SetLogger(l *log.Logger) {
	if l != nil {
		e.logger = l
	}
}

// Initialize replaces the state with |0…0⟩ over n qubits. On error the
// previous state is left untouched.
func (e *Engine) Initialize(n int) error {
	if n <= 0 || n > MaxQubits {
		return &InvalidQubitCountError{Count: n, Max: MaxQubits}
	}
	amps := make([]complex128, 1<<n)
	amps[0] = 1
	e.amps = amps
	e.numQubits = n
	e.sinceCheck = 0
	return nil
}

// NumQubits returns the register size.
func (e *Engine) NumQubits() int { return e.numQubits }

// Amplitudes returns the live amplitude slice. It is a read-only view:
// mutate only through Apply and the sampler.
func (e *Engine) Amplitudes() []complex128 { return e.amps }

// Clone returns an independent copy of the amplitude vector.
func (e *Engine) Clone() []complex128 {
	amps := make([]complex128, len(e.amps))
	copy(amps, e.amps)
	return amps
}

// restore overwrites the state with a previously cloned amplitude vector.
func (e *Engine) restore(amps []complex128) {
	copy(e.amps, amps)
}

// Apply validates the gate and applies its unitary to the state in place.
// Controlled kinds transform only the index pairs whose control bits are all
// set; everything else is left untouched.
func (e *Engine) Apply(g Gate) error {
	if err := g.Validate(e.numQubits); err != nil {
		return err
	}

	ctrlMask := 0
	for _, c := range g.Controls {
		ctrlMask |= 1 << c
	}

	switch g.Kind {
	case KindSWAP, KindCSWAP:
		e.applySwap(g.Target, g.Target2, ctrlMask)
	default:
		b, err := e.lib.block(g)
		if err != nil {
			return err
		}
		e.applyBlock(b, g.Target, ctrlMask)
	}

	e.sinceCheck++
	if e.sinceCheck >= renormInterval {
		e.renormalize()
		e.sinceCheck = 0
	}
	return nil
}

// applyBlock applies a 2x2 transform to every amplitude pair differing only
// in the target bit, restricted to indices where all control bits are set.
func (e *Engine) applyBlock(b block, target, ctrlMask int) {
	n := len(e.amps)
	bit := 1 << target
	for i := 0; i < n; i++ {
		if i&bit != 0 || i&ctrlMask != ctrlMask {
			continue
		}
		j := i | bit
		a0, a1 := e.amps[i], e.amps[j]
		e.amps[i] = b[0][0]*a0 + b[0][1]*a1
		e.amps[j] = b[1][0]*a0 + b[1][1]*a1
	}
}

// applySwap exchanges the two target bits, gated on the control mask.
func (e *Engine) applySwap(q1, q2, ctrlMask int) {
	n := len(e.amps)
	bit1 := 1 << q1
	bit2 := 1 << q2
	for i := 0; i < n; i++ {
		if i&bit1 == 0 || i&bit2 != 0 || i&ctrlMask != ctrlMask {
			continue
		}
		j := (i &^ bit1) | bit2
		e.amps[i], e.amps[j] = e.amps[j], e.amps[i]
	}
}

// Norm returns the Euclidean norm of the state vector.
func (e *Engine) Norm() float64 {
	sum := 0.0
	for _, a := range e.amps {
		sum += real(a * cmplx.Conj(a))
	}
	return math.Sqrt(sum)
}

// renormalize rescales the amplitudes when accumulated floating-point drift
// has pushed the norm outside tolerance. Drift is a diagnostic, not an
// error: it is logged and repaired locally.
func (e *Engine) renormalize() {
	norm := e.Norm()
	if math.Abs(norm-1) <= normTolerance {
		return
	}
	e.logger.Warn("normalization drift, rescaling", "norm", norm, "qubits", e.numQubits)
	scale := complex(1/norm, 0)
	for i := range e.amps {
		e.amps[i] *= scale
	}
}

// Probabilities returns |amplitude|² for every basis state.
func (e *Engine) Probabilities() []float64 {
	probs := make([]float64, len(e.amps))
	for i, a := range e.amps {
		probs[i] = real(a * cmplx.Conj(a))
	}
	return probs
}

// QubitProbability returns the marginal probability of measuring qubit q
// as 0 and as 1.
func (e *Engine) QubitProbability(q int) (p0, p1 float64) {
	bit := 1 << q
	for i, a := range e.amps {
		p := real(a * cmplx.Conj(a))
		if i&bit == 0 {
			p0 += p
		} else {
			p1 += p
		}
	}
	return p0, p1
}
