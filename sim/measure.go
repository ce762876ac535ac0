package sim

import (
	"math"
	"math/cmplx"
	"math/rand"
	"strings"
)

// degenerateTolerance is the total probability below which a state is
// considered unmeasurable.
const degenerateTolerance = 1e-12

// Sampler draws measurement outcomes from an engine's state by the Born
// rule. The random source is injected so shot sequences are reproducible.
type Sampler struct {
	rng *rand.Rand
}

// NewSampler returns a sampler seeded with the given value.
func NewSampler(seed int64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewSource(seed))}
}

// NewSamplerFromRand wraps an existing random source.
func NewSamplerFromRand(rng *rand.Rand) *Sampler {
	return &Sampler{rng: rng}
}

// Measure performs a full measurement: it draws one basis state weighted by
// |amplitude|² and collapses the engine's state onto it. Destructive.
func (s *Sampler) Measure(e *Engine) (int, error) {
	idx, err := s.drawIndex(e.amps)
	if err != nil {
		return 0, err
	}
	for i := range e.amps {
		e.amps[i] = 0
	}
	e.amps[idx] = 1
	return idx, nil
}

// drawIndex walks the cumulative probability distribution over basis-state
// order and returns the first index whose cumulative probability reaches r.
func (s *Sampler) drawIndex(amps []complex128) (int, error) {
	total := 0.0
	for _, a := range amps {
		total += real(a * cmplx.Conj(a))
	}
	if total < degenerateTolerance {
		return 0, &DegenerateStateError{TotalProbability: total}
	}

	r := s.rng.Float64() * total
	cum := 0.0
	for i, a := range amps {
		cum += real(a * cmplx.Conj(a))
		if cum >= r {
			return i, nil
		}
	}
	// Floating-point shortfall at the tail.
	return len(amps) - 1, nil
}

// MeasureQubit measures a single qubit: the outcome is drawn from the
// marginal distribution, inconsistent amplitudes are zeroed, and the
// survivors are rescaled by 1/√p. Destructive for the measured qubit.
func (s *Sampler) MeasureQubit(e *Engine, q int) (int, error) {
	if q < 0 || q >= e.numQubits {
		return 0, &GateDimensionError{Kind: "MEASURE", Qubit: q, Reason: "index out of range"}
	}

	p0, p1 := e.QubitProbability(q)
	total := p0 + p1
	if total < degenerateTolerance {
		return 0, &DegenerateStateError{TotalProbability: total}
	}

	outcome := 0
	p := p0
	if s.rng.Float64()*total >= p0 {
		outcome = 1
		p = p1
	}
	if p < degenerateTolerance {
		return 0, &DegenerateStateError{TotalProbability: p}
	}

	bit := 1 << q
	scale := complex(1/math.Sqrt(p), 0)
	for i := range e.amps {
		if (i&bit != 0) == (outcome == 1) {
			e.amps[i] *= scale
		} else {
			e.amps[i] = 0
		}
	}
	return outcome, nil
}

// Shots runs n independent full measurements, each against a fresh copy of
// the pre-measurement state, and aggregates the outcomes into a
// bitstring→count histogram. The engine's canonical state is never mutated.
func (s *Sampler) Shots(e *Engine, n int) (map[string]int, error) {
	saved := e.Clone()
	counts := make(map[string]int)
	for i := 0; i < n; i++ {
		idx, err := s.Measure(e)
		if err != nil {
			e.restore(saved)
			return nil, err
		}
		counts[Bitstring(idx, e.numQubits)]++
		e.restore(saved)
	}
	return counts, nil
}

// Bitstring formats a basis-state index with qubit 0 leftmost.
func Bitstring(idx, numQubits int) string {
	var sb strings.Builder
	for q := 0; q < numQubits; q++ {
		if idx&(1<<q) != 0 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
