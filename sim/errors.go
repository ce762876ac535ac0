package sim

import "fmt"

// InvalidQubitCountError reports a requested register size that is not
// simulable: zero, negative, or past the memory ceiling.
type InvalidQubitCountError struct {
	Count int
	Max   int
}

func (e *InvalidQubitCountError) Error() string {
	return fmt.Sprintf("invalid qubit count %d (must be 1..%d)", e.Count, e.Max)
}

// GateDimensionError reports a gate whose qubit operands are out of range
// or reuse the same qubit in more than one role.
type GateDimensionError struct {
	Kind   Kind
	Qubit  int
	Reason string
}

func (e *GateDimensionError) Error() string {
	return fmt.Sprintf("gate %s: qubit %d: %s", e.Kind, e.Qubit, e.Reason)
}

// DegenerateStateError reports a measurement attempted against a state whose
// total probability has collapsed to (numerically) zero. This only happens
// when something upstream corrupted the amplitudes; the measurement call
// fails rather than dividing by zero.
type DegenerateStateError struct {
	TotalProbability float64
}

func (e *DegenerateStateError) Error() string {
	return fmt.Sprintf("degenerate state: total probability %g", e.TotalProbability)
}

// InvalidOperationError reports a circuit edit that cannot be honored, such
// as removing the last qubit or stepping undo history past its bounds. The
// circuit is left unchanged.
type InvalidOperationError struct {
	Op     string
	Reason string
}

func (e *InvalidOperationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}
