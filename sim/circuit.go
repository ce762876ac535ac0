package sim

import (
	"slices"
)

// historyCap bounds the undo stack; the oldest snapshots are evicted first.
const historyCap = 50

// Entry is one placed gate: the gate itself plus the depth slot it occupies.
type Entry struct {
	ID    int
	Gate  Gate
	Depth int
}

// References reports whether the entry touches the given qubit.
func (en Entry) References(q int) bool {
	return slices.Contains(en.Gate.Qubits(), q)
}

// Instruction is one element of a circuit export: the flat, depth-ordered
// form handed to external executors (QASM translation, hardware backends).
type Instruction struct {
	Kind   Kind
	Qubits []int
	Params []float64
}

// Circuit is the editable, ordered description of gate placements. It owns
// the undo/redo history and is the only component that replays gates into
// an engine; every edit invalidates the engine state and requires a full
// replay from |0…0⟩.
type Circuit struct {
	numQubits int
	entries   []Entry
	nextID    int

	history []snapshot
	histPos int

	playhead int
}

type snapshot struct {
	numQubits int
	entries   []Entry
}

func (c *Circuit) snap() snapshot {
	return snapshot{numQubits: c.numQubits, entries: slices.Clone(c.entries)}
}

func (c *Circuit) restoreSnap(s snapshot) {
	c.numQubits = s.numQubits
	c.entries = slices.Clone(s.entries)
	c.playhead = 0
}

// NewCircuit returns an empty circuit over n qubits.
func NewCircuit(n int) (*Circuit, error) {
	if n <= 0 || n > MaxQubits {
		return nil, &InvalidQubitCountError{Count: n, Max: MaxQubits}
	}
	c := &Circuit{numQubits: n, nextID: 1}
	c.history = []snapshot{c.snap()}
	return c, nil
}

// NumQubits returns the declared qubit count.
func (c *Circuit) NumQubits() int { return c.numQubits }

// Entries returns the placed gates in insertion order.
func (c *Circuit) Entries() []Entry { return c.entries }

// MaxDepth returns one past the deepest occupied slot.
func (c *Circuit) MaxDepth() int {
	maxDepth := 0
	for _, en := range c.entries {
		if en.Depth+1 > maxDepth {
			maxDepth = en.Depth + 1
		}
	}
	return maxDepth
}

// EntryAt returns the entry occupying the given depth slot on the given
// qubit, or nil.
func (c *Circuit) EntryAt(depth, qubit int) *Entry {
	for i := range c.entries {
		if c.entries[i].Depth == depth && c.entries[i].References(qubit) {
			return &c.entries[i]
		}
	}
	return nil
}

// pushHistory records the current state as a new snapshot, discarding any
// redo branch and evicting the oldest snapshot past the cap.
func (c *Circuit) pushHistory() {
	c.history = append(c.history[:c.histPos+1], c.snap())
	if len(c.history) > historyCap {
		c.history = c.history[1:]
	}
	c.histPos = len(c.history) - 1
}

// AddGate places the gate at the next free depth slot for its qubits: one
// past the deepest slot already occupied on any involved qubit, so gates
// sharing a qubit never overlap in time. Returns the new entry's ID.
func (c *Circuit) AddGate(g Gate) (int, error) {
	if err := g.Validate(c.numQubits); err != nil {
		return 0, err
	}
	id := c.place(g)
	c.pushHistory()
	return id, nil
}

// place appends the gate at its next free depth slot without touching
// history. Used by AddGate and by the QASM parser, which records one
// snapshot for the whole parse.
func (c *Circuit) place(g Gate) int {
	depth := 0
	for _, q := range g.Qubits() {
		for _, en := range c.entries {
			if en.References(q) && en.Depth+1 > depth {
				depth = en.Depth + 1
			}
		}
	}
	id := c.nextID
	c.nextID++
	c.entries = append(c.entries, Entry{ID: id, Gate: g, Depth: depth})
	c.playhead = 0
	return id
}

// RemoveGate removes the entry with the given ID. Depth slots of the
// remaining entries are not compacted.
func (c *Circuit) RemoveGate(id int) error {
	idx := slices.IndexFunc(c.entries, func(en Entry) bool { return en.ID == id })
	if idx < 0 {
		return &InvalidOperationError{Op: "remove gate", Reason: "no such entry"}
	}
	c.entries = slices.Delete(c.entries, idx, idx+1)
	c.playhead = 0
	c.pushHistory()
	return nil
}

// RemoveGateAt removes whichever entry occupies the given slot and qubit.
func (c *Circuit) RemoveGateAt(depth, qubit int) error {
	en := c.EntryAt(depth, qubit)
	if en == nil {
		return &InvalidOperationError{Op: "remove gate", Reason: "slot is empty"}
	}
	return c.RemoveGate(en.ID)
}

// AddQubit grows the register by one. The caller must re-initialize and
// replay any engine sized to the old count.
func (c *Circuit) AddQubit() error {
	if c.numQubits+1 > MaxQubits {
		return &InvalidQubitCountError{Count: c.numQubits + 1, Max: MaxQubits}
	}
	c.numQubits++
	c.playhead = 0
	c.pushHistory()
	return nil
}

// RemoveQubit drops the highest-indexed qubit along with every entry that
// references it. Removal below one qubit is rejected.
func (c *Circuit) RemoveQubit() error {
	if c.numQubits <= 1 {
		return &InvalidOperationError{Op: "remove qubit", Reason: "circuit needs at least one qubit"}
	}
	removed := c.numQubits - 1
	c.entries = slices.DeleteFunc(c.entries, func(en Entry) bool {
		return en.References(removed)
	})
	c.numQubits--
	c.playhead = 0
	c.pushHistory()
	return nil
}

// Clear removes every entry, keeping the qubit count.
func (c *Circuit) Clear() {
	c.entries = nil
	c.playhead = 0
	c.pushHistory()
}

// Undo restores the previous snapshot. Stepping past the oldest retained
// snapshot is a reported no-op.
func (c *Circuit) Undo() error {
	if c.histPos == 0 {
		return &InvalidOperationError{Op: "undo", Reason: "no earlier history"}
	}
	c.histPos--
	c.restoreSnap(c.history[c.histPos])
	return nil
}

// Redo restores the next snapshot, if an undo left one ahead.
func (c *Circuit) Redo() error {
	if c.histPos >= len(c.history)-1 {
		return &InvalidOperationError{Op: "redo", Reason: "no later history"}
	}
	c.histPos++
	c.restoreSnap(c.history[c.histPos])
	return nil
}

// ordered returns the entries sorted by depth, ties broken by placement
// order.
func (c *Circuit) ordered() []Entry {
	sorted := slices.Clone(c.entries)
	slices.SortStableFunc(sorted, func(a, b Entry) int {
		if a.Depth != b.Depth {
			return a.Depth - b.Depth
		}
		return a.ID - b.ID
	})
	return sorted
}

// Replay rebuilds the engine state from |0…0⟩ by applying every entry in
// depth order. Edits never patch the live state incrementally.
func (c *Circuit) Replay(e *Engine) error {
	if err := e.Initialize(c.numQubits); err != nil {
		return err
	}
	for _, en := range c.ordered() {
		if err := e.Apply(en.Gate); err != nil {
			return err
		}
	}
	return nil
}

// Rewind resets step playback to the start of the circuit.
func (c *Circuit) Rewind() { c.playhead = 0 }

// Playhead returns the next depth slot Step will apply.
func (c *Circuit) Playhead() int { return c.playhead }

// Step applies the gates of the next depth slot to the engine and advances
// the playhead. When the playhead is at the start the engine is
// re-initialized first. Returns true while slots remain, so the host's
// scheduler (timer, animation frame, key press) can drive playback without
// the core depending on it.
func (c *Circuit) Step(e *Engine) (bool, error) {
	if c.playhead == 0 {
		if err := e.Initialize(c.numQubits); err != nil {
			return false, err
		}
	}
	if c.playhead >= c.MaxDepth() {
		return false, nil
	}
	for _, en := range c.ordered() {
		if en.Depth != c.playhead {
			continue
		}
		if err := e.Apply(en.Gate); err != nil {
			return false, err
		}
	}
	c.playhead++
	return c.playhead < c.MaxDepth(), nil
}

// Export serializes the circuit as a flat instruction list in depth order.
// Pure serialization: it reads no engine state.
func (c *Circuit) Export() []Instruction {
	out := make([]Instruction, 0, len(c.entries))
	for _, en := range c.ordered() {
		out = append(out, Instruction{
			Kind:   en.Gate.Kind,
			Qubits: slices.Clone(en.Gate.Qubits()),
			Params: slices.Clone(en.Gate.Params),
		})
	}
	return out
}
