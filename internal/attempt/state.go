// Package attempt keeps a per-item attempt counter in two markers stored on
// the remote item, so the count survives restarts of a stateless process.
package attempt

import (
	"errors"
	"fmt"

	"github.com/cexll/prbot/internal/platform"
)

// ErrContractViolation is returned when a terminal state is bumped.
// Callers must check Exhausted before calling Bump.
var ErrContractViolation = errors.New("attempt counter contract violation")

// MaxAttempts is the number of bumps available before the terminal state.
const MaxAttempts = 3

// State is the attempt counter decoded from the marker pair.
//
//	S0 (absent, absent)   no attempts consumed
//	S1 (present, absent)  one attempt consumed
//	S2 (absent, present)  two attempts consumed
//	S3 (present, present) attempts exhausted
type State int

const (
	S0 State = iota
	S1
	S2
	S3
)

func (s State) String() string {
	switch s {
	case S0, S1, S2, S3:
		return fmt.Sprintf("S%d", int(s))
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Exhausted reports whether s is the terminal state.
func (s State) Exhausted() bool { return s == S3 }

// Attempts is the number of attempts consumed in state s.
func (s State) Attempts() int { return int(s) }

// Decode maps marker presence to a state.
func Decode(primary, secondary bool) State {
	switch {
	case primary && secondary:
		return S3
	case secondary:
		return S2
	case primary:
		return S1
	default:
		return S0
	}
}

// Encode returns the marker presence for s.
func (s State) Encode() (primary, secondary bool) {
	switch s {
	case S1:
		return true, false
	case S2:
		return false, true
	case S3:
		return true, true
	default:
		return false, false
	}
}

// Action is a marker mutation
type Action int

const (
	Create Action = iota
	Delete
)

func (a Action) String() string {
	if a == Delete {
		return "delete"
	}
	return "create"
}

// Op is one marker mutation to apply, in order.
type Op struct {
	Action Action
	Kind   platform.MarkerKind
}

type transition struct {
	next State
	ops  []Op
}

// The S1 -> S2 step creates before it deletes: a failure in between lands
// on S3 (over-count), never back on S0.
var transitions = map[State]transition{
	S0: {next: S1, ops: []Op{{Create, platform.MarkerPrimary}}},
	S1: {next: S2, ops: []Op{{Create, platform.MarkerSecondary}, {Delete, platform.MarkerPrimary}}},
	S2: {next: S3, ops: []Op{{Create, platform.MarkerPrimary}}},
}

// Bump returns the next state and the marker operations that move the
// remote markers there.
func Bump(s State) (State, []Op, error) {
	t, ok := transitions[s]
	if !ok {
		return s, nil, fmt.Errorf("%w: bump called on %s", ErrContractViolation, s)
	}
	return t.next, append([]Op(nil), t.ops...), nil
}
