// Package fsmutil wraps github.com/looplab/fsm with the small, typed
// surface the connection-state and typed-channel lifecycle machines need.
// It is a trimmed generalization of the teacher's internal/fsm package: the
// teacher's FSM exposes guards and multi-source transitions for an
// application-specific MCP session lifecycle; here only monotonic,
// no-guard, single-source transitions are needed (Connecting→Open→Closed,
// Constructed→Listening→Closed), so the builder step is collapsed into a
// single constructor.
package fsmutil

import (
	"context"

	lfsm "github.com/looplab/fsm"
)

// Machine is a minimal monotonic state machine: one event per transition,
// no guards, no re-entrant states.
type Machine struct {
	fsm *lfsm.FSM
}

// Transition names one edge: firing Event while in From moves to To.
type Transition struct {
	Event string
	From  string
	To    string
}

// New builds a Machine starting in initial, wired with the given
// transitions. Firing an event not valid from the current state returns
// the looplab/fsm InvalidEventError.
func New(initial string, transitions []Transition) *Machine {
	events := make([]lfsm.EventDesc, 0, len(transitions))
	for _, t := range transitions {
		events = append(events, lfsm.EventDesc{Name: t.Event, Src: []string{t.From}, Dst: t.To})
	}
	return &Machine{fsm: lfsm.NewFSM(initial, events, nil)}
}

// Current returns the current state.
func (m *Machine) Current() string { return m.fsm.Current() }

// Fire attempts the named event, returning an error if it is not valid
// from the current state. It never blocks and never re-enters the same
// state (monotonic machines only).
func (m *Machine) Fire(event string) error {
	return m.fsm.Event(context.Background(), event)
}

// Is reports whether the machine is currently in the given state.
func (m *Machine) Is(state string) bool { return m.fsm.Is(state) }
