package transport

import (
	"sync"

	"github.com/hediet/typed-json-rpc/internal/fsmutil"
)

// State names for the ConnectionState machine (§3): Connecting → Open →
// Closed, or Connecting → Closed directly. Never reopens.
const (
	StateConnecting = "connecting"
	StateOpen       = "open"
	StateClosed     = "closed"

	eventOpen  = "open"
	eventClose = "close"
)

// ConnectionState is the monotonic {Connecting, Open, Closed{error?}}
// variant described in §3. Closed carries the error that caused the
// closure, if any (nil on a clean close).
type ConnectionState struct {
	Kind string // one of State*
	Err  error  // set only when Kind == StateClosed and the close was abnormal
}

// connectionStateMachine wraps the Connecting→Open→Closed transitions in a
// looplab/fsm machine (internal/fsmutil), the way the teacher's
// internal/fsm wraps application lifecycle transitions, broadcasting each
// transition to subscribers.
type connectionStateMachine struct {
	mu        sync.Mutex
	fsm       *fsmutil.Machine
	closedErr error
	subs      map[int]func(ConnectionState)
	nextSub   int
}

func newConnectionStateMachine() *connectionStateMachine {
	return &connectionStateMachine{
		fsm: fsmutil.New(StateConnecting, []fsmutil.Transition{
			{Event: eventOpen, From: StateConnecting, To: StateOpen},
			{Event: eventClose, From: StateConnecting, To: StateClosed},
			{Event: eventClose, From: StateOpen, To: StateClosed},
		}),
		subs: make(map[int]func(ConnectionState)),
	}
}

func (c *connectionStateMachine) current() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentLocked()
}

func (c *connectionStateMachine) currentLocked() ConnectionState {
	return ConnectionState{Kind: c.fsm.Current(), Err: c.closedErr}
}

func (c *connectionStateMachine) subscribe(f func(ConnectionState)) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = f
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *connectionStateMachine) open() {
	c.transition(eventOpen, nil)
}

func (c *connectionStateMachine) close(err error) {
	c.transition(eventClose, err)
}

func (c *connectionStateMachine) transition(event string, err error) {
	c.mu.Lock()
	if fireErr := c.fsm.Fire(event); fireErr != nil {
		// Already open/closed: not an error for our purposes, just a no-op.
		c.mu.Unlock()
		return
	}
	if event == eventClose {
		c.closedErr = err
	}
	state := c.currentLocked()
	subs := make([]func(ConnectionState), 0, len(c.subs))
	for _, f := range c.subs {
		subs = append(subs, f)
	}
	c.mu.Unlock()

	for _, f := range subs {
		f(state)
	}
}
