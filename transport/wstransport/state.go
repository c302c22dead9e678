package wstransport

import (
	"sync"

	"github.com/hediet/typed-json-rpc/internal/fsmutil"
	"github.com/hediet/typed-json-rpc/transport"
)

const (
	eventOpen  = "open"
	eventClose = "close"
)

// stateMachine mirrors transport.connectionStateMachine (unexported in
// package transport) for this transport's own Connecting->Open->Closed
// lifecycle, since a WebSocket connection is already established by the
// time New is called but still goes through the same three states.
type stateMachine struct {
	mu        sync.Mutex
	fsm       *fsmutil.Machine
	closedErr error
	subs      map[int]func(transport.ConnectionState)
	nextSub   int
}

func newStateMachine() *stateMachine {
	return &stateMachine{
		fsm: fsmutil.New(transport.StateConnecting, []fsmutil.Transition{
			{Event: eventOpen, From: transport.StateConnecting, To: transport.StateOpen},
			{Event: eventClose, From: transport.StateConnecting, To: transport.StateClosed},
			{Event: eventClose, From: transport.StateOpen, To: transport.StateClosed},
		}),
		subs: make(map[int]func(transport.ConnectionState)),
	}
}

func (s *stateMachine) current() transport.ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return transport.ConnectionState{Kind: s.fsm.Current(), Err: s.closedErr}
}

func (s *stateMachine) subscribe(f func(transport.ConnectionState)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = f
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *stateMachine) open()       { s.transition(eventOpen, nil) }
func (s *stateMachine) close(err error) { s.transition(eventClose, err) }

func (s *stateMachine) transition(event string, err error) {
	s.mu.Lock()
	if fireErr := s.fsm.Fire(event); fireErr != nil {
		s.mu.Unlock()
		return
	}
	if event == eventClose {
		s.closedErr = err
	}
	state := transport.ConnectionState{Kind: s.fsm.Current(), Err: s.closedErr}
	subs := make([]func(transport.ConnectionState), 0, len(s.subs))
	for _, f := range s.subs {
		subs = append(subs, f)
	}
	s.mu.Unlock()
	for _, f := range subs {
		f(state)
	}
}
