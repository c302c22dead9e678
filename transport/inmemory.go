package transport

import (
	"sync"

	"github.com/cockroachdb/errors"
)

// InMemoryTransport implements Transport over in-memory channels, for
// tests and same-process peers, adapted from the teacher's
// internal/transport.InMemoryTransport: that implementation was pull-based
// (ReadMessage(ctx)); this one is push-based (SetListener) to match §4.3's
// contract, with the buffer-then-drain-on-install semantics §4.3 and §5
// require.
type InMemoryTransport struct {
	name string

	mu       sync.Mutex
	buffer   []Message
	listener Listener

	state *connectionStateMachine

	peer *InMemoryTransport // paired transport; nil until linked
}

// NewInMemoryPair creates two linked InMemoryTransports, each delivering to
// the other's listener. Both start in StateConnecting; call Open on each
// (or use NewOpenInMemoryPair) to move them to StateOpen.
func NewInMemoryPair(clientName, serverName string) (client, server *InMemoryTransport) {
	if clientName == "" {
		clientName = NewName("inmemory-client")
	}
	if serverName == "" {
		serverName = NewName("inmemory-server")
	}
	client = &InMemoryTransport{name: clientName, state: newConnectionStateMachine()}
	server = &InMemoryTransport{name: serverName, state: newConnectionStateMachine()}
	client.peer = server
	server.peer = client
	return client, server
}

// NewOpenInMemoryPair is NewInMemoryPair followed by Open on both ends —
// the common case for tests that don't exercise the Connecting state.
func NewOpenInMemoryPair(clientName, serverName string) (client, server *InMemoryTransport) {
	client, server = NewInMemoryPair(clientName, serverName)
	client.Open()
	server.Open()
	return client, server
}

// Open transitions this end from Connecting to Open.
func (t *InMemoryTransport) Open() { t.state.open() }

func (t *InMemoryTransport) Name() string { return t.name }

func (t *InMemoryTransport) State() ConnectionState { return t.state.current() }

func (t *InMemoryTransport) OnStateChange(f func(ConnectionState)) func() {
	return t.state.subscribe(f)
}

// Send delivers message to the peer's listener (or buffers it there if the
// peer has no listener installed yet).
func (t *InMemoryTransport) Send(message Message) error {
	if t.state.current().Kind == StateClosed {
		return NewClosedError(t.name, "send")
	}
	if t.peer == nil {
		return errors.Newf("transport %s: not paired", t.name)
	}
	t.peer.deliver(message)
	return nil
}

func (t *InMemoryTransport) deliver(message Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listener == nil {
		t.buffer = append(t.buffer, message)
		return
	}
	listener := t.listener
	t.mu.Unlock()
	listener(message)
	t.mu.Lock()
}

// SetListener installs f, synchronously draining any buffered messages in
// arrival order first. f may call SetListener again (reentrant drain): the
// loop below always re-reads t.listener/t.buffer so a mid-drain replacement
// takes effect for the remaining buffered messages.
func (t *InMemoryTransport) SetListener(f Listener) {
	t.mu.Lock()
	t.listener = f
	for len(t.buffer) > 0 {
		msg := t.buffer[0]
		t.buffer = t.buffer[1:]
		current := t.listener
		t.mu.Unlock()
		current(msg)
		t.mu.Lock()
	}
	t.mu.Unlock()
}

// Close marks this end Closed. It does not close the peer.
func (t *InMemoryTransport) Close(cause error) error {
	t.state.close(cause)
	return nil
}
