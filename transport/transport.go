// Package transport defines the duplex message transport the channel layer
// consumes (§4.3). The interface is the only thing in scope here; concrete
// transports (WebSocket, length-prefixed byte streams, window message
// passing) are external collaborators, except for the in-memory test
// double and the bonus WebSocket transport under transport/wstransport
// that this repository ships for convenience.
package transport

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Message is a raw, framed JSON-RPC value as it crosses the transport
// boundary — classification into request/notification/response happens
// one layer up, in channel.Channel.
type Message = json.RawMessage

// Listener receives inbound messages in arrival order.
type Listener func(msg Message)

// Transport is a duplex channel of framed JSON values with a connection
// state signal (§4.3). Implementations must be concurrency-safe and must
// deliver messages in the order observed on the wire. Messages received
// before a listener is installed are buffered and replayed, in order, the
// moment SetListener is called; SetListener must itself be safe to call
// reentrantly from within the listener it is replacing (§5, §9).
type Transport interface {
	// Name is a human-readable identifier for diagnostics.
	Name() string

	// Send hands message to the underlying channel. It returns once the
	// transport has accepted the bytes; failure is returned as an error,
	// never silently dropped.
	Send(message Message) error

	// SetListener installs f as the single inbound listener, synchronously
	// draining any buffered messages (in arrival order) before returning.
	// Calling it again replaces the previous listener.
	SetListener(f Listener)

	// State returns the current connection state.
	State() ConnectionState

	// OnStateChange subscribes f to be called on every connection-state
	// transition. It returns an unsubscribe function.
	OnStateChange(f func(ConnectionState)) (unsubscribe func())

	// Close terminates the transport. Closing is terminal: State()
	// observes Closed afterward and never reopens.
	Close(cause error) error
}

// NewName returns a short random human-readable transport identifier, used
// as a default when a concrete transport doesn't have a more meaningful
// name (e.g. a listen address) to offer.
func NewName(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}
