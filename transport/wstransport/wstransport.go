// Package wstransport is a concrete Transport implementation over
// WebSocket connections, demonstrating that the Transport contract (§4.3)
// is implementable by an ordinary third-party transport library, the way
// the example corpus wires gorilla/mux for HTTP routing
// (richard-senior-mcp's internal/api.APIHandler.SetupRoutes) and the
// teacher wires its own HTTP JSON-RPC handler. Routing is gorilla/mux;
// the wire connection itself is gorilla/websocket.
package wstransport

import (
	"net/http"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/hediet/typed-json-rpc/logging"
	"github.com/hediet/typed-json-rpc/transport"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Transport implements transport.Transport over a single *websocket.Conn.
type Transport struct {
	name   string
	conn   *websocket.Conn
	logger logging.Logger

	mu       sync.Mutex
	buffer   []transport.Message
	listener transport.Listener
	state    *stateMachine

	writeMu sync.Mutex
}

// New wraps an already-established *websocket.Conn. Call Serve to start
// reading inbound messages in a background goroutine.
func New(name string, conn *websocket.Conn, logger logging.Logger) *Transport {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	t := &Transport{
		name:   name,
		conn:   conn,
		logger: logger.WithField("component", "wstransport"),
		state:  newStateMachine(),
	}
	t.state.open()
	return t
}

// Serve reads inbound text/binary frames until the connection closes or
// errors, delivering each as a Message. Run this in its own goroutine.
func (t *Transport) Serve() {
	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			t.Close(errors.Wrap(err, "wstransport: read"))
			return
		}
		t.deliver(transport.Message(data))
	}
}

func (t *Transport) Name() string { return t.name }

func (t *Transport) State() transport.ConnectionState { return t.state.current() }

func (t *Transport) OnStateChange(f func(transport.ConnectionState)) func() {
	return t.state.subscribe(f)
}

// Send writes message as a single WebSocket text frame.
func (t *Transport) Send(message transport.Message) error {
	if t.state.current().Kind == transport.StateClosed {
		return errors.Newf("wstransport %s: send on closed transport", t.name)
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if err := t.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		return errors.Wrap(err, "wstransport: write")
	}
	return nil
}

func (t *Transport) deliver(message transport.Message) {
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

// SetListener installs f, draining any buffered messages first,
// reentrant the same way transport.InMemoryTransport is (§4.3, §5).
func (t *Transport) SetListener(f transport.Listener) {
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

// Close marks the transport closed and closes the underlying connection.
func (t *Transport) Close(cause error) error {
	t.state.close(cause)
	return t.conn.Close()
}

// Upgrade upgrades an incoming HTTP request to a WebSocket connection and
// wraps it as a Transport, for use inside a gorilla/mux handler.
func Upgrade(name string, w http.ResponseWriter, r *http.Request, logger logging.Logger) (*Transport, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, errors.Wrap(err, "wstransport: upgrade")
	}
	return New(name, conn, logger), nil
}

// NewRouter returns a gorilla/mux router with a single WebSocket endpoint
// at path, invoking onConnect for every accepted connection.
func NewRouter(path string, logger logging.Logger, onConnect func(*Transport)) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc(path, func(w http.ResponseWriter, req *http.Request) {
		t, err := Upgrade(transport.NewName("ws"), w, req, logger)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		onConnect(t)
		go t.Serve()
	})
	return r
}
