// Package channel turns a transport into a request/response multiplexor
// plus an inbound request/notification dispatcher (§4.5). It is the
// stream-based layer the typed channel (package typedchannel) builds
// method-level dispatch on top of.
package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/hediet/typed-json-rpc/jrpc"
	"github.com/hediet/typed-json-rpc/logging"
	"github.com/hediet/typed-json-rpc/rpcerr"
	"github.com/hediet/typed-json-rpc/transport"
)

// Handler receives inbound requests and notifications that have already
// been classified off the wire, but are otherwise undispatched — method
// lookup and per-method typing happen one layer up, in typedchannel.
type Handler interface {
	// HandleRequest returns the JSON result to send back, or an error.
	// Panics are recovered by the channel and turned into internalError
	// responses (§4.5): a Handler implementation may still panic safely.
	HandleRequest(ctx context.Context, id jrpc.ID, method string, params json.RawMessage) (json.RawMessage, error)
	// HandleNotification has no response to produce; errors are logged
	// and dropped.
	HandleNotification(method string, params json.RawMessage)
}

type pendingRequest struct {
	resultCh chan json.RawMessage
	errCh    chan error
}

// Channel is the stream-based request/response multiplexor over a single
// Transport.
type Channel struct {
	transport transport.Transport
	logger    logging.Logger

	mu       sync.Mutex
	pending  map[string]*pendingRequest
	handler  Handler
	nextID   int64
	closed   bool
	closeErr error
}

// New constructs a Channel over t with handler installed immediately
// (handler may be nil, meaning inbound requests get methodNotFound and
// notifications are dropped). Use NewFactory instead to defer handler
// installation.
func New(t transport.Transport, handler Handler, logger logging.Logger) *Channel {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	c := &Channel{transport: t, handler: handler, logger: logger.WithField("component", "channel"), pending: make(map[string]*pendingRequest)}
	c.install()
	return c
}

// Factory defers listener installation until Materialize is called, per
// §4.5's "factory form" — useful when the handler itself needs a
// reference to the channel it is about to be installed on.
type Factory struct {
	transport   transport.Transport
	logger      logging.Logger
	mu          sync.Mutex
	materialize bool
}

// NewFactory returns a Factory for t. Materialize may be called exactly
// once; a second call fails fast.
func NewFactory(t transport.Transport, logger logging.Logger) *Factory {
	return &Factory{transport: t, logger: logger}
}

// Materialize installs handler and returns the live Channel. Calling this
// a second time on the same factory returns an error.
func (f *Factory) Materialize(handler Handler) (*Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.materialize {
		return nil, errors.New("channel: factory already materialized")
	}
	f.materialize = true
	return New(f.transport, handler, f.logger), nil
}

func (c *Channel) install() {
	c.transport.SetListener(c.onMessage)
	c.transport.OnStateChange(func(state transport.ConnectionState) {
		if state.Kind == transport.StateClosed {
			c.failAllPending(closedChannelError(state.Err))
		}
	})
}

func closedChannelError(cause error) error {
	if cause != nil {
		return errors.Wrapf(cause, "channel: transport closed")
	}
	return errors.New("channel: transport closed")
}

// State exposes the underlying transport's connection state unchanged
// (§4.5 "Lifetime").
func (c *Channel) State() transport.ConnectionState { return c.transport.State() }

// OnStateChange subscribes to the underlying transport's state changes.
func (c *Channel) OnStateChange(f func(transport.ConnectionState)) func() {
	return c.transport.OnStateChange(f)
}

// Request sends a request and blocks until a matching response arrives,
// ctx is cancelled, or the transport closes.
func (c *Channel) Request(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error) {
	id := jrpc.NewIntID(atomic.AddInt64(&c.nextID, 1) - 1)
	key := id.Key()

	pending := &pendingRequest{resultCh: make(chan json.RawMessage, 1), errCh: make(chan error, 1)}
	c.mu.Lock()
	c.pending[key] = pending
	c.mu.Unlock()

	msg := jrpc.NewRequest(id, method, params)
	raw, err := msg.Encode()
	if err != nil {
		c.removePending(key)
		return nil, errors.Wrap(err, "channel: encode request")
	}
	if err := c.transport.Send(raw); err != nil {
		c.removePending(key)
		return nil, errors.Wrap(err, "channel: send request")
	}

	select {
	case result := <-pending.resultCh:
		return result, nil
	case err := <-pending.errCh:
		return nil, err
	case <-ctx.Done():
		c.removePending(key)
		return nil, ctx.Err()
	}
}

// Notify sends a notification; it completes once the transport accepts
// the bytes, with no further correlation.
func (c *Channel) Notify(method string, params json.RawMessage) error {
	msg := jrpc.NewNotification(method, params)
	raw, err := msg.Encode()
	if err != nil {
		return errors.Wrap(err, "channel: encode notification")
	}
	if err := c.transport.Send(raw); err != nil {
		return errors.Wrap(err, "channel: send notification")
	}
	return nil
}

func (c *Channel) removePending(key string) {
	c.mu.Lock()
	delete(c.pending, key)
	c.mu.Unlock()
}

func (c *Channel) failAllPending(err error) {
	c.mu.Lock()
	pending := c.pending
	c.pending = make(map[string]*pendingRequest)
	c.mu.Unlock()
	for _, p := range pending {
		p.errCh <- err
	}
}

func (c *Channel) onMessage(raw transport.Message) {
	msg, err := jrpc.Decode(json.RawMessage(raw))
	if err != nil {
		c.logger.Warn("channel: dropping undecodable message", "error", err)
		return
	}
	switch msg.Classify() {
	case jrpc.KindRequest:
		go c.handleInboundRequest(msg)
	case jrpc.KindNotification:
		c.handleInboundNotification(msg)
	case jrpc.KindResultResponse, jrpc.KindErrorResponse:
		c.handleInboundResponse(msg)
	default:
		c.logger.Debug("channel: dropping message of unrecognized shape")
	}
}

func (c *Channel) handleInboundRequest(msg *jrpc.Message) {
	id := *msg.ID
	if c.handler == nil {
		c.sendErrorResponse(id, rpcerr.CodeMethodNotFound, fmt.Sprintf("no handler installed for method %q", msg.Method))
		return
	}

	result, err := c.callHandlerSafely(msg)
	if err != nil {
		var reqErr *rpcerr.RequestHandlingError
		if errors.As(err, &reqErr) {
			data, _ := rpcerr.MarshalErrorData(reqErr.Data)
			c.sendErrorResponseWithData(id, reqErr.Code, reqErr.Message, data)
			return
		}
		c.logger.Warn("channel: request handler returned error", "method", msg.Method, "error", err)
		c.sendErrorResponse(id, rpcerr.CodeInternalError, rpcerr.UserFacingMessage(rpcerr.CodeInternalError))
		return
	}
	c.sendResultResponse(id, result)
}

func (c *Channel) callHandlerSafely(msg *jrpc.Message) (result json.RawMessage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("channel: handler panicked: %v", r)
		}
	}()
	return c.handler.HandleRequest(context.Background(), *msg.ID, msg.Method, msg.Params)
}

func (c *Channel) handleInboundNotification(msg *jrpc.Message) {
	if c.handler == nil {
		c.logger.Debug("channel: dropping notification, no handler installed", "method", msg.Method)
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("channel: notification handler panicked", "method", msg.Method, "recovered", r)
		}
	}()
	c.handler.HandleNotification(msg.Method, msg.Params)
}

func (c *Channel) handleInboundResponse(msg *jrpc.Message) {
	key := msg.ID.Key()
	c.mu.Lock()
	pending, ok := c.pending[key]
	if ok {
		delete(c.pending, key)
	}
	c.mu.Unlock()
	if !ok {
		c.logger.Debug("channel: dropping response for unknown id", "id", key)
		return
	}

	switch {
	case msg.Error != nil:
		pending.errCh <- msg.Error
	case msg.Result != nil:
		pending.resultCh <- msg.Result
	default:
		pending.errCh <- errors.New("channel: protocol violation: response has neither result nor error")
	}
}

func (c *Channel) sendResultResponse(id jrpc.ID, result json.RawMessage) {
	raw, err := jrpc.NewResultResponse(id, result).Encode()
	if err != nil {
		c.logger.Warn("channel: failed to encode result response", "error", err)
		return
	}
	if err := c.transport.Send(raw); err != nil {
		c.logger.Warn("channel: failed to send result response", "error", err)
	}
}

func (c *Channel) sendErrorResponse(id jrpc.ID, code int, message string) {
	c.sendErrorResponseWithData(id, code, message, nil)
}

func (c *Channel) sendErrorResponseWithData(id jrpc.ID, code int, message string, data json.RawMessage) {
	raw, err := jrpc.NewErrorResponse(id, &jrpc.ErrorObject{Code: code, Message: message, Data: data}).Encode()
	if err != nil {
		c.logger.Warn("channel: failed to encode error response", "error", err)
		return
	}
	if err := c.transport.Send(raw); err != nil {
		c.logger.Warn("channel: failed to send error response", "error", err)
	}
}
