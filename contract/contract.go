// Package contract binds a pair of method-name-to-descriptor maps (one
// per role: "server" and "client") to a typed channel, producing a proxy
// object for calling the peer and installing handlers for the methods
// this role implements (§4.7). No single teacher file implements this —
// the teacher is an application built on its own JSON-RPC adapter, not a
// contract-based RPC meta-framework — so this package follows the
// specification directly, in the teacher's error/logging idiom
// (cockroachdb/errors wrapping, the Logger interface from package
// logging).
package contract

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/hediet/typed-json-rpc/jrpc"
	"github.com/hediet/typed-json-rpc/logging"
	"github.com/hediet/typed-json-rpc/rpcerr"
	"github.com/hediet/typed-json-rpc/transport"
	"github.com/hediet/typed-json-rpc/typedchannel"
)

// RequestDescriptor pairs a RequestType with the handler this role
// implements for it (nil if this role only calls it on the peer).
type RequestDescriptor struct {
	Type    typedchannel.RequestType
	Handler func(ctx context.Context, args any, info RequestInfo) (any, error)
}

// NotificationDescriptor pairs a NotificationType with the handler this
// role implements for it (nil if this role only sends it to the peer).
type NotificationDescriptor struct {
	Type    typedchannel.NotificationType
	Handler func(args any, info NotificationInfo)
}

// RequestInfo is injected into every registered request handler in
// addition to its declared args (§4.7 "info record").
type RequestInfo struct {
	RequestID jrpc.ID
	Peer      *Proxy
	NewError  func(code int, message string, data any) error
}

// NotificationInfo is injected into every registered notification handler.
type NotificationInfo struct {
	Peer *Proxy
}

// Contract is a named pair of descriptor maps: what this side exposes to
// the peer ("server" role descriptors) and what it expects the peer to
// expose ("client" role descriptors) — naming follows the typical
// request-initiator/responder asymmetry, but either side of a peer-to-peer
// connection may bind either role.
type Contract struct {
	Name string
	Tags []string

	serverRequests      map[string]RequestDescriptor
	serverNotifications map[string]NotificationDescriptor
	clientRequests      map[string]typedchannel.RequestType
	clientNotifications map[string]typedchannel.NotificationType
}

// New constructs an empty contract named name.
func New(name string, tags ...string) *Contract {
	return &Contract{
		Name:                name,
		Tags:                tags,
		serverRequests:      make(map[string]RequestDescriptor),
		serverNotifications: make(map[string]NotificationDescriptor),
		clientRequests:      make(map[string]typedchannel.RequestType),
		clientNotifications: make(map[string]typedchannel.NotificationType),
	}
}

// WithServerRequest registers a request this role implements, keyed by
// method. If typ.Method is empty, the map key is used as the method name
// (§4.7 "withMethod clone").
func (c *Contract) WithServerRequest(method string, typ typedchannel.RequestType, handler func(context.Context, any, RequestInfo) (any, error)) *Contract {
	if typ.Method == "" {
		typ = typ.WithMethod(method)
	}
	c.serverRequests[method] = RequestDescriptor{Type: typ, Handler: handler}
	return c
}

// WithServerNotification registers a notification this role handles.
func (c *Contract) WithServerNotification(method string, typ typedchannel.NotificationType, handler func(any, NotificationInfo)) *Contract {
	if typ.Method == "" {
		typ = typ.WithMethod(method)
	}
	c.serverNotifications[method] = NotificationDescriptor{Type: typ, Handler: handler}
	return c
}

// WithClientRequest registers a request this role only calls on the peer.
func (c *Contract) WithClientRequest(method string, typ typedchannel.RequestType) *Contract {
	if typ.Method == "" {
		typ = typ.WithMethod(method)
	}
	c.clientRequests[method] = typ
	return c
}

// WithClientNotification registers a notification this role only sends to
// the peer.
func (c *Contract) WithClientNotification(method string, typ typedchannel.NotificationType) *Contract {
	if typ.Method == "" {
		typ = typ.WithMethod(method)
	}
	c.clientNotifications[method] = typ
	return c
}

// Disposer aggregates a set of cleanup functions so contract composition
// can return a single handle that removes every registration it made.
type Disposer struct {
	mu    sync.Mutex
	funcs []func()
}

// DisposerFunc is a single cleanup function, as returned by every
// registration call in this package and in typedchannel.
type DisposerFunc func()

// Add appends f to the set of functions Dispose will call.
func (d *Disposer) Add(f DisposerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.funcs = append(d.funcs, f)
}

// Dispose calls every added function, most-recently-added first.
func (d *Disposer) Dispose() {
	d.mu.Lock()
	funcs := d.funcs
	d.funcs = nil
	d.mu.Unlock()
	for i := len(funcs) - 1; i >= 0; i-- {
		funcs[i]()
	}
}

// Proxy is the "counterpart" object (§4.7): one invocable method per
// descriptor on the peer's side.
type Proxy struct {
	tc                  *typedchannel.TypedChannel[any, any]
	logger              logging.Logger
	clientRequests      map[string]typedchannel.RequestType
	clientNotifications map[string]typedchannel.NotificationType
}

// Request calls the peer's method by name, as registered via
// WithClientRequest, normalizing nil/empty args to an empty object. For an
// optional descriptor the peer does not implement, it returns
// typedchannel.ErrOptionalMethodNotFound.
func (p *Proxy) Request(ctx context.Context, method string, args any) (any, error) {
	typ, ok := p.clientRequests[method]
	if !ok {
		return nil, errors.Newf("contract: no client request descriptor for %q", method)
	}
	if args == nil {
		args = struct{}{}
	}
	result, err := p.tc.Request(ctx, typ, args, nil)
	return result, err
}

// Notify sends a notification to the peer by name, as registered via
// WithClientNotification.
func (p *Proxy) Notify(method string, args any) error {
	typ, ok := p.clientNotifications[method]
	if !ok {
		return errors.Newf("contract: no client notification descriptor for %q", method)
	}
	if args == nil {
		args = struct{}{}
	}
	return p.tc.Notify(typ, args, nil)
}

// Bound is the result of binding a Contract to a live typed channel: the
// peer proxy plus a disposer that removes every handler this side
// installed.
type Bound struct {
	Peer    *Proxy
	Dispose func()
}

// Bind registers every server-side handler in c onto tc and returns the
// peer proxy plus a disposer (§4.7 "Contract composition").
func Bind(c *Contract, tc *typedchannel.TypedChannel[any, any], logger logging.Logger) (*Bound, error) {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	peer := &Proxy{tc: tc, logger: logger, clientRequests: c.clientRequests, clientNotifications: c.clientNotifications}
	disposer := &Disposer{}

	for method, desc := range c.serverRequests {
		if desc.Handler == nil {
			return nil, errors.Newf("contract %s: missing required handler for request %q", c.Name, method)
		}
		handler := desc.Handler
		dispose, err := typedchannel.RegisterRequest(tc, desc.Type, func(ctx context.Context, args any, id jrpc.ID, _ any) (any, error) {
			info := RequestInfo{
				RequestID: id,
				Peer:      peer,
				NewError: func(code int, message string, data any) error {
					return rpcerr.NewDomainError(code, message, data)
				},
			}
			return handler(ctx, args, info)
		})
		if err != nil {
			disposer.Dispose()
			return nil, errors.Wrapf(err, "contract %s: register request %q", c.Name, method)
		}
		disposer.Add(dispose)
	}

	for method, desc := range c.serverNotifications {
		if desc.Handler == nil {
			continue // optional: missing handler is silently dropped (§4.7)
		}
		handler := desc.Handler
		dispose, err := typedchannel.RegisterNotification(tc, desc.Type, func(args any, _ any) {
			handler(args, NotificationInfo{Peer: peer})
		})
		if err != nil {
			disposer.Dispose()
			return nil, errors.Wrapf(err, "contract %s: register notification %q", c.Name, method)
		}
		disposer.Add(dispose)
	}

	return &Bound{Peer: peer, Dispose: disposer.Dispose}, nil
}

// BindTransport creates a typed channel from t, binds c onto it, starts
// the channel, and returns both the peer proxy and the channel — the
// "convenience constructor" named in §4.7.
func BindTransport(c *Contract, t transport.Transport, logger logging.Logger) (*Bound, *typedchannel.TypedChannel[any, any], error) {
	tc := typedchannel.New[any, any](t, typedchannel.WithLogger[any, any](logger))
	bound, err := Bind(c, tc, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := tc.Start(); err != nil {
		return nil, nil, errors.Wrap(err, "contract: start typed channel")
	}
	return bound, tc, nil
}
