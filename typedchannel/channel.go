package typedchannel

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/hediet/typed-json-rpc/channel"
	"github.com/hediet/typed-json-rpc/internal/fsmutil"
	"github.com/hediet/typed-json-rpc/jrpc"
	"github.com/hediet/typed-json-rpc/logging"
	"github.com/hediet/typed-json-rpc/rpcerr"
	"github.com/hediet/typed-json-rpc/serializer"
	"github.com/hediet/typed-json-rpc/transport"
)

const (
	stateConstructed = "constructed"
	stateStarted     = "started"
	stateClosed      = "closed"

	eventStart = "start"
	eventClose = "close"

	startWarningDelay = time.Second
)

// ErrNotStarted is returned by Request/Notify when called before Start.
var ErrNotStarted = errors.New("typedchannel: not started")

// ErrOptionalMethodNotFound is the sentinel error Request returns for a
// descriptor marked Optional, instead of a request-handling error, when the
// peer responds methodNotFound (§4.6).
var ErrOptionalMethodNotFound = errors.New("typedchannel: optional method not found on peer")

// ContextProvider builds the receive-context value for one inbound
// message. Most applications that have no use for per-message context
// pass a provider that always returns the zero value.
type ContextProvider[CIn any] func(method string, params json.RawMessage) CIn

// TypedChannel layers method-named dispatch atop a stream-based channel,
// parameterized over a receive-context type CIn and a send-context type
// COut (§4.6).
type TypedChannel[CIn, COut any] struct {
	factory *channel.Factory
	table   *dispatchTable[CIn]
	logger  logging.Logger

	contextProvider      ContextProvider[CIn]
	sendExceptionDetails bool
	ignoreUnexpected     bool

	unknown *unknownNotificationHandlers

	mu        sync.Mutex
	fsm       *fsmutil.Machine
	ch        *channel.Channel
	startedCh chan struct{}
}

// Option configures a TypedChannel at construction time.
type Option[CIn, COut any] func(*TypedChannel[CIn, COut])

// WithContextProvider sets the function used to build CIn for each
// inbound message.
func WithContextProvider[CIn, COut any](f ContextProvider[CIn]) Option[CIn, COut] {
	return func(tc *TypedChannel[CIn, COut]) { tc.contextProvider = f }
}

// WithSendExceptionDetails controls whether an unexpected handler panic's
// text is echoed to the peer (off by default, per §4.6).
func WithSendExceptionDetails[CIn, COut any](enabled bool) Option[CIn, COut] {
	return func(tc *TypedChannel[CIn, COut]) { tc.sendExceptionDetails = enabled }
}

// WithIgnoreUnexpectedProperties sets the flag propagated on the wire via
// the reserved marker property (§4.6).
func WithIgnoreUnexpectedProperties[CIn, COut any](enabled bool) Option[CIn, COut] {
	return func(tc *TypedChannel[CIn, COut]) { tc.ignoreUnexpected = enabled }
}

// WithLogger overrides the default no-op logger.
func WithLogger[CIn, COut any](logger logging.Logger) Option[CIn, COut] {
	return func(tc *TypedChannel[CIn, COut]) { tc.logger = logger }
}

// New constructs a TypedChannel over t. It must be started with Start
// before it will send or receive anything (§4.6 "Startup").
func New[CIn, COut any](t transport.Transport, opts ...Option[CIn, COut]) *TypedChannel[CIn, COut] {
	tc := &TypedChannel[CIn, COut]{
		factory:   channel.NewFactory(t, logging.GetNoopLogger()),
		table:     newDispatchTable[CIn](),
		logger:    logging.GetNoopLogger(),
		unknown:   newUnknownNotificationHandlers(),
		startedCh: make(chan struct{}),
		fsm: fsmutil.New(stateConstructed, []fsmutil.Transition{
			{Event: eventStart, From: stateConstructed, To: stateStarted},
			{Event: eventClose, From: stateConstructed, To: stateClosed},
			{Event: eventClose, From: stateStarted, To: stateClosed},
		}),
	}
	for _, opt := range opts {
		opt(tc)
	}
	if tc.logger == nil {
		tc.logger = logging.GetNoopLogger()
	}
	if tc.contextProvider == nil {
		tc.contextProvider = func(string, json.RawMessage) CIn { var zero CIn; return zero }
	}
	go tc.warnIfNotStartedSoon()
	return tc
}

func (tc *TypedChannel[CIn, COut]) warnIfNotStartedSoon() {
	timer := time.NewTimer(startWarningDelay)
	defer timer.Stop()
	select {
	case <-tc.startedCh:
	case <-timer.C:
		tc.logger.Warn("typedchannel: not started within 1s of construction; did you forget to call Start?")
	}
}

// RegisterRequest installs handler for a request descriptor, returning a
// disposer that removes the registration.
func RegisterRequest[CIn, COut any](tc *TypedChannel[CIn, COut], typ RequestType, handler RequestHandler[CIn]) (func(), error) {
	return tc.table.RegisterRequest(typ, handler)
}

// RegisterNotification installs handler for a notification descriptor.
func RegisterNotification[CIn, COut any](tc *TypedChannel[CIn, COut], typ NotificationType, handler NotificationHandler[CIn]) (func(), error) {
	return tc.table.RegisterNotification(typ, handler)
}

// Start installs the underlying channel's listener and begins inbound
// dispatch. Calling Start twice fails.
func (tc *TypedChannel[CIn, COut]) Start() error {
	tc.mu.Lock()
	if err := tc.fsm.Fire(eventStart); err != nil {
		tc.mu.Unlock()
		return errors.Wrap(err, "typedchannel: start")
	}
	ch, err := tc.factory.Materialize(tc)
	if err != nil {
		tc.mu.Unlock()
		return errors.Wrap(err, "typedchannel: materialize channel")
	}
	tc.ch = ch
	tc.mu.Unlock()
	close(tc.startedCh)
	return nil
}

// Done returns a channel closed once Start has been called, for glue code
// that needs to await readiness.
func (tc *TypedChannel[CIn, COut]) Done() <-chan struct{} { return tc.startedCh }

func (tc *TypedChannel[CIn, COut]) channelOrErr() (*channel.Channel, error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if !tc.fsm.Is(stateStarted) {
		return nil, ErrNotStarted
	}
	return tc.ch, nil
}

// State exposes the underlying transport's connection state once Start has
// been called; before that it reports StateConnecting whatever the
// transport's state is.
func (tc *TypedChannel[CIn, COut]) State() transport.ConnectionState {
	tc.mu.Lock()
	ch := tc.ch
	tc.mu.Unlock()
	if ch == nil {
		return transport.ConnectionState{Kind: transport.StateConnecting}
	}
	return ch.State()
}

// --- outbound ---

// Request sends a typed request and returns its deserialized result.
func (tc *TypedChannel[CIn, COut]) Request(ctx context.Context, typ RequestType, args any, _ COut) (any, error) {
	ch, err := tc.channelOrErr()
	if err != nil {
		return nil, err
	}

	params, err := tc.encodeParams(typ.ParamsSerializer, args)
	if err != nil {
		return nil, err
	}

	raw, err := ch.Request(ctx, typ.Method, params)
	if err != nil {
		var errObj *jrpc.ErrorObject
		if errors.As(err, &errObj) {
			if typ.Optional && errObj.Code == rpcerr.CodeMethodNotFound {
				return nil, ErrOptionalMethodNotFound
			}
			return nil, tc.toRequestHandlingError(typ, errObj)
		}
		return nil, err
	}

	var result any
	if typ.ResultSerializer != nil {
		var out json.RawMessage
		if err := typ.ResultSerializer.Deserialize(raw, &out); err != nil {
			return nil, errors.Wrap(err, "typedchannel: deserialize result")
		}
		result = out
	}
	return result, nil
}

func (tc *TypedChannel[CIn, COut]) toRequestHandlingError(typ RequestType, errObj *jrpc.ErrorObject) error {
	var data any
	if len(errObj.Data) > 0 && typ.ErrorSerializer != nil {
		var decoded json.RawMessage
		if derr := typ.ErrorSerializer.Deserialize(errObj.Data, &decoded); derr == nil {
			data = decoded
		}
	}
	return rpcerr.NewRequestHandlingError(errObj.Code, errObj.Message, data)
}

// Notify sends a typed notification; it completes once the bytes are
// accepted by the transport.
func (tc *TypedChannel[CIn, COut]) Notify(typ NotificationType, args any, _ COut) error {
	ch, err := tc.channelOrErr()
	if err != nil {
		return err
	}
	params, err := tc.encodeParams(typ.ParamsSerializer, args)
	if err != nil {
		return err
	}
	return ch.Notify(typ.Method, params)
}

func (tc *TypedChannel[CIn, COut]) encodeParams(s serializer.Serializer, args any) (json.RawMessage, error) {
	if s == nil {
		s = serializer.Any()
	}
	params, err := s.Serialize(args)
	if err != nil {
		return nil, errors.Wrap(err, "typedchannel: serialize params")
	}
	if !isObjectArrayOrNull(params) {
		return nil, errors.Newf("typedchannel: serialized params must be an object, array or null, got %s", params)
	}
	if tc.ignoreUnexpected {
		params = serializer.WithIgnoreUnexpectedPropertiesMarker(params)
	}
	return params, nil
}

func isObjectArrayOrNull(raw json.RawMessage) bool {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch v.(type) {
	case map[string]any, []any, nil:
		return true
	default:
		return false
	}
}
