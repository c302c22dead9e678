package typedchannel

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/hediet/typed-json-rpc/jrpc"
	"github.com/hediet/typed-json-rpc/rpcerr"
	"github.com/hediet/typed-json-rpc/serializer"
)

// UnknownNotificationHandler observes notifications for methods with no
// registered handler (§4.6 "unknown notification" handler set).
type UnknownNotificationHandler func(method string, params json.RawMessage)

type unknownNotificationHandlers struct {
	mu       sync.RWMutex
	handlers map[int]UnknownNotificationHandler
	nextID   int
}

func newUnknownNotificationHandlers() *unknownNotificationHandlers {
	return &unknownNotificationHandlers{handlers: make(map[int]UnknownNotificationHandler)}
}

func (u *unknownNotificationHandlers) add(h UnknownNotificationHandler) func() {
	u.mu.Lock()
	id := u.nextID
	u.nextID++
	u.handlers[id] = h
	u.mu.Unlock()
	return func() {
		u.mu.Lock()
		delete(u.handlers, id)
		u.mu.Unlock()
	}
}

func (u *unknownNotificationHandlers) snapshot() []UnknownNotificationHandler {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make([]UnknownNotificationHandler, 0, len(u.handlers))
	for _, h := range u.handlers {
		out = append(out, h)
	}
	return out
}

// RegisterUnknownNotificationHandler installs h to observe notifications
// for any method with no registered handler.
func (tc *TypedChannel[CIn, COut]) RegisterUnknownNotificationHandler(h UnknownNotificationHandler) func() {
	return tc.unknown.add(h)
}

// HandleRequest implements channel.Handler (§4.6 "Inbound request
// handling", steps 1-5).
func (tc *TypedChannel[CIn, COut]) HandleRequest(ctx context.Context, id jrpc.ID, method string, params json.RawMessage) (json.RawMessage, error) {
	entry, ok := tc.table.lookupRequest(method)
	if !ok {
		if _, isNotif := tc.table.lookupNotification(method); isNotif {
			return nil, rpcerr.NewRequestHandlingError(rpcerr.CodeInvalidRequest, "method "+method+" is registered as a notification, not a request", nil)
		}
		return nil, rpcerr.NewRequestHandlingError(rpcerr.CodeMethodNotFound, "method not found: "+method, nil)
	}

	if tc.ignoreUnexpected {
		params = serializer.WithIgnoreUnexpectedPropertiesMarker(params)
	}

	var args any
	var decoded json.RawMessage
	if err := entry.typ.ParamsSerializer.Deserialize(params, &decoded); err != nil {
		return nil, rpcerr.NewRequestHandlingError(rpcerr.CodeInvalidParams, "invalid params", map[string]any{"errors": err.Error()})
	}
	args = decoded

	recvCtx := tc.contextProvider(method, params)

	result, err := tc.invokeRequestHandler(ctx, entry, args, id, recvCtx)
	if err != nil {
		return nil, tc.classifyHandlerError(entry.typ, err)
	}

	resultRaw, err := entry.typ.ResultSerializer.Serialize(result)
	if err != nil {
		return nil, errors.Wrap(err, "typedchannel: serialize result")
	}
	return resultRaw, nil
}

func (tc *TypedChannel[CIn, COut]) invokeRequestHandler(ctx context.Context, entry *requestEntry[CIn], args any, id jrpc.ID, recvCtx CIn) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("typedchannel: handler panicked: %v", r)
		}
	}()
	return entry.handler(ctx, args, id, recvCtx)
}

// classifyHandlerError turns a handler's returned error into a structured
// request-handling error, per §4.6 step 4/5: a *rpcerr.DomainError becomes
// a domain response via the descriptor's error serializer; a
// *rpcerr.RequestHandlingError is forwarded as-is; anything else is logged
// and reported as unexpectedServerError, optionally with exception text.
func (tc *TypedChannel[CIn, COut]) classifyHandlerError(typ RequestType, err error) error {
	var reqErr *rpcerr.RequestHandlingError
	if errors.As(err, &reqErr) {
		return reqErr
	}

	if domainErr, ok := rpcerr.AsDomainError(err); ok {
		var encoded json.RawMessage
		if typ.ErrorSerializer != nil {
			if raw, serErr := typ.ErrorSerializer.Serialize(domainErr.Data); serErr == nil {
				encoded = raw
			}
		}
		message := domainErr.Message
		if message == "" {
			message = "An error was returned"
		}
		return rpcerr.NewRequestHandlingError(domainErr.EffectiveCode(), message, encoded)
	}

	tc.logger.Warn("typedchannel: request handler failed", "method", typ.Method, "error", err)
	message := rpcerr.UserFacingMessage(rpcerr.CodeUnexpectedServerError)
	var data any
	if tc.sendExceptionDetails {
		data = err.Error()
	}
	return rpcerr.NewRequestHandlingError(rpcerr.CodeUnexpectedServerError, message, data)
}

// HandleNotification implements channel.Handler (§4.6 "Inbound
// notification handling").
func (tc *TypedChannel[CIn, COut]) HandleNotification(method string, params json.RawMessage) {
	entry, ok := tc.table.lookupNotification(method)
	if !ok {
		tc.dispatchUnknownNotification(method, params)
		return
	}

	var decoded json.RawMessage
	if err := entry.typ.ParamsSerializer.Deserialize(params, &decoded); err != nil {
		tc.logger.Warn("typedchannel: dropping notification with invalid params", "method", method, "error", err)
		return
	}

	for _, h := range entry.snapshotHandlers() {
		tc.invokeNotificationHandler(h, decoded, tc.contextProvider(method, params))
	}
}

func (tc *TypedChannel[CIn, COut]) invokeNotificationHandler(h NotificationHandler[CIn], args any, recvCtx CIn) {
	defer func() {
		if r := recover(); r != nil {
			tc.logger.Warn("typedchannel: notification handler panicked", "recovered", r)
		}
	}()
	h(args, recvCtx)
}

func (tc *TypedChannel[CIn, COut]) dispatchUnknownNotification(method string, params json.RawMessage) {
	handlers := tc.unknown.snapshot()
	if len(handlers) == 0 {
		tc.logger.Debug("typedchannel: dropping notification for unregistered method", "method", method)
		return
	}
	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					tc.logger.Warn("typedchannel: unknown-notification handler panicked", "recovered", r)
				}
			}()
			h(method, params)
		}()
	}
}
