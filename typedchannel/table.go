package typedchannel

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/hediet/typed-json-rpc/jrpc"
)

// RequestHandler handles one request method. recvCtx is whatever the
// enclosing TypedChannel's context provider produced for this inbound
// message (§4.6's C_in).
type RequestHandler[CIn any] func(ctx context.Context, args any, requestID jrpc.ID, recvCtx CIn) (any, error)

// NotificationHandler handles one notification method.
type NotificationHandler[CIn any] func(args any, recvCtx CIn)

type requestEntry[CIn any] struct {
	typ     RequestType
	handler RequestHandler[CIn]
}

type notificationEntry[CIn any] struct {
	typ      NotificationType
	handlers map[int]NotificationHandler[CIn]
	nextID   int
}

// dispatchTable is the method-name keyed registry (§4.6 "Dispatch
// table"): each key is either a single request handler or a set of
// notification handlers, never both.
type dispatchTable[CIn any] struct {
	mu            sync.RWMutex
	requests      map[string]*requestEntry[CIn]
	notifications map[string]*notificationEntry[CIn]
}

func newDispatchTable[CIn any]() *dispatchTable[CIn] {
	return &dispatchTable[CIn]{
		requests:      make(map[string]*requestEntry[CIn]),
		notifications: make(map[string]*notificationEntry[CIn]),
	}
}

// RegisterRequest installs the handler for a request descriptor.
// Duplicate registration of the same method fails (§4.6).
func (d *dispatchTable[CIn]) RegisterRequest(typ RequestType, handler RequestHandler[CIn]) (func(), error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.requests[typ.Method]; ok {
		return nil, errors.Newf("typedchannel: request method %q already registered", typ.Method)
	}
	if _, ok := d.notifications[typ.Method]; ok {
		return nil, errors.Newf("typedchannel: method %q already registered as a notification", typ.Method)
	}
	d.requests[typ.Method] = &requestEntry[CIn]{typ: typ, handler: handler}
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.requests, typ.Method)
	}, nil
}

// RegisterNotification adds handler to the set for typ.Method, creating
// the set if needed. Re-registering the same descriptor for a method
// already claimed by a request fails, and so does re-registering a
// conflicting descriptor (different serializer) for a method already
// claimed by another notification descriptor (§3, §4.6).
func (d *dispatchTable[CIn]) RegisterNotification(typ NotificationType, handler NotificationHandler[CIn]) (func(), error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.requests[typ.Method]; ok {
		return nil, errors.Newf("typedchannel: method %q already registered as a request", typ.Method)
	}
	entry, ok := d.notifications[typ.Method]
	if !ok {
		entry = &notificationEntry[CIn]{typ: typ, handlers: make(map[int]NotificationHandler[CIn])}
		d.notifications[typ.Method] = entry
	} else if entry.typ != typ {
		return nil, errors.Newf("typedchannel: notification method %q already registered with a conflicting descriptor", typ.Method)
	}
	id := entry.nextID
	entry.nextID++
	entry.handlers[id] = handler
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if e, ok := d.notifications[typ.Method]; ok {
			delete(e.handlers, id)
			// An emptied set still blocks a later request registration of
			// the same name (§4.6); we leave the entry in place.
		}
	}, nil
}

func (d *dispatchTable[CIn]) lookupRequest(method string) (*requestEntry[CIn], bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.requests[method]
	return e, ok
}

func (d *dispatchTable[CIn]) lookupNotification(method string) (*notificationEntry[CIn], bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.notifications[method]
	return e, ok
}

// snapshotHandlers copies the current handler set for sequential,
// lock-free invocation (§4.6 "each registered handler... invoked
// sequentially").
func (e *notificationEntry[CIn]) snapshotHandlers() []NotificationHandler[CIn] {
	out := make([]NotificationHandler[CIn], 0, len(e.handlers))
	for _, h := range e.handlers {
		out = append(out, h)
	}
	return out
}
