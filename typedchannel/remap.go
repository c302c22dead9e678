package typedchannel

import (
	"context"

	"github.com/hediet/typed-json-rpc/jrpc"
)

// ContextMapper converts a context value from one type to another,
// possibly failing (e.g. looking up a session from an id).
type ContextMapper[From, To any] func(ctx context.Context, from From) (To, error)

// Remapped exposes a TypedChannel under a different receive/send context
// type pair, applying user-supplied conversion functions on each
// direction (§4.6 "Context remapping"). Registrations made through a
// Remapped value are forwarded to the underlying channel by applying the
// inverse mapping to the handler's received context.
type Remapped[CIn, COut, CIn2, COut2 any] struct {
	inner  *TypedChannel[CIn, COut]
	mapIn  ContextMapper[CIn, CIn2]
	mapOut ContextMapper[COut2, COut]
}

// Remap wraps inner so registrations and sends operate in terms of CIn2
// and COut2 instead of inner's native CIn and COut.
func Remap[CIn, COut, CIn2, COut2 any](
	inner *TypedChannel[CIn, COut],
	mapIn ContextMapper[CIn, CIn2],
	mapOut ContextMapper[COut2, COut],
) *Remapped[CIn, COut, CIn2, COut2] {
	return &Remapped[CIn, COut, CIn2, COut2]{inner: inner, mapIn: mapIn, mapOut: mapOut}
}

// RegisterRequest forwards registration to the wrapped channel, converting
// the inner CIn to CIn2 on every invocation via mapIn.
func (r *Remapped[CIn, COut, CIn2, COut2]) RegisterRequest(typ RequestType, handler RequestHandler[CIn2]) (func(), error) {
	return RegisterRequest(r.inner, typ, func(ctx context.Context, args any, id jrpc.ID, recvCtx CIn) (any, error) {
		mapped, err := r.mapIn(ctx, recvCtx)
		if err != nil {
			return nil, err
		}
		return handler(ctx, args, id, mapped)
	})
}

// RegisterNotification forwards registration to the wrapped channel,
// converting the inner CIn to CIn2 on every invocation via mapIn.
func (r *Remapped[CIn, COut, CIn2, COut2]) RegisterNotification(typ NotificationType, handler NotificationHandler[CIn2]) (func(), error) {
	return RegisterNotification(r.inner, typ, func(args any, recvCtx CIn) {
		mapped, err := r.mapIn(context.Background(), recvCtx)
		if err != nil {
			return
		}
		handler(args, mapped)
	})
}

// Request sends typ through the wrapped channel, converting sendCtx from
// COut2 down to COut via mapOut.
func (r *Remapped[CIn, COut, CIn2, COut2]) Request(ctx context.Context, typ RequestType, args any, sendCtx COut2) (any, error) {
	mapped, err := r.mapOut(ctx, sendCtx)
	if err != nil {
		return nil, err
	}
	return r.inner.Request(ctx, typ, args, mapped)
}

// Notify sends typ as a notification through the wrapped channel.
func (r *Remapped[CIn, COut, CIn2, COut2]) Notify(typ NotificationType, args any, sendCtx COut2) error {
	mapped, err := r.mapOut(context.Background(), sendCtx)
	if err != nil {
		return err
	}
	return r.inner.Notify(typ, args, mapped)
}
