package transport

import (
	"github.com/cockroachdb/errors"
	"github.com/hediet/typed-json-rpc/rpcerr"
)

// ErrClosed is marked onto errors produced by operating on a closed
// transport, mirroring the teacher's transport.NewClosedError family.
var ErrClosed = errors.New("transport closed")

// NewClosedError builds a category-tagged closed-transport error for the
// named operation (e.g. "send").
func NewClosedError(transportName, op string) error {
	err := errors.Newf("transport %s: %s on closed transport", transportName, op)
	err = errors.Mark(err, ErrClosed)
	return rpcerr.WithDetails(err, rpcerr.CategoryTransport, rpcerr.CodeInternalError, map[string]any{
		"transport": transportName,
		"op":        op,
	})
}
