// Package jrpc implements the JSON-RPC 2.0 wire message model (§3, §4.1):
// requests, notifications, responses and error objects, classified by which
// of the method/id/result/error fields are present rather than by an
// envelope discriminator, matching the protocol's actual wire shape.
package jrpc

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// Version is the only accepted "jsonrpc" field value.
const Version = "2.0"

// Standard error codes (§4.2), mirrored here for callers constructing raw
// wire errors; rpcerr owns the richer, Go-side error taxonomy built on top
// of these.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// ErrorObject is the JSON-RPC "error" member (§3).
type ErrorObject struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *ErrorObject) Error() string {
	return errors.Newf("jsonrpc error %d: %s", e.Code, e.Message).Error()
}

// Message is the union of everything that can appear on the wire: a
// request, a notification, a response carrying a result, or a response
// carrying an error. Exactly one of these shapes is populated at a time;
// Classify reports which.
type Message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *ID             `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrorObject    `json:"error,omitempty"`
}

// Kind classifies a decoded Message.
type Kind int

const (
	KindInvalid Kind = iota
	KindRequest
	KindNotification
	KindResultResponse
	KindErrorResponse
)

// Classify determines which of the four message shapes m has, per §4.1's
// presence-based dispatch rule: a method with an id is a request, a method
// without an id is a notification, an id with a result is a successful
// response, and an id with an error is a failed response.
func (m *Message) Classify() Kind {
	switch {
	case m.Method != "" && m.ID != nil:
		return KindRequest
	case m.Method != "" && m.ID == nil:
		return KindNotification
	case m.ID != nil && m.Error != nil:
		return KindErrorResponse
	case m.ID != nil:
		return KindResultResponse
	default:
		return KindInvalid
	}
}

// NewRequest builds a request message with the given id, method and
// already-encoded params.
func NewRequest(id ID, method string, params json.RawMessage) *Message {
	return &Message{JSONRPC: Version, ID: &id, Method: method, Params: params}
}

// NewNotification builds a notification message (no id).
func NewNotification(method string, params json.RawMessage) *Message {
	return &Message{JSONRPC: Version, Method: method, Params: params}
}

// NewResultResponse builds a successful response to id.
func NewResultResponse(id ID, result json.RawMessage) *Message {
	return &Message{JSONRPC: Version, ID: &id, Result: result}
}

// NewErrorResponse builds a failed response to id.
func NewErrorResponse(id ID, errObj *ErrorObject) *Message {
	return &Message{JSONRPC: Version, ID: &id, Error: errObj}
}

// Encode marshals m to its wire form.
func (m *Message) Encode() (json.RawMessage, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(err, "jrpc: encode message")
	}
	return b, nil
}

// Decode parses raw into a Message and validates the jsonrpc version tag.
func Decode(raw json.RawMessage) (*Message, error) {
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, errors.Wrap(err, "jrpc: decode message")
	}
	if m.JSONRPC != Version {
		return nil, errors.Newf("jrpc: unsupported jsonrpc version %q", m.JSONRPC)
	}
	return &m, nil
}
