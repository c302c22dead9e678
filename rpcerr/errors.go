package rpcerr

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
)

// Base sentinel errors for errors.Is checks, in the teacher's mcperror
// style. The constructors in this package do not mark them onto the errors
// they build.
var (
	ErrMethodNotFound = errors.New("method not found")
	ErrInvalidParams  = errors.New("invalid params")
	ErrInvalidRequest = errors.New("invalid request")
	ErrProtocolViolation = errors.New("protocol violation: response has neither result nor error")
	ErrChannelNotStarted = errors.New("typed channel must be started")
	ErrChannelClosed     = errors.New("channel closed")
)

// WithDetails stamps category, code, and free-form properties onto err as
// safe detail strings, mirroring the teacher's mcperror.ErrorWithDetails.
// Retrieval is via Category/Properties below, which scan
// errors.GetAllDetails; the stamped code has no accessor of its own, and
// Properties leaves it out.
func WithDetails(err error, category string, code int, details map[string]any) error {
	err = errors.WithDetail(err, fmt.Sprintf("category:%s", category))
	err = errors.WithDetail(err, fmt.Sprintf("code:%d", code))
	for k, v := range details {
		err = errors.WithDetail(err, fmt.Sprintf("%s:%v", k, v))
	}
	return err
}

// Category extracts the category stamped by WithDetails, or "" if none.
func Category(err error) string {
	for _, d := range errors.GetAllDetails(err) {
		if v, ok := detailValue(d, "category"); ok {
			return v
		}
	}
	return ""
}

// Properties extracts all key:value detail strings stamped by WithDetails
// (excluding "category" and "code") into a map, first-wrapper-wins.
func Properties(err error) map[string]string {
	props := make(map[string]string)
	for _, d := range errors.GetAllDetails(err) {
		key, value, ok := splitDetail(d)
		if !ok || key == "category" || key == "code" {
			continue
		}
		if _, exists := props[key]; !exists {
			props[key] = value
		}
	}
	return props
}

func detailValue(detail, key string) (string, bool) {
	k, v, ok := splitDetail(detail)
	if !ok || k != key {
		return "", false
	}
	return v, true
}

func splitDetail(detail string) (key, value string, ok bool) {
	for i := 0; i < len(detail); i++ {
		if detail[i] == ':' {
			return detail[:i], detail[i+1:], true
		}
	}
	return "", "", false
}

// RequestHandlingError is the structured error a caller observes for every
// error surfaced over the wire (§7): a domain error, a standard JSON-RPC
// error, or an unexpected-server-error sentinel. It round-trips code,
// message, and (optionally) deserialized data.
type RequestHandlingError struct {
	Code    int
	Message string
	Data    any
}

func (e *RequestHandlingError) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// NewRequestHandlingError builds a RequestHandlingError, defaulting Message
// when empty.
func NewRequestHandlingError(code int, message string, data any) *RequestHandlingError {
	if message == "" {
		message = UserFacingMessage(code)
	}
	return &RequestHandlingError{Code: code, Message: message, Data: data}
}

// IsOptionalMethodNotFound reports whether err is a RequestHandlingError
// carrying CodeMethodNotFound, the signal an optional request's caller
// uses to fall back to the "not found" sentinel (§4.6, invariant 7).
func IsOptionalMethodNotFound(err error) bool {
	var rhe *RequestHandlingError
	if errors.As(err, &rhe) {
		return rhe.Code == CodeMethodNotFound
	}
	return false
}

// DomainError is the sum-type handlers return to signal "I am returning an
// error" rather than a success value that merely looks like one (§9's
// "structural wrapped error tagging", re-architected here as a real Go sum
// type: a function returns (T, error) and an error built with
// NewDomainError IS the domain error — no runtime-branded wrapper needed).
type DomainError struct {
	Code    int
	Message string
	Data    any
}

func (e *DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return UserFacingMessage(e.EffectiveCode())
}

// EffectiveCode returns Code if set, otherwise the generic application
// error sentinel (§4.2).
func (e *DomainError) EffectiveCode() int {
	if e.Code != 0 {
		return e.Code
	}
	return CodeGenericApplicationError
}

// NewDomainError constructs a DomainError. message may be empty to use the
// default "An error was returned" wording.
func NewDomainError(code int, message string, data any) *DomainError {
	return &DomainError{Code: code, Message: message, Data: data}
}

// AsDomainError reports whether err is (or wraps) a *DomainError.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// MarshalErrorData marshals a DomainError's or RequestHandlingError's data
// field to json.RawMessage, tolerating nil.
func MarshalErrorData(data any) (json.RawMessage, error) {
	if data == nil {
		return nil, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, errors.Wrap(err, "rpcerr: failed to marshal error data")
	}
	return b, nil
}
