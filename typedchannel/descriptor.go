// Package typedchannel layers typed, method-named dispatch on top of a
// stream-based channel (§4.6): a dispatch table keyed by method name,
// request/notification descriptors carrying serializers for params,
// result and error, a start lifecycle, and context remapping.
package typedchannel

import (
	"github.com/hediet/typed-json-rpc/serializer"
)

// RequestType describes a single request method: its name, the
// serializers for its params/result/error shapes, and whether a
// methodNotFound response should surface as a sentinel value instead of
// an error (§4.6 "optional request variant").
type RequestType struct {
	Method           string
	ParamsSerializer serializer.Serializer
	ResultSerializer serializer.Serializer
	ErrorSerializer  serializer.Serializer
	Optional         bool
}

// NotificationType describes a single notification method.
type NotificationType struct {
	Method           string
	ParamsSerializer serializer.Serializer
}

func defaultIfNil(s, fallback serializer.Serializer) serializer.Serializer {
	if s == nil {
		return fallback
	}
	return s
}

// NewRequestType builds a RequestType, defaulting a nil params serializer
// to the empty-object serializer and nil result/error serializers to the
// void<->null serializer (§6).
func NewRequestType(method string, params, result, errType serializer.Serializer) RequestType {
	return RequestType{
		Method:           method,
		ParamsSerializer: defaultIfNil(params, serializer.EmptyObject()),
		ResultSerializer: defaultIfNil(result, serializer.VoidNull()),
		ErrorSerializer:  defaultIfNil(errType, serializer.VoidNull()),
	}
}

// AsOptional returns a copy of rt marked optional (§4.6).
func (rt RequestType) AsOptional() RequestType {
	rt.Optional = true
	return rt
}

// NewNotificationType builds a NotificationType, defaulting a nil params
// serializer to the empty-object serializer (§6).
func NewNotificationType(method string, params serializer.Serializer) NotificationType {
	return NotificationType{Method: method, ParamsSerializer: defaultIfNil(params, serializer.EmptyObject())}
}

// WithMethod returns a copy of rt with Method set, for descriptors
// constructed without a name and keyed into a contract's map (§4.7).
func (rt RequestType) WithMethod(method string) RequestType {
	rt.Method = method
	return rt
}

// WithMethod returns a copy of nt with Method set.
func (nt NotificationType) WithMethod(method string) NotificationType {
	nt.Method = method
	return nt
}
