// Package reflection implements the built-in reflector contract (§4.8):
// a peer can ask which protocol version this library speaks and list the
// dispatch table of a typed channel, with type descriptions produced by
// reflecting Go types into JSON Schema the way the example corpus uses
// invopop/jsonschema for tool/parameter descriptions.
package reflection

import (
	"context"
	"reflect"

	"github.com/invopop/jsonschema"

	"github.com/hediet/typed-json-rpc/contract"
	"github.com/hediet/typed-json-rpc/serializer"
	"github.com/hediet/typed-json-rpc/typedchannel"
)

// SupportedVersions is the response shape for reflector/supported-versions.
type SupportedVersions struct {
	Versions []int `json:"versions"`
}

// RegisteredType describes one entry in a typed channel's dispatch table.
type RegisteredType struct {
	Kind       string             `json:"kind"` // "request" or "notification"
	Method     string             `json:"method"`
	ParamsType *jsonschema.Schema `json:"paramsType"`
	ResultType *jsonschema.Schema `json:"resultType,omitempty"`
	ErrorType  *jsonschema.Schema `json:"errorType,omitempty"`
}

// ListRegisteredTypesResult is the response shape for
// reflector/v1/list-registered-request-and-notification-types.
type ListRegisteredTypesResult struct {
	Types []RegisteredType `json:"types"`
}

// SchemaFor reflects v's Go type into a JSON Schema document, the way
// the example corpus's schema.Generate does for tool parameter types.
func SchemaFor(v any) *jsonschema.Schema {
	if v == nil {
		return nil
	}
	reflector := &jsonschema.Reflector{AllowAdditionalProperties: false, DoNotReference: true}
	return reflector.Reflect(v)
}

// SchemaForType is SchemaFor applied to the zero value of t, for callers
// that only have a reflect.Type (e.g. a descriptor's declared params type).
func SchemaForType(t reflect.Type) *jsonschema.Schema {
	if t == nil {
		return nil
	}
	return SchemaFor(reflect.New(t).Elem().Interface())
}

// Registry is whatever can enumerate the request/notification descriptors
// a typed channel carries; implemented by a small adapter the caller
// builds alongside its dispatch-table registrations, since the dispatch
// table itself is private to package typedchannel.
type Registry interface {
	RegisteredTypes() []RegisteredType
}

// Contract builds the reflector contract (§4.8) over a Registry snapshot
// of whatever dispatch table the caller wants introspectable.
func Contract(reg Registry) *contract.Contract {
	supportedVersionsType := typedchannel.NewRequestType("reflector/supported-versions", nil, serializer.Any(), nil)
	listTypesType := typedchannel.NewRequestType("reflector/v1/list-registered-request-and-notification-types", nil, serializer.Any(), nil)

	return contract.New("reflector", "builtin").
		WithServerRequest("reflector/supported-versions", supportedVersionsType,
			func(context.Context, any, contract.RequestInfo) (any, error) {
				return SupportedVersions{Versions: []int{1}}, nil
			}).
		WithServerRequest("reflector/v1/list-registered-request-and-notification-types", listTypesType,
			func(context.Context, any, contract.RequestInfo) (any, error) {
				return ListRegisteredTypesResult{Types: reg.RegisteredTypes()}, nil
			})
}
