// Package serializer implements the pluggable serializer contract consumed
// by the typed channel (§4.4): convert a Go value to wire JSON and back,
// reporting deserialization failures as plain messages rather than panics.
package serializer

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// Serializer converts between a Go value and wire JSON for one logical
// type. Deserialize reports failures through the returned error rather
// than panicking, so a typed channel can turn them into invalidParams
// responses (§4.6 step 3).
type Serializer interface {
	Serialize(v any) (json.RawMessage, error)
	Deserialize(raw json.RawMessage, out any) error
}

// anySerializer is the identity serializer: it passes JSON through
// unexamined, for descriptors that don't need structure on either side.
type anySerializer struct{}

// Any is the identity serializer named in §4.4.
func Any() Serializer { return anySerializer{} }

func (anySerializer) Serialize(v any) (json.RawMessage, error) {
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "serializer: any: marshal")
	}
	return b, nil
}

func (anySerializer) Deserialize(raw json.RawMessage, out any) error {
	if out == nil {
		return nil
	}
	if ptr, ok := out.(*json.RawMessage); ok {
		*ptr = raw
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrap(err, "serializer: any: unmarshal")
	}
	return nil
}

// emptyObjectSerializer accepts any JSON on deserialize and always
// serializes to "{}", for descriptors whose params/result carry no data.
type emptyObjectSerializer struct{}

// EmptyObject is the "accepts anything, always emits {}" serializer named
// in §4.4, used for trivial params/result types.
func EmptyObject() Serializer { return emptyObjectSerializer{} }

func (emptyObjectSerializer) Serialize(any) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func (emptyObjectSerializer) Deserialize(json.RawMessage, any) error { return nil }

// voidNullSerializer maps a Go nil/struct{}{} to JSON null and back, for
// void-returning descriptors.
type voidNullSerializer struct{}

// VoidNull is the void<->null serializer named in §4.4.
func VoidNull() Serializer { return voidNullSerializer{} }

func (voidNullSerializer) Serialize(any) (json.RawMessage, error) {
	return json.RawMessage(`null`), nil
}

func (voidNullSerializer) Deserialize(json.RawMessage, any) error { return nil }
