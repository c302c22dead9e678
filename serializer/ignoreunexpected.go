package serializer

import (
	"encoding/json"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// IgnoreUnexpectedPropertiesMarker is the reserved property name a typed
// channel sets on outbound params, and looks for on inbound params, to
// propagate its ignore-unexpected-properties flag to the peer's
// deserializer (§4.6). Using gjson/sjson here avoids a full
// unmarshal/marshal round trip just to stamp one property on an opaque
// json.RawMessage.
const IgnoreUnexpectedPropertiesMarker = "$ignoreUnexpectedProperties"

// WithIgnoreUnexpectedPropertiesMarker returns params with the marker
// property set to true, leaving the rest of the document untouched. If
// params isn't a JSON object, it is returned unchanged — the marker only
// applies to object-shaped params.
func WithIgnoreUnexpectedPropertiesMarker(params json.RawMessage) json.RawMessage {
	if !gjson.ValidBytes(params) || !gjson.GetBytes(params, "@this").IsObject() {
		return params
	}
	out, err := sjson.SetBytes(params, IgnoreUnexpectedPropertiesMarker, true)
	if err != nil {
		return params
	}
	return out
}

// HasIgnoreUnexpectedPropertiesMarker reports whether params carries the
// marker property set to true.
func HasIgnoreUnexpectedPropertiesMarker(params json.RawMessage) bool {
	if !gjson.ValidBytes(params) {
		return false
	}
	return gjson.GetBytes(params, IgnoreUnexpectedPropertiesMarker).Bool()
}

// StripIgnoreUnexpectedPropertiesMarker removes the marker property,
// for handlers that deserialize params into a strict struct and would
// otherwise trip over the extra field themselves.
func StripIgnoreUnexpectedPropertiesMarker(params json.RawMessage) json.RawMessage {
	if !gjson.ValidBytes(params) || !gjson.GetBytes(params, IgnoreUnexpectedPropertiesMarker).Exists() {
		return params
	}
	out, err := sjson.DeleteBytes(params, IgnoreUnexpectedPropertiesMarker)
	if err != nil {
		return params
	}
	return out
}
