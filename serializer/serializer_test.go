package serializer_test

import (
	"encoding/json"
	"testing"

	"github.com/hediet/typed-json-rpc/serializer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnySerializerRoundTrip(t *testing.T) {
	s := serializer.Any()
	raw, err := s.Serialize(map[string]int{"a": 1})
	require.NoError(t, err)

	var out map[string]int
	require.NoError(t, s.Deserialize(raw, &out))
	assert.Equal(t, 1, out["a"])
}

func TestEmptyObjectSerializerIgnoresInput(t *testing.T) {
	s := serializer.EmptyObject()
	raw, err := s.Serialize("whatever")
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw))
	assert.NoError(t, s.Deserialize(json.RawMessage(`{"x":1}`), nil))
}

func TestVoidNullSerializer(t *testing.T) {
	s := serializer.VoidNull()
	raw, err := s.Serialize(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `null`, string(raw))
}

func TestSchemaSerializerValidatesShape(t *testing.T) {
	schema := `{
		"type": "object",
		"properties": {"a": {"type": "number"}, "b": {"type": "number"}},
		"required": ["a", "b"],
		"additionalProperties": false
	}`
	s, err := serializer.NewSchemaSerializer(schema)
	require.NoError(t, err)

	require.NoError(t, s.Deserialize(json.RawMessage(`{"a":1,"b":2}`), nil))
	assert.Error(t, s.Deserialize(json.RawMessage(`{"a":1}`), nil))
}

func TestSchemaSerializerHonorsIgnoreUnexpectedPropertiesMarker(t *testing.T) {
	schema := `{"type": "object", "properties": {"a": {"type": "number"}}, "additionalProperties": false}`
	s, err := serializer.NewSchemaSerializer(schema)
	require.NoError(t, err)

	withExtra := serializer.WithIgnoreUnexpectedPropertiesMarker(json.RawMessage(`{"a":1,"extra":true}`))
	assert.NoError(t, s.Deserialize(withExtra, nil))
}

func TestIgnoreUnexpectedPropertiesMarkerHelpers(t *testing.T) {
	raw := json.RawMessage(`{"a":1}`)
	marked := serializer.WithIgnoreUnexpectedPropertiesMarker(raw)
	assert.True(t, serializer.HasIgnoreUnexpectedPropertiesMarker(marked))

	stripped := serializer.StripIgnoreUnexpectedPropertiesMarker(marked)
	assert.False(t, serializer.HasIgnoreUnexpectedPropertiesMarker(stripped))
}

func TestRegistryResolvesBuiltins(t *testing.T) {
	r := serializer.NewRegistry()
	s, err := r.Resolve("any", nil)
	require.NoError(t, err)
	assert.NotNil(t, s)

	_, err = r.Resolve("does-not-exist", nil)
	assert.Error(t, err)
}
