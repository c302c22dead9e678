package jrpc_test

import (
	"encoding/json"
	"testing"

	"github.com/hediet/typed-json-rpc/jrpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	id := jrpc.NewIntID(1)

	req := jrpc.NewRequest(id, "calculate/sum", json.RawMessage(`[1,2]`))
	assert.Equal(t, jrpc.KindRequest, req.Classify())

	notif := jrpc.NewNotification("calculate/progress", json.RawMessage(`{"pct":50}`))
	assert.Equal(t, jrpc.KindNotification, notif.Classify())

	ok := jrpc.NewResultResponse(id, json.RawMessage(`3`))
	assert.Equal(t, jrpc.KindResultResponse, ok.Classify())

	fail := jrpc.NewErrorResponse(id, &jrpc.ErrorObject{Code: jrpc.CodeMethodNotFound, Message: "nope"})
	assert.Equal(t, jrpc.KindErrorResponse, fail.Classify())

	assert.Equal(t, jrpc.KindInvalid, (&jrpc.Message{JSONRPC: jrpc.Version}).Classify())
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	req := jrpc.NewRequest(jrpc.NewStringID("abc"), "calculate/sum", json.RawMessage(`[1,2]`))
	raw, err := req.Encode()
	require.NoError(t, err)

	decoded, err := jrpc.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, jrpc.KindRequest, decoded.Classify())
	assert.Equal(t, "calculate/sum", decoded.Method)
	assert.Equal(t, "abc", decoded.ID.Key())
}

func TestDecodeRejectsWrongVersion(t *testing.T) {
	_, err := jrpc.Decode(json.RawMessage(`{"jsonrpc":"1.0","method":"x"}`))
	assert.Error(t, err)
}

func TestIDKeyEquivalence(t *testing.T) {
	// A numeric id and its string rendering must produce the same key, so a
	// pending-request table keyed on strings correlates responses correctly
	// regardless of which form a peer's encoder chose.
	numeric := jrpc.NewIntID(42)
	assert.Equal(t, "42", numeric.Key())

	str := jrpc.NewStringID("42")
	assert.Equal(t, "42", str.Key())
}

func TestIDJSONRoundTrip(t *testing.T) {
	var id jrpc.ID
	require.NoError(t, json.Unmarshal([]byte(`7`), &id))
	assert.Equal(t, "7", id.Key())

	b, err := json.Marshal(jrpc.NewStringID("x"))
	require.NoError(t, err)
	assert.JSONEq(t, `"x"`, string(b))
}
