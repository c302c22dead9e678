package reflection_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/hediet/typed-json-rpc/contract"
	"github.com/hediet/typed-json-rpc/reflection"
	"github.com/hediet/typed-json-rpc/serializer"
	"github.com/hediet/typed-json-rpc/transport"
	"github.com/hediet/typed-json-rpc/typedchannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sumArgs struct {
	A int `json:"a"`
	B int `json:"b"`
}

type fakeRegistry struct{}

func (fakeRegistry) RegisteredTypes() []reflection.RegisteredType {
	return []reflection.RegisteredType{
		{Kind: "request", Method: "calculate/sum", ParamsType: reflection.SchemaFor(sumArgs{})},
	}
}

func TestSchemaForReflectsStructShape(t *testing.T) {
	schema := reflection.SchemaFor(sumArgs{})
	require.NotNil(t, schema)
	assert.Equal(t, "object", schema.Type)
}

func TestReflectorContractServesSupportedVersions(t *testing.T) {
	clientTransport, serverTransport := transport.NewOpenInMemoryPair("", "")

	serverBound, _, err := contract.BindTransport(reflection.Contract(fakeRegistry{}), serverTransport, nil)
	require.NoError(t, err)
	defer serverBound.Dispose()

	clientContract := contract.New("reflector-client").
		WithClientRequest("reflector/supported-versions", typedchannel.NewRequestType("reflector/supported-versions", nil, serializer.Any(), nil))
	clientBound, _, err := contract.BindTransport(clientContract, clientTransport, nil)
	require.NoError(t, err)
	defer clientBound.Dispose()

	result, err := clientBound.Peer.Request(context.Background(), "reflector/supported-versions", nil)
	require.NoError(t, err)

	var versions reflection.SupportedVersions
	require.NoError(t, json.Unmarshal(result.(json.RawMessage), &versions))
	assert.Contains(t, versions.Versions, 1)
}
