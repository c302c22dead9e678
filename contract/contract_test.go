package contract_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/hediet/typed-json-rpc/contract"
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

func decodeSumArgs(raw any) sumArgs {
	var out sumArgs
	b, _ := json.Marshal(raw)
	_ = json.Unmarshal(b, &out)
	return out
}

func calculatorContract() *contract.Contract {
	sumType := typedchannel.NewRequestType("calculate/sum", serializer.Any(), serializer.Any(), nil)
	return contract.New("calculator").
		WithServerRequest("calculate/sum", sumType, func(_ context.Context, args any, _ contract.RequestInfo) (any, error) {
			a := decodeSumArgs(args)
			return a.A + a.B, nil
		})
}

func TestContractBindAndCallThroughProxy(t *testing.T) {
	clientTransport, serverTransport := transport.NewOpenInMemoryPair("", "")

	serverBound, _, err := contract.BindTransport(calculatorContract(), serverTransport, nil)
	require.NoError(t, err)
	defer serverBound.Dispose()

	clientContract := contract.New("calculator-client").
		WithClientRequest("calculate/sum", typedchannel.NewRequestType("calculate/sum", serializer.Any(), serializer.Any(), nil))
	clientBound, _, err := contract.BindTransport(clientContract, clientTransport, nil)
	require.NoError(t, err)
	defer clientBound.Dispose()

	result, err := clientBound.Peer.Request(context.Background(), "calculate/sum", sumArgs{A: 4, B: 5})
	require.NoError(t, err)
	assert.JSONEq(t, "9", string(result.(json.RawMessage)))
}

func TestDisposerRemovesAllRegistrations(t *testing.T) {
	d := &contract.Disposer{}
	var order []int
	d.Add(func() { order = append(order, 1) })
	d.Add(func() { order = append(order, 2) })
	d.Dispose()
	assert.Equal(t, []int{2, 1}, order)
}
