package typedchannel_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/hediet/typed-json-rpc/jrpc"
	"github.com/hediet/typed-json-rpc/rpcerr"
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

func sumRequestType() typedchannel.RequestType {
	return typedchannel.NewRequestType("calculate/sum", serializer.Any(), serializer.Any(), nil)
}

func decodeSumArgs(raw any) sumArgs {
	var out sumArgs
	b, _ := json.Marshal(raw)
	_ = json.Unmarshal(b, &out)
	return out
}

func TestTypedChannelRequestRoundTrip(t *testing.T) {
	clientTransport, serverTransport := transport.NewOpenInMemoryPair("", "")

	server := typedchannel.New[struct{}, struct{}](serverTransport)
	_, err := typedchannel.RegisterRequest(server, sumRequestType(), func(_ context.Context, args any, _ jrpc.ID, _ struct{}) (any, error) {
		a := decodeSumArgs(args)
		return a.A + a.B, nil
	})
	require.NoError(t, err)
	require.NoError(t, server.Start())

	client := typedchannel.New[struct{}, struct{}](clientTransport)
	require.NoError(t, client.Start())

	result, err := client.Request(context.Background(), sumRequestType(), sumArgs{A: 2, B: 3}, struct{}{})
	require.NoError(t, err)
	assert.JSONEq(t, "5", string(result.(json.RawMessage)))
}

func TestTypedChannelUnknownMethodIsMethodNotFound(t *testing.T) {
	clientTransport, serverTransport := transport.NewOpenInMemoryPair("", "")

	server := typedchannel.New[struct{}, struct{}](serverTransport)
	require.NoError(t, server.Start())

	client := typedchannel.New[struct{}, struct{}](clientTransport)
	require.NoError(t, client.Start())

	_, err := client.Request(context.Background(), sumRequestType(), sumArgs{}, struct{}{})
	require.Error(t, err)
	var reqErr *rpcerr.RequestHandlingError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, rpcerr.CodeMethodNotFound, reqErr.Code)
}

func TestTypedChannelOptionalRequestFallsBackOnMethodNotFound(t *testing.T) {
	clientTransport, serverTransport := transport.NewOpenInMemoryPair("", "")

	server := typedchannel.New[struct{}, struct{}](serverTransport)
	require.NoError(t, server.Start())

	client := typedchannel.New[struct{}, struct{}](clientTransport)
	require.NoError(t, client.Start())

	optional := sumRequestType().AsOptional()
	_, err := client.Request(context.Background(), optional, sumArgs{}, struct{}{})
	assert.ErrorIs(t, err, typedchannel.ErrOptionalMethodNotFound)
}

func TestTypedChannelDomainErrorRoundTrips(t *testing.T) {
	clientTransport, serverTransport := transport.NewOpenInMemoryPair("", "")

	server := typedchannel.New[struct{}, struct{}](serverTransport)
	_, err := typedchannel.RegisterRequest(server, sumRequestType(), func(_ context.Context, _ any, _ jrpc.ID, _ struct{}) (any, error) {
		return nil, rpcerr.NewDomainError(1001, "negative sum not allowed", nil)
	})
	require.NoError(t, err)
	require.NoError(t, server.Start())

	client := typedchannel.New[struct{}, struct{}](clientTransport)
	require.NoError(t, client.Start())

	_, err = client.Request(context.Background(), sumRequestType(), sumArgs{A: -1, B: -1}, struct{}{})
	require.Error(t, err)
	var reqErr *rpcerr.RequestHandlingError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, 1001, reqErr.Code)
	assert.Equal(t, "negative sum not allowed", reqErr.Message)
}

func TestTypedChannelNotStartedFailsFast(t *testing.T) {
	_, serverTransport := transport.NewOpenInMemoryPair("", "")
	server := typedchannel.New[struct{}, struct{}](serverTransport)

	_, err := server.Request(context.Background(), sumRequestType(), sumArgs{}, struct{}{})
	assert.ErrorIs(t, err, typedchannel.ErrNotStarted)
}

func TestTypedChannelNotificationDelivered(t *testing.T) {
	clientTransport, serverTransport := transport.NewOpenInMemoryPair("", "")

	notifType := typedchannel.NewNotificationType("calculate/progress", serializer.Any())
	received := make(chan int, 2)

	server := typedchannel.New[struct{}, struct{}](serverTransport)
	_, err := typedchannel.RegisterNotification(server, notifType, func(args any, _ struct{}) {
		var progress struct {
			Pct int `json:"pct"`
		}
		b, _ := json.Marshal(args)
		_ = json.Unmarshal(b, &progress)
		received <- progress.Pct
	})
	require.NoError(t, err)
	require.NoError(t, server.Start())

	client := typedchannel.New[struct{}, struct{}](clientTransport)
	require.NoError(t, client.Start())

	require.NoError(t, client.Notify(notifType, map[string]int{"pct": 50}, struct{}{}))
	assert.Equal(t, 50, <-received)
}
