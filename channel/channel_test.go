package channel_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/hediet/typed-json-rpc/channel"
	"github.com/hediet/typed-json-rpc/jrpc"
	"github.com/hediet/typed-json-rpc/rpcerr"
	"github.com/hediet/typed-json-rpc/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoHandler struct {
	notifications chan string
}

func (h *echoHandler) HandleRequest(_ context.Context, _ jrpc.ID, method string, params json.RawMessage) (json.RawMessage, error) {
	if method == "boom" {
		return nil, rpcerr.NewRequestHandlingError(rpcerr.CodeInvalidParams, "bad params", nil)
	}
	return params, nil
}

func (h *echoHandler) HandleNotification(method string, _ json.RawMessage) {
	if h.notifications != nil {
		h.notifications <- method
	}
}

func TestRequestResponseRoundTrip(t *testing.T) {
	clientTransport, serverTransport := transport.NewOpenInMemoryPair("", "")
	serverChan := channel.New(serverTransport, &echoHandler{}, nil)
	_ = serverChan // keep referenced

	clientChan := channel.New(clientTransport, nil, nil)

	result, err := clientChan.Request(context.Background(), "echo", json.RawMessage(`{"x":1}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":1}`, string(result))
}

func TestRequestHandlingErrorSurfaces(t *testing.T) {
	clientTransport, serverTransport := transport.NewOpenInMemoryPair("", "")
	channel.New(serverTransport, &echoHandler{}, nil)
	clientChan := channel.New(clientTransport, nil, nil)

	_, err := clientChan.Request(context.Background(), "boom", json.RawMessage(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad params")
}

func TestUnknownMethodYieldsMethodNotFound(t *testing.T) {
	clientTransport, serverTransport := transport.NewOpenInMemoryPair("", "")
	channel.New(serverTransport, nil, nil)
	clientChan := channel.New(clientTransport, nil, nil)

	_, err := clientChan.Request(context.Background(), "missing", json.RawMessage(`{}`))
	require.Error(t, err)
	var errObj *jrpc.ErrorObject
	require.ErrorAs(t, err, &errObj)
	assert.Equal(t, rpcerr.CodeMethodNotFound, errObj.Code)
}

func TestNotificationDelivered(t *testing.T) {
	notifications := make(chan string, 1)
	clientTransport, serverTransport := transport.NewOpenInMemoryPair("", "")
	channel.New(serverTransport, &echoHandler{notifications: notifications}, nil)
	clientChan := channel.New(clientTransport, nil, nil)

	require.NoError(t, clientChan.Notify("ping", json.RawMessage(`{}`)))

	select {
	case method := <-notifications:
		assert.Equal(t, "ping", method)
	case <-time.After(time.Second):
		t.Fatal("notification not delivered")
	}
}

func TestPendingRequestsFailOnTransportClose(t *testing.T) {
	clientTransport, serverTransport := transport.NewOpenInMemoryPair("", "")
	_ = serverTransport
	clientChan := channel.New(clientTransport, nil, nil)

	resultCh := make(chan error, 1)
	go func() {
		_, err := clientChan.Request(context.Background(), "never-answered", json.RawMessage(`{}`))
		resultCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, clientTransport.Close(nil))

	select {
	case err := <-resultCh:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("pending request was not failed on close")
	}
}
