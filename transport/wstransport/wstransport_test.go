package wstransport_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hediet/typed-json-rpc/transport"
	"github.com/hediet/typed-json-rpc/transport/wstransport"
)

func TestUpgradeAndRoundTrip(t *testing.T) {
	connected := make(chan *wstransport.Transport, 1)
	router := wstransport.NewRouter("/ws", nil, func(tr *wstransport.Transport) {
		connected <- tr
	})
	server := httptest.NewServer(router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	clientConn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer clientConn.Close()

	var serverSide *wstransport.Transport
	select {
	case serverSide = <-connected:
	case <-time.After(time.Second):
		t.Fatal("server never accepted connection")
	}

	received := make(chan transport.Message, 1)
	serverSide.SetListener(func(msg transport.Message) { received <- msg })

	require.NoError(t, clientConn.WriteMessage(websocket.TextMessage, []byte(`{"jsonrpc":"2.0","method":"ping"}`)))

	select {
	case msg := <-received:
		assert.Contains(t, string(msg), "ping")
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
}
