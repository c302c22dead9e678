package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hediet/typed-json-rpc/contract"
	"github.com/hediet/typed-json-rpc/transport"
)

func TestRunScenarioSucceeds(t *testing.T) {
	require.NoError(t, runScenario(context.Background(), nil))
}

func TestCalculatorSuccessAndProgressAndDomainError(t *testing.T) {
	clientTransport, serverTransport := transport.NewOpenInMemoryPair("", "")

	serverBound, _, err := contract.BindTransport(serverCalculatorContract(), serverTransport, nil)
	require.NoError(t, err)
	defer serverBound.Dispose()

	var progress []float64
	clientBound, _, err := contract.BindTransport(clientCalculatorContract(func(p progressArgs) {
		progress = append(progress, p.Progress)
	}), clientTransport, nil)
	require.NoError(t, err)
	defer clientBound.Dispose()

	result, err := clientBound.Peer.Request(context.Background(), "calculate", calculateArgs{Name: "foo"})
	require.NoError(t, err)
	assert.Equal(t, "blafoo", mustUnquote(result))

	progress = nil
	_, err = clientBound.Peer.Request(context.Background(), "calculate", calculateArgs{Name: "baz"})
	require.NoError(t, err)
	require.Len(t, progress, 11)
	assert.InDelta(t, 0, progress[0], 0.0001)
	assert.InDelta(t, 1, progress[10], 0.0001)

	_, err = clientBound.Peer.Request(context.Background(), "calculate", calculateArgs{Name: "bar"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "`bar` is not supported.")
}
