package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/hediet/typed-json-rpc/contract"
	"github.com/hediet/typed-json-rpc/logging"
	"github.com/hediet/typed-json-rpc/rpcerr"
	"github.com/hediet/typed-json-rpc/transport"
)

// runScenario wires an in-memory client/server pair around the calculator
// contract and drives three calls: a plain success, a call that collects
// progress notifications, and a call that raises a domain error.
func runScenario(ctx context.Context, logger logging.Logger) error {
	clientTransport, serverTransport := transport.NewOpenInMemoryPair("demo-client", "demo-server")

	serverBound, _, err := contract.BindTransport(serverCalculatorContract(), serverTransport, logger)
	if err != nil {
		return errors.Wrap(err, "demo: bind server")
	}
	defer serverBound.Dispose()

	var progressMu sync.Mutex
	var progress []float64
	clientBound, _, err := contract.BindTransport(clientCalculatorContract(func(p progressArgs) {
		progressMu.Lock()
		progress = append(progress, p.Progress)
		progressMu.Unlock()
	}), clientTransport, logger)
	if err != nil {
		return errors.Wrap(err, "demo: bind client")
	}
	defer clientBound.Dispose()

	fmt.Println("=== success ===")
	result, err := clientBound.Peer.Request(ctx, "calculate", calculateArgs{Name: "foo"})
	if err != nil {
		return errors.Wrap(err, "demo: calculate foo")
	}
	fmt.Printf("calculate(%q) = %s\n", "foo", mustUnquote(result))

	fmt.Println("=== progress ===")
	progressMu.Lock()
	progress = nil
	progressMu.Unlock()
	result, err = clientBound.Peer.Request(ctx, "calculate", calculateArgs{Name: "baz"})
	if err != nil {
		return errors.Wrap(err, "demo: calculate baz")
	}
	progressMu.Lock()
	fmt.Printf("received %d progress notifications: %v\n", len(progress), progress)
	progressMu.Unlock()
	fmt.Printf("calculate(%q) = %s\n", "baz", mustUnquote(result))

	fmt.Println("=== domain error ===")
	_, err = clientBound.Peer.Request(ctx, "calculate", calculateArgs{Name: "bar"})
	var handlingErr *rpcerr.RequestHandlingError
	if !errors.As(err, &handlingErr) {
		return errors.Newf("demo: expected a request-handling error for name=bar, got %v", err)
	}
	fmt.Printf("calculate(%q) raised code=%d message=%q\n", "bar", handlingErr.Code, handlingErr.Message)

	return nil
}

func mustUnquote(result any) string {
	raw, ok := result.(json.RawMessage)
	if !ok {
		return fmt.Sprintf("%v", result)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return string(raw)
	}
	return s
}
