package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hediet/typed-json-rpc/contract"
	"github.com/hediet/typed-json-rpc/serializer"
	"github.com/hediet/typed-json-rpc/typedchannel"
)

// calculateArgs is the params shape for the "calculate" request: a name to
// greet, exercised end-to-end by the demo's scenario runner.
type calculateArgs struct {
	Name string `json:"name"`
}

// progressArgs is the params shape for the "progress" notification the
// server side sends to the peer while a calculate request is in flight.
type progressArgs struct {
	Progress float64 `json:"progress"`
}

func decodeArgs[T any](raw any) (T, error) {
	var out T
	b, err := json.Marshal(raw)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, err
	}
	return out, nil
}

// serverCalculatorContract is the side that implements "calculate" and
// calls "progress" on whichever peer is connected.
func serverCalculatorContract() *contract.Contract {
	calculateType := typedchannel.NewRequestType("calculate", serializer.Any(), serializer.Any(), nil)
	progressType := typedchannel.NewNotificationType("progress", serializer.Any())

	return contract.New("calculator", "server").
		WithClientNotification("progress", progressType).
		WithServerRequest("calculate", calculateType, func(_ context.Context, rawArgs any, info contract.RequestInfo) (any, error) {
			args, err := decodeArgs[calculateArgs](rawArgs)
			if err != nil {
				return nil, err
			}

			if args.Name == "bar" {
				return nil, info.NewError(0, fmt.Sprintf("`%s` is not supported.", args.Name), nil)
			}

			for i := 0; i <= 10; i++ {
				if notifyErr := info.Peer.Notify("progress", progressArgs{Progress: float64(i) / 10}); notifyErr != nil {
					return nil, notifyErr
				}
			}

			return "bla" + args.Name, nil
		})
}

// clientCalculatorContract is the side that calls "calculate" and receives
// "progress" notifications, invoking onProgress for each one.
func clientCalculatorContract(onProgress func(progressArgs)) *contract.Contract {
	calculateType := typedchannel.NewRequestType("calculate", serializer.Any(), serializer.Any(), nil)
	progressType := typedchannel.NewNotificationType("progress", serializer.Any())

	return contract.New("calculator", "client").
		WithClientRequest("calculate", calculateType).
		WithServerNotification("progress", progressType, func(rawArgs any, _ contract.NotificationInfo) {
			args, err := decodeArgs[progressArgs](rawArgs)
			if err != nil {
				return
			}
			onProgress(args)
		})
}
