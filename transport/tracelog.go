package transport

import "github.com/hediet/typed-json-rpc/logging"

// traceLoggingTransport decorates a Transport to log every inbound and
// outbound message without modifying it (§7's "stream-logger wrapper"),
// implemented here as a Transport decorator rather than baked into the
// channel.
type traceLoggingTransport struct {
	Transport
	logger logging.Logger
}

// WithTraceLogging wraps inner so every Send and every delivered inbound
// message is logged at debug level.
func WithTraceLogging(inner Transport, logger logging.Logger) Transport {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	return &traceLoggingTransport{Transport: inner, logger: logger.WithField("component", "transport-trace")}
}

func (t *traceLoggingTransport) Send(message Message) error {
	t.logger.Debug("-> send", "transport", t.Transport.Name(), "message", string(message))
	return t.Transport.Send(message)
}

func (t *traceLoggingTransport) SetListener(f Listener) {
	t.Transport.SetListener(func(msg Message) {
		t.logger.Debug("<- recv", "transport", t.Transport.Name(), "message", string(msg))
		f(msg)
	})
}
