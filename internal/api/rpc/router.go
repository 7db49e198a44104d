package rpc

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/auth-service/internal/api/metrics"
)

// HandlerFunc handles one command. payload is the raw JSON data of the
// request and may be empty.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) (any, error)

// Router dispatches commands by name. It is safe for concurrent use once all
// handlers are registered.
type Router struct {
	handlers map[string]HandlerFunc
	log      zerolog.Logger
}

func NewRouter(log zerolog.Logger) *Router {
	return &Router{handlers: make(map[string]HandlerFunc), log: log}
}

// Handle registers h for command, replacing any previous handler.
func (r *Router) Handle(command string, h HandlerFunc) {
	r.handlers[command] = h
}

// Commands returns the registered command names in sorted order.
func (r *Router) Commands() []string {
	cmds := make([]string, 0, len(r.handlers))
	for c := range r.handlers {
		cmds = append(cmds, c)
	}
	sort.Strings(cmds)
	return cmds
}

// Dispatch runs the handler for command. transport labels metrics and logs.
// The returned *Error is nil on success.
func (r *Router) Dispatch(ctx context.Context, transport, command string, payload json.RawMessage) (any, *Error) {
	h, ok := r.handlers[command]
	if !ok {
		metrics.RPCRequestsTotal.WithLabelValues("unknown", transport, CodeUnknownCommand).Inc()
		return nil, &Error{Code: CodeUnknownCommand, Message: "Unknown command " + command}
	}

	metrics.RPCInflightRequests.Inc()
	defer metrics.RPCInflightRequests.Dec()
	start := time.Now()

	result, err := h(ctx, payload)
	metrics.RPCRequestDuration.WithLabelValues(command).Observe(time.Since(start).Seconds())

	if err != nil {
		e, known := asError(err)
		if !known {
			r.log.Error().
				Err(err).
				Str("command", command).
				Str("transport", transport).
				Msg("unhandled error")
		} else {
			r.log.Debug().
				Str("command", command).
				Str("transport", transport).
				Str("code", e.Code).
				Msg("command failed")
		}
		metrics.RPCRequestsTotal.WithLabelValues(command, transport, e.Code).Inc()
		return nil, e
	}

	metrics.RPCRequestsTotal.WithLabelValues(command, transport, "ok").Inc()
	return result, nil
}
