package main

import (
	"fmt"

	"github.com/torosent/volley/internal/config"
	"github.com/torosent/volley/internal/httpclient"
	"github.com/torosent/volley/internal/runner"
	"github.com/torosent/volley/internal/tracing"
	"github.com/torosent/volley/internal/websocket"
)

// newExecutor selects the executor for the configured protocol. Constructor
// errors are configuration errors and abort the run before dispatch.
func newExecutor(cfg *config.Config, provider *tracing.Provider) (runner.Executor, error) {
	op := cfg.Operation()
	switch op.Protocol {
	case config.ProtocolHTTP:
		client := httpclient.NewClient(op.Timeout, cfg.Concurrency)
		exec, err := httpclient.NewExecutor(op, client, provider.ShouldPropagate())
		if err != nil {
			return nil, fmt.Errorf("http executor: %w", err)
		}
		return exec, nil
	case config.ProtocolWebSocket:
		exec, err := websocket.NewExecutor(op)
		if err != nil {
			return nil, fmt.Errorf("websocket executor: %w", err)
		}
		return exec, nil
	default:
		return nil, fmt.Errorf("unsupported protocol %q", op.Protocol)
	}
}
