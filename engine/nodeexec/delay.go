package nodeexec

import (
	"context"
	"time"

	"github.com/chatflow-io/chatflow/engine"
	"github.com/chatflow-io/chatflow/flow"
)

const (
	minDelay = 1 * time.Second
	maxDelay = 300 * time.Second
)

// DelayHandler pausa la ejecución unos segundos
type DelayHandler struct{}

var _ engine.NodeHandler = (*DelayHandler)(nil)

func NewDelayHandler() *DelayHandler {
	return &DelayHandler{}
}

func (h *DelayHandler) Execute(ctx context.Context, node *flow.Node, session *engine.Session) (*engine.Outcome, error) {
	config, err := flow.ExtractDelayConfig(node.Config)
	if err != nil {
		return nil, engine.ErrInvalidNodeConfig().WithCause(err)
	}

	wait := time.Duration(config.Seconds) * time.Second
	if wait < minDelay {
		wait = minDelay
	}
	if wait > maxDelay {
		wait = maxDelay
	}

	if err := sleepCtx(ctx, wait); err != nil {
		return nil, err
	}

	return engine.Advance(flow.HandleDefault), nil
}

func (h *DelayHandler) SupportsType(nodeType flow.NodeType) bool {
	return nodeType == flow.NodeTypeDelay
}
