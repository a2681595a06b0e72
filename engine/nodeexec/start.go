package nodeexec

import (
	"context"

	"github.com/chatflow-io/chatflow/engine"
	"github.com/chatflow-io/chatflow/flow"
)

// StartHandler punto de entrada del flujo, no tiene efectos
type StartHandler struct{}

var _ engine.NodeHandler = (*StartHandler)(nil)

func NewStartHandler() *StartHandler {
	return &StartHandler{}
}

func (h *StartHandler) Execute(ctx context.Context, node *flow.Node, session *engine.Session) (*engine.Outcome, error) {
	return engine.Advance(flow.HandleDefault), nil
}

func (h *StartHandler) SupportsType(nodeType flow.NodeType) bool {
	return nodeType == flow.NodeTypeStart
}
