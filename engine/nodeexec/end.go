package nodeexec

import (
	"context"
	"log"

	"github.com/chatflow-io/chatflow/engine"
	"github.com/chatflow-io/chatflow/flow"
)

// EndHandler cierra el flujo, con mensaje de despedida opcional
type EndHandler struct {
	gateway engine.MessagingGateway
}

var _ engine.NodeHandler = (*EndHandler)(nil)

func NewEndHandler(gateway engine.MessagingGateway) *EndHandler {
	return &EndHandler{gateway: gateway}
}

func (h *EndHandler) Execute(ctx context.Context, node *flow.Node, session *engine.Session) (*engine.Outcome, error) {
	config, err := flow.ExtractEndConfig(node.Config)
	if err != nil {
		return nil, engine.ErrInvalidNodeConfig().WithCause(err)
	}

	if config.Message != "" {
		message := engine.ReplaceVariables(config.Message, session.Data.Variables)
		if err := h.gateway.SendText(ctx, session.PhoneNumber, message); err != nil {
			log.Printf("❌ end message to %s failed: %v", session.PhoneNumber, err)
		} else {
			session.RecordOutbound()
		}
	}

	return engine.Terminate(engine.SessionStatusCompleted), nil
}

func (h *EndHandler) SupportsType(nodeType flow.NodeType) bool {
	return nodeType == flow.NodeTypeEnd
}
