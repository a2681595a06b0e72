package nodeexec

import (
	"context"
	"log"

	"github.com/chatflow-io/chatflow/engine"
	"github.com/chatflow-io/chatflow/flow"
)

// AssignAgentHandler entrega la conversación a un agente humano
type AssignAgentHandler struct {
	gateway engine.MessagingGateway
}

var _ engine.NodeHandler = (*AssignAgentHandler)(nil)

func NewAssignAgentHandler(gateway engine.MessagingGateway) *AssignAgentHandler {
	return &AssignAgentHandler{gateway: gateway}
}

func (h *AssignAgentHandler) Execute(ctx context.Context, node *flow.Node, session *engine.Session) (*engine.Outcome, error) {
	config, err := flow.ExtractAssignAgentConfig(node.Config)
	if err != nil {
		return nil, engine.ErrInvalidNodeConfig().WithCause(err)
	}

	if config.Message != "" {
		message := engine.ReplaceVariables(config.Message, session.Data.Variables)
		if err := h.gateway.SendText(ctx, session.PhoneNumber, message); err != nil {
			log.Printf("❌ assign_agent message to %s failed: %v", session.PhoneNumber, err)
		} else {
			session.RecordOutbound()
		}
	}

	log.Printf("👤 Transferring %s to agent (department: %s)", session.PhoneNumber, config.Department)

	return engine.Terminate(engine.SessionStatusTransferred), nil
}

func (h *AssignAgentHandler) SupportsType(nodeType flow.NodeType) bool {
	return nodeType == flow.NodeTypeAssignAgent
}
