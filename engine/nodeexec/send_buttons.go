package nodeexec

import (
	"context"
	"log"

	"github.com/chatflow-io/chatflow/engine"
	"github.com/chatflow-io/chatflow/flow"
)

// SendButtonsHandler envía botones interactivos y espera la respuesta
type SendButtonsHandler struct {
	gateway engine.MessagingGateway
}

var _ engine.NodeHandler = (*SendButtonsHandler)(nil)

func NewSendButtonsHandler(gateway engine.MessagingGateway) *SendButtonsHandler {
	return &SendButtonsHandler{gateway: gateway}
}

func (h *SendButtonsHandler) Execute(ctx context.Context, node *flow.Node, session *engine.Session) (*engine.Outcome, error) {
	config, err := flow.ExtractSendButtonsConfig(node.Config)
	if err != nil {
		return nil, engine.ErrInvalidNodeConfig().WithCause(err)
	}

	vars := session.Data.Variables
	config.Body = engine.ReplaceVariables(config.Body, vars)
	config.Header = engine.ReplaceVariables(config.Header, vars)
	config.Footer = engine.ReplaceVariables(config.Footer, vars)
	for i := range config.Buttons {
		config.Buttons[i].Title = engine.ReplaceVariables(config.Buttons[i].Title, vars)
	}

	if err := h.gateway.SendButtons(ctx, session.PhoneNumber, config); err != nil {
		log.Printf("❌ send_buttons to %s failed: %v", session.PhoneNumber, err)
	} else {
		session.RecordOutbound()
	}

	session.WaitForInput(engine.WaitingButton, "", "", "")
	return engine.Suspend(), nil
}

func (h *SendButtonsHandler) SupportsType(nodeType flow.NodeType) bool {
	return nodeType == flow.NodeTypeSendButtons
}
