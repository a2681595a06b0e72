package nodeexec

import (
	"context"
	"log"

	"github.com/chatflow-io/chatflow/engine"
	"github.com/chatflow-io/chatflow/flow"
)

// SendMediaHandler envía imagen, video, documento o audio y avanza
type SendMediaHandler struct {
	gateway engine.MessagingGateway
}

var _ engine.NodeHandler = (*SendMediaHandler)(nil)

func NewSendMediaHandler(gateway engine.MessagingGateway) *SendMediaHandler {
	return &SendMediaHandler{gateway: gateway}
}

func (h *SendMediaHandler) Execute(ctx context.Context, node *flow.Node, session *engine.Session) (*engine.Outcome, error) {
	config, err := flow.ExtractSendMediaConfig(node.Config)
	if err != nil {
		return nil, engine.ErrInvalidNodeConfig().WithCause(err)
	}

	vars := session.Data.Variables
	config.MediaURL = engine.ReplaceVariables(config.MediaURL, vars)
	config.Caption = engine.ReplaceVariables(config.Caption, vars)

	if err := h.gateway.SendMedia(ctx, session.PhoneNumber, config); err != nil {
		log.Printf("❌ send_media to %s failed: %v", session.PhoneNumber, err)
	} else {
		session.RecordOutbound()
	}

	return engine.Advance(flow.HandleDefault), nil
}

func (h *SendMediaHandler) SupportsType(nodeType flow.NodeType) bool {
	return nodeType == flow.NodeTypeSendMedia
}
