package nodeexec

import (
	"context"
	"log"
	"time"

	"github.com/chatflow-io/chatflow/engine"
	"github.com/chatflow-io/chatflow/flow"
)

const maxTypingDelay = 30 * time.Second

// SendMessageHandler envía un mensaje de texto y avanza
type SendMessageHandler struct {
	gateway engine.MessagingGateway
}

var _ engine.NodeHandler = (*SendMessageHandler)(nil)

func NewSendMessageHandler(gateway engine.MessagingGateway) *SendMessageHandler {
	return &SendMessageHandler{gateway: gateway}
}

func (h *SendMessageHandler) Execute(ctx context.Context, node *flow.Node, session *engine.Session) (*engine.Outcome, error) {
	config, err := flow.ExtractSendMessageConfig(node.Config)
	if err != nil {
		return nil, engine.ErrInvalidNodeConfig().WithCause(err)
	}

	message := engine.ReplaceVariables(config.Message, session.Data.Variables)

	// Simular tipeo antes de enviar
	if config.TypingDelay > 0 {
		wait := time.Duration(config.TypingDelay) * time.Second
		if wait > maxTypingDelay {
			wait = maxTypingDelay
		}
		if err := sleepCtx(ctx, wait); err != nil {
			return nil, err
		}
	}

	if err := h.gateway.SendText(ctx, session.PhoneNumber, message); err != nil {
		// Delivery failures must not wedge the conversation
		log.Printf("❌ send_message to %s failed: %v", session.PhoneNumber, err)
	} else {
		session.RecordOutbound()
	}

	return engine.Advance(flow.HandleDefault), nil
}

func (h *SendMessageHandler) SupportsType(nodeType flow.NodeType) bool {
	return nodeType == flow.NodeTypeSendMessage
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
