package nodeexec

import (
	"context"
	"log"

	"github.com/chatflow-io/chatflow/engine"
	"github.com/chatflow-io/chatflow/flow"
)

// AskQuestionHandler pregunta al contacto y guarda la respuesta en una variable
type AskQuestionHandler struct {
	gateway engine.MessagingGateway
}

var _ engine.NodeHandler = (*AskQuestionHandler)(nil)

func NewAskQuestionHandler(gateway engine.MessagingGateway) *AskQuestionHandler {
	return &AskQuestionHandler{gateway: gateway}
}

func (h *AskQuestionHandler) Execute(ctx context.Context, node *flow.Node, session *engine.Session) (*engine.Outcome, error) {
	config, err := flow.ExtractAskQuestionConfig(node.Config)
	if err != nil {
		return nil, engine.ErrInvalidNodeConfig().WithCause(err)
	}

	question := engine.ReplaceVariables(config.Question, session.Data.Variables)

	if err := h.gateway.SendText(ctx, session.PhoneNumber, question); err != nil {
		log.Printf("❌ ask_question to %s failed: %v", session.PhoneNumber, err)
	} else {
		session.RecordOutbound()
	}

	session.WaitForInput(engine.WaitingText, config.VariableName, config.Validation, config.ErrorMessage)
	return engine.Suspend(), nil
}

func (h *AskQuestionHandler) SupportsType(nodeType flow.NodeType) bool {
	return nodeType == flow.NodeTypeAskQuestion
}
