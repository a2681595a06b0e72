package nodeexec

import (
	"context"
	"log"

	"github.com/chatflow-io/chatflow/engine"
	"github.com/chatflow-io/chatflow/flow"
)

// SendListHandler envía un menú de lista y espera la selección
type SendListHandler struct {
	gateway engine.MessagingGateway
}

var _ engine.NodeHandler = (*SendListHandler)(nil)

func NewSendListHandler(gateway engine.MessagingGateway) *SendListHandler {
	return &SendListHandler{gateway: gateway}
}

func (h *SendListHandler) Execute(ctx context.Context, node *flow.Node, session *engine.Session) (*engine.Outcome, error) {
	config, err := flow.ExtractSendListConfig(node.Config)
	if err != nil {
		return nil, engine.ErrInvalidNodeConfig().WithCause(err)
	}

	vars := session.Data.Variables
	config.Body = engine.ReplaceVariables(config.Body, vars)
	config.Header = engine.ReplaceVariables(config.Header, vars)
	config.Footer = engine.ReplaceVariables(config.Footer, vars)
	for i := range config.Sections {
		config.Sections[i].Title = engine.ReplaceVariables(config.Sections[i].Title, vars)
		for j := range config.Sections[i].Rows {
			row := &config.Sections[i].Rows[j]
			row.Title = engine.ReplaceVariables(row.Title, vars)
			row.Description = engine.ReplaceVariables(row.Description, vars)
		}
	}

	if err := h.gateway.SendList(ctx, session.PhoneNumber, config); err != nil {
		log.Printf("❌ send_list to %s failed: %v", session.PhoneNumber, err)
	} else {
		session.RecordOutbound()
	}

	session.WaitForInput(engine.WaitingList, "", "", "")
	return engine.Suspend(), nil
}

func (h *SendListHandler) SupportsType(nodeType flow.NodeType) bool {
	return nodeType == flow.NodeTypeSendList
}
