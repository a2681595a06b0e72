package nodeexec

import (
	"context"

	"github.com/chatflow-io/chatflow/engine"
	"github.com/chatflow-io/chatflow/flow"
)

// SetVariableHandler guarda una variable de conversación y avanza
type SetVariableHandler struct{}

var _ engine.NodeHandler = (*SetVariableHandler)(nil)

func NewSetVariableHandler() *SetVariableHandler {
	return &SetVariableHandler{}
}

func (h *SetVariableHandler) Execute(ctx context.Context, node *flow.Node, session *engine.Session) (*engine.Outcome, error) {
	config, err := flow.ExtractSetVariableConfig(node.Config)
	if err != nil {
		return nil, engine.ErrInvalidNodeConfig().WithCause(err)
	}

	// El valor puede referenciar otras variables
	value := engine.ReplaceVariables(config.Value, session.Data.Variables)
	session.SetVariable(config.VariableName, value)

	return engine.Advance(flow.HandleDefault), nil
}

func (h *SetVariableHandler) SupportsType(nodeType flow.NodeType) bool {
	return nodeType == flow.NodeTypeSetVariable
}
