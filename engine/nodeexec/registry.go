package nodeexec

import (
	"time"

	"github.com/chatflow-io/chatflow/engine"
	"github.com/chatflow-io/chatflow/flow"
)

// ============================================================================
// Handler Registry
// ============================================================================

// Registry resuelve el handler para cada tipo de nodo
type Registry struct {
	handlers []engine.NodeHandler
}

// NewRegistry registra los handlers de todos los tipos de nodo conocidos
func NewRegistry(
	gateway engine.MessagingGateway,
	tagger engine.ContactTagger,
	flowStore engine.FlowStore,
	apiCallTimeout time.Duration,
) *Registry {
	return &Registry{
		handlers: []engine.NodeHandler{
			NewStartHandler(),
			NewSendMessageHandler(gateway),
			NewSendButtonsHandler(gateway),
			NewSendListHandler(gateway),
			NewSendMediaHandler(gateway),
			NewAskQuestionHandler(gateway),
			NewDelayHandler(),
			NewConditionHandler(),
			NewSetVariableHandler(),
			NewAPICallHandler(flowStore, apiCallTimeout),
			NewAssignAgentHandler(gateway),
			NewAddTagHandler(tagger),
			NewRemoveTagHandler(tagger),
			NewEndHandler(gateway),
		},
	}
}

// Resolve busca el handler que soporta el tipo de nodo
func (r *Registry) Resolve(nodeType flow.NodeType) (engine.NodeHandler, error) {
	for _, handler := range r.handlers {
		if handler.SupportsType(nodeType) {
			return handler, nil
		}
	}
	return nil, engine.ErrUnsupportedNodeType().WithDetail("node_type", string(nodeType))
}
