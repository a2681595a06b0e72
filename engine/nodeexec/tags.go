package nodeexec

import (
	"context"
	"log"

	"github.com/chatflow-io/chatflow/engine"
	"github.com/chatflow-io/chatflow/flow"
)

// AddTagHandler etiqueta al contacto y avanza
type AddTagHandler struct {
	tagger engine.ContactTagger
}

var _ engine.NodeHandler = (*AddTagHandler)(nil)

func NewAddTagHandler(tagger engine.ContactTagger) *AddTagHandler {
	return &AddTagHandler{tagger: tagger}
}

func (h *AddTagHandler) Execute(ctx context.Context, node *flow.Node, session *engine.Session) (*engine.Outcome, error) {
	config, err := flow.ExtractTagConfig(node.Config)
	if err != nil {
		return nil, engine.ErrInvalidNodeConfig().WithCause(err)
	}

	tag := engine.ReplaceVariables(config.TagName, session.Data.Variables)
	if err := h.tagger.AddTag(ctx, session.PhoneNumber, tag); err != nil {
		log.Printf("❌ add_tag %q for %s failed: %v", tag, session.PhoneNumber, err)
	}

	return engine.Advance(flow.HandleDefault), nil
}

func (h *AddTagHandler) SupportsType(nodeType flow.NodeType) bool {
	return nodeType == flow.NodeTypeAddTag
}

// RemoveTagHandler quita una etiqueta del contacto y avanza
type RemoveTagHandler struct {
	tagger engine.ContactTagger
}

var _ engine.NodeHandler = (*RemoveTagHandler)(nil)

func NewRemoveTagHandler(tagger engine.ContactTagger) *RemoveTagHandler {
	return &RemoveTagHandler{tagger: tagger}
}

func (h *RemoveTagHandler) Execute(ctx context.Context, node *flow.Node, session *engine.Session) (*engine.Outcome, error) {
	config, err := flow.ExtractTagConfig(node.Config)
	if err != nil {
		return nil, engine.ErrInvalidNodeConfig().WithCause(err)
	}

	tag := engine.ReplaceVariables(config.TagName, session.Data.Variables)
	if err := h.tagger.RemoveTag(ctx, session.PhoneNumber, tag); err != nil {
		log.Printf("❌ remove_tag %q for %s failed: %v", tag, session.PhoneNumber, err)
	}

	return engine.Advance(flow.HandleDefault), nil
}

func (h *RemoveTagHandler) SupportsType(nodeType flow.NodeType) bool {
	return nodeType == flow.NodeTypeRemoveTag
}
