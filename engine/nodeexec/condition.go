package nodeexec

import (
	"context"
	"strconv"
	"strings"

	"github.com/chatflow-io/chatflow/engine"
	"github.com/chatflow-io/chatflow/flow"
)

// ConditionHandler bifurca el flujo por los handles yes/no
type ConditionHandler struct{}

var _ engine.NodeHandler = (*ConditionHandler)(nil)

func NewConditionHandler() *ConditionHandler {
	return &ConditionHandler{}
}

func (h *ConditionHandler) Execute(ctx context.Context, node *flow.Node, session *engine.Session) (*engine.Outcome, error) {
	config, err := flow.ExtractConditionConfig(node.Config)
	if err != nil {
		return nil, engine.ErrInvalidNodeConfig().WithCause(err)
	}

	value, exists := session.GetVariable(config.Variable)
	met := h.evaluate(config, value, exists)

	if met {
		return engine.Advance(flow.HandleYes), nil
	}
	return engine.Advance(flow.HandleNo), nil
}

func (h *ConditionHandler) evaluate(config flow.ConditionConfig, value any, exists bool) bool {
	actual := engine.ValueToString(value)
	expected := config.Value

	switch config.Operator {
	case flow.OperatorEquals:
		return actual == expected
	case flow.OperatorNotEquals:
		return actual != expected
	case flow.OperatorContains:
		return strings.Contains(strings.ToLower(actual), strings.ToLower(expected))
	case flow.OperatorNotContains:
		return !strings.Contains(strings.ToLower(actual), strings.ToLower(expected))
	case flow.OperatorGreaterThan:
		a, errA := strconv.ParseFloat(strings.TrimSpace(actual), 64)
		b, errB := strconv.ParseFloat(strings.TrimSpace(expected), 64)
		return errA == nil && errB == nil && a > b
	case flow.OperatorLessThan:
		a, errA := strconv.ParseFloat(strings.TrimSpace(actual), 64)
		b, errB := strconv.ParseFloat(strings.TrimSpace(expected), 64)
		return errA == nil && errB == nil && a < b
	case flow.OperatorExists:
		return exists && value != nil && actual != ""
	case flow.OperatorNotExists:
		return !exists || value == nil || actual == ""
	default:
		return false
	}
}

func (h *ConditionHandler) SupportsType(nodeType flow.NodeType) bool {
	return nodeType == flow.NodeTypeCondition
}
