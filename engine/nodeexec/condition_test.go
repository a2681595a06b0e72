package nodeexec

import (
	"context"
	"testing"

	"github.com/chatflow-io/chatflow/engine"
	"github.com/chatflow-io/chatflow/flow"
	"github.com/stretchr/testify/require"
)

func conditionNode(variable string, operator flow.ConditionOperator, value string) *flow.Node {
	return &flow.Node{
		ID:     "n-cond",
		FlowID: "f-1",
		Name:   "check",
		Type:   flow.NodeTypeCondition,
		Config: map[string]any{
			"variable": variable,
			"operator": string(operator),
			"value":    value,
		},
		IsActive: true,
	}
}

func TestConditionHandler_Operators(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		operator flow.ConditionOperator
		value    string
		variable any
		set      bool
		handle   string
	}{
		{"equals match", flow.OperatorEquals, "lima", "lima", true, flow.HandleYes},
		{"equals mismatch", flow.OperatorEquals, "lima", "cusco", true, flow.HandleNo},
		{"equals coerces numbers", flow.OperatorEquals, "30", float64(30), true, flow.HandleYes},
		{"not equals", flow.OperatorNotEquals, "lima", "cusco", true, flow.HandleYes},
		{"contains is case-insensitive", flow.OperatorContains, "LIMA", "vivo en lima", true, flow.HandleYes},
		{"not contains", flow.OperatorNotContains, "cusco", "vivo en lima", true, flow.HandleYes},
		{"greater than", flow.OperatorGreaterThan, "18", "25", true, flow.HandleYes},
		{"greater than fails on words", flow.OperatorGreaterThan, "18", "veinte", true, flow.HandleNo},
		{"less than", flow.OperatorLessThan, "100", float64(42), true, flow.HandleYes},
		{"exists with value", flow.OperatorExists, "", "algo", true, flow.HandleYes},
		{"exists rejects empty string", flow.OperatorExists, "", "", true, flow.HandleNo},
		{"exists rejects unset", flow.OperatorExists, "", nil, false, flow.HandleNo},
		{"not exists on unset", flow.OperatorNotExists, "", nil, false, flow.HandleYes},
		{"unknown operator is false", flow.ConditionOperator("matches"), "x", "x", true, flow.HandleNo},
	}

	handler := NewConditionHandler()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := engine.NewSession("f-1", "n-start", "+519", "", "")
			if tt.set {
				session.SetVariable("answer", tt.variable)
			}

			outcome, err := handler.Execute(context.Background(), conditionNode("answer", tt.operator, tt.value), session)
			require.NoError(t, err)
			require.Equal(t, engine.OutcomeAdvance, outcome.Kind)
			require.Equal(t, tt.handle, outcome.Handle)
		})
	}
}
