package flow

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlow_MatchesKeyword(t *testing.T) {
	t.Parallel()

	f := &Flow{
		Name:            "Orders",
		TriggerType:     TriggerTypeKeyword,
		TriggerKeywords: []string{"Pedido", "ORDEN"},
	}

	require.True(t, f.MatchesKeyword("quiero un pedido"))
	require.True(t, f.MatchesKeyword("mi orden no llega"))
	require.False(t, f.MatchesKeyword("hola"))

	// Only keyword flows match by keyword.
	f.TriggerType = TriggerTypeDefault
	require.False(t, f.MatchesKeyword("quiero un pedido"))
}

func TestFlow_MatchesKeyword_SkipsEmptyKeywords(t *testing.T) {
	t.Parallel()

	f := &Flow{
		TriggerType:     TriggerTypeKeyword,
		TriggerKeywords: []string{"", "ayuda"},
	}

	require.False(t, f.MatchesKeyword("cualquier cosa"))
	require.True(t, f.MatchesKeyword("necesito ayuda"))
}

func TestFlow_Lifecycle(t *testing.T) {
	t.Parallel()

	f := &Flow{Name: "Test", TriggerType: TriggerTypeDefault, Status: FlowStatusDraft}
	require.False(t, f.IsRunnable())

	f.Activate()
	require.Equal(t, FlowStatusActive, f.Status)
	require.True(t, f.IsActive)
	require.True(t, f.IsRunnable())

	f.Pause()
	require.Equal(t, FlowStatusPaused, f.Status)
	require.False(t, f.IsRunnable())
}

func TestFlow_IsValid(t *testing.T) {
	t.Parallel()

	require.False(t, (&Flow{}).IsValid())
	require.False(t, (&Flow{Name: "x"}).IsValid())
	require.True(t, (&Flow{Name: "x", TriggerType: TriggerTypeKeyword}).IsValid())
}

func TestNode_IsKnownType(t *testing.T) {
	t.Parallel()

	for _, nodeType := range AllNodeTypes {
		n := &Node{Type: nodeType}
		require.True(t, n.IsKnownType(), "type %s should be known", nodeType)
	}

	require.False(t, (&Node{Type: "teleport"}).IsKnownType())
}

func TestConnection_IsValid(t *testing.T) {
	t.Parallel()

	valid := &Connection{SourceNodeID: "a", TargetNodeID: "b"}
	require.True(t, valid.IsValid())

	selfLoop := &Connection{SourceNodeID: "a", TargetNodeID: "a"}
	require.False(t, selfLoop.IsValid())

	missing := &Connection{SourceNodeID: "a"}
	require.False(t, missing.IsValid())
}
