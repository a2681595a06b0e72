package engine

import (
	"testing"

	"github.com/chatflow-io/chatflow/flow"
	"github.com/stretchr/testify/require"
)

func TestNewSession_SeedsVariables(t *testing.T) {
	t.Parallel()

	session := NewSession("flow-1", "node-start", "+51999888777", "Ana", "hola")

	require.False(t, session.ID.IsEmpty())
	require.Equal(t, SessionStatusActive, session.Status)
	require.Equal(t, 3, session.MaxRetries)
	require.Nil(t, session.EndedAt)

	phone, _ := session.GetVariable("phone_number")
	require.Equal(t, "+51999888777", phone)
	name, _ := session.GetVariable("contact_name")
	require.Equal(t, "Ana", name)
	trigger, _ := session.GetVariable("trigger_message")
	require.Equal(t, "hola", trigger)
}

func TestSession_WaitAndResume(t *testing.T) {
	t.Parallel()

	session := NewSession("flow-1", "node-start", "+51999888777", "Ana", "hola")

	session.WaitForInput(WaitingText, "email", flow.ValidationEmail, "Dame un email válido")
	require.Equal(t, SessionStatusWaitingInput, session.Status)
	require.True(t, session.IsLive())
	require.Equal(t, WaitingText, session.Data.WaitingFor)
	require.Equal(t, "email", session.Data.WaitingVariable)
	require.Equal(t, flow.ValidationEmail, session.Data.Validation)
	require.Equal(t, "Dame un email válido", session.Data.ErrorMessage)

	session.Data.RetryCount = 2
	session.ResumeFromInput()
	require.Equal(t, SessionStatusActive, session.Status)
	require.Equal(t, WaitingNone, session.Data.WaitingFor)
	require.Empty(t, session.Data.WaitingVariable)
	require.Zero(t, session.Data.RetryCount)
}

func TestSession_TerminalStates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		finish func(*Session)
		status SessionStatus
	}{
		{"complete", (*Session).Complete, SessionStatusCompleted},
		{"abandon", (*Session).Abandon, SessionStatusAbandoned},
		{"transfer", (*Session).Transfer, SessionStatusTransferred},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := NewSession("flow-1", "node-start", "+519", "", "")
			tt.finish(session)
			require.Equal(t, tt.status, session.Status)
			require.False(t, session.IsLive())
			require.NotNil(t, session.EndedAt)
		})
	}
}

func TestSession_RecordInput(t *testing.T) {
	t.Parallel()

	session := NewSession("flow-1", "node-start", "+519", "", "")
	session.RecordInput("si quiero", "text")

	require.Equal(t, "si quiero", session.Data.LastInput)
	require.Equal(t, "text", session.Data.LastInputType)
	last, _ := session.GetVariable("last_input")
	require.Equal(t, "si quiero", last)
}

func TestSession_RecordAPIResponse(t *testing.T) {
	t.Parallel()

	session := NewSession("flow-1", "node-start", "+519", "", "")
	payload := map[string]any{"order": "A-17"}
	session.RecordAPIResponse("order_data", payload)

	require.Equal(t, payload, session.Data.APIResponses["order_data"])
	stored, ok := session.GetVariable("order_data")
	require.True(t, ok)
	require.Equal(t, payload, stored)
}

func TestInboundMessage_InputValue(t *testing.T) {
	t.Parallel()

	text := InboundMessage{Kind: InboundText, Text: "hola"}
	require.Equal(t, "hola", text.InputValue())
	require.Empty(t, text.ReplyID())
	require.False(t, text.IsInteractive())

	// Interactive replies route by option id, not title.
	button := InboundMessage{Kind: InboundButton, ButtonID: "opt_yes", ButtonTitle: "Sí"}
	require.Equal(t, "opt_yes", button.InputValue())
	require.Equal(t, "opt_yes", button.ReplyID())
	require.True(t, button.IsInteractive())

	list := InboundMessage{Kind: InboundList, ListID: "row_2", ListTitle: "Soporte"}
	require.Equal(t, "row_2", list.InputValue())
	require.Equal(t, "row_2", list.ReplyID())
	require.True(t, list.IsInteractive())
}

func TestSession_MessageCounters(t *testing.T) {
	t.Parallel()

	session := NewSession("flow-1", "node-start", "+519", "Ana", "hola")
	require.Zero(t, session.TotalMessagesSent)
	require.Zero(t, session.TotalMessagesReceived)

	session.RecordInput("hola", "text")
	session.RecordInput("si", "text")
	session.RecordOutbound()

	require.Equal(t, 2, session.TotalMessagesReceived)
	require.Equal(t, 1, session.TotalMessagesSent)
}
