package msgprocessor

import (
	"context"
	"testing"
	"time"

	"github.com/Abraxas-365/craftable/errx"
	"github.com/chatflow-io/chatflow/engine"
	"github.com/chatflow-io/chatflow/engine/enginetest"
	"github.com/chatflow-io/chatflow/engine/flowexec"
	"github.com/chatflow-io/chatflow/engine/flowmatcher"
	"github.com/chatflow-io/chatflow/engine/nodeexec"
	"github.com/chatflow-io/chatflow/flow"
	"github.com/chatflow-io/chatflow/pkg/kernel"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *enginetest.MemoryFlowStore
	sessions *enginetest.MemorySessionRepository
	gateway  *enginetest.RecorderGateway
	locker   *enginetest.MemoryLocker
	proc     *Processor
}

func newFixture() *fixture {
	store := enginetest.NewMemoryFlowStore()
	sessions := enginetest.NewMemorySessionRepository()
	gateway := enginetest.NewRecorderGateway()
	locker := enginetest.NewMemoryLocker()
	registry := nodeexec.NewRegistry(gateway, enginetest.NewRecorderTagger(), store, 5*time.Second)
	executor := flowexec.New(store, sessions, registry)
	matcher := flowmatcher.New(store, sessions)

	return &fixture{
		store:    store,
		sessions: sessions,
		gateway:  gateway,
		locker:   locker,
		proc:     New(sessions, store, matcher, executor, gateway, locker, 3),
	}
}

func (f *fixture) addFlow(id string, trigger flow.TriggerType, priority int, keywords ...string) {
	f.store.AddFlow(&flow.Flow{
		ID:              kernel.NewFlowID(id),
		Name:            id,
		TriggerType:     trigger,
		TriggerKeywords: keywords,
		Status:          flow.FlowStatusActive,
		Priority:        priority,
		IsActive:        true,
	})
}

func (f *fixture) addNode(flowID, id string, nodeType flow.NodeType, config map[string]any) {
	f.store.AddNode(&flow.Node{
		ID:       kernel.NewNodeID(id),
		FlowID:   kernel.NewFlowID(flowID),
		Name:     id,
		Type:     nodeType,
		Config:   config,
		IsActive: true,
	})
}

func (f *fixture) connect(flowID, source, target, handle string) {
	f.store.Connect(kernel.NewFlowID(flowID), kernel.NewNodeID(source), kernel.NewNodeID(target), handle)
}

// buildQuestionFlow arma un flujo keyword: start → ask(email) → end
func (f *fixture) buildQuestionFlow() {
	f.addFlow("f-q", flow.TriggerTypeKeyword, 5, "registro")
	f.addNode("f-q", "n-start", flow.NodeTypeStart, nil)
	f.addNode("f-q", "n-ask", flow.NodeTypeAskQuestion, map[string]any{
		"question":      "¿Tu email?",
		"variable_name": "email",
		"validation":    "email",
		"error_message": "Ese email no parece válido",
	})
	f.addNode("f-q", "n-end", flow.NodeTypeEnd, map[string]any{"message": "Gracias {{email}}"})
	f.connect("f-q", "n-start", "n-ask", flow.HandleDefault)
	f.connect("f-q", "n-ask", "n-end", flow.HandleDefault)
}

func textFrom(phone, body string) engine.InboundMessage {
	return engine.InboundMessage{
		MessageID: "wamid-1",
		From:      phone,
		Kind:      engine.InboundText,
		Text:      body,
		Timestamp: time.Now(),
	}
}

func TestProcessMessage_StartsFlowAndSuspends(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.buildQuestionFlow()

	require.NoError(t, f.proc.ProcessMessage(context.Background(), textFrom("+519", "quiero mi registro")))

	session, err := f.sessions.FindLiveByPhone(context.Background(), "+519")
	require.NoError(t, err)
	require.NotNil(t, session)
	require.Equal(t, engine.SessionStatusWaitingInput, session.Status)
	require.Equal(t, "quiero mi registro", session.Data.LastInput)

	trigger, _ := session.GetVariable("trigger_message")
	require.Equal(t, "quiero mi registro", trigger)
	require.Equal(t, []string{"¿Tu email?"}, f.gateway.Texts())

	// Lock released after processing.
	require.False(t, f.locker.Locked("+519"))
}

func TestProcessMessage_ValidAnswerResumesFlow(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.buildQuestionFlow()
	ctx := context.Background()

	require.NoError(t, f.proc.ProcessMessage(ctx, textFrom("+519", "registro")))
	require.NoError(t, f.proc.ProcessMessage(ctx, textFrom("+519", "ana@example.com")))

	live, err := f.sessions.FindLiveByPhone(ctx, "+519")
	require.NoError(t, err)
	require.Nil(t, live, "session should have completed")

	require.Equal(t, []string{"¿Tu email?", "Gracias ana@example.com"}, f.gateway.Texts())
}

func TestProcessMessage_TracksMessageCounters(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.buildQuestionFlow()
	ctx := context.Background()

	require.NoError(t, f.proc.ProcessMessage(ctx, textFrom("+519", "registro")))
	waiting, err := f.sessions.FindLiveByPhone(ctx, "+519")
	require.NoError(t, err)
	require.NotNil(t, waiting)

	require.NoError(t, f.proc.ProcessMessage(ctx, textFrom("+519", "ana@example.com")))

	session, err := f.sessions.FindByID(ctx, waiting.ID)
	require.NoError(t, err)
	require.Equal(t, engine.SessionStatusCompleted, session.Status)

	// Trigger and answer in; question and farewell out.
	require.Equal(t, 2, session.TotalMessagesReceived)
	require.Equal(t, 2, session.TotalMessagesSent)
}

func TestProcessMessage_InvalidAnswerRetriesThenAbandons(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.buildQuestionFlow()
	ctx := context.Background()

	require.NoError(t, f.proc.ProcessMessage(ctx, textFrom("+519", "registro")))

	// Two invalid answers: custom error message, session keeps waiting.
	for i := 0; i < 2; i++ {
		require.NoError(t, f.proc.ProcessMessage(ctx, textFrom("+519", "no es un email")))
		session, err := f.sessions.FindLiveByPhone(ctx, "+519")
		require.NoError(t, err)
		require.NotNil(t, session)
		require.Equal(t, engine.SessionStatusWaitingInput, session.Status)
		require.Equal(t, i+1, session.Data.RetryCount)
	}
	require.Equal(t,
		[]string{"¿Tu email?", "Ese email no parece válido", "Ese email no parece válido"},
		f.gateway.Texts())

	// Third strike abandons the session.
	require.NoError(t, f.proc.ProcessMessage(ctx, textFrom("+519", "tampoco")))
	live, err := f.sessions.FindLiveByPhone(ctx, "+519")
	require.NoError(t, err)
	require.Nil(t, live)

	abandoned, err := f.sessions.CountByStatus(ctx, engine.SessionStatusAbandoned)
	require.NoError(t, err)
	require.Equal(t, 1, abandoned)
}

func TestProcessMessage_ButtonReplyRoutesByOptionID(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.addFlow("f-menu", flow.TriggerTypeKeyword, 5, "menu")
	f.addNode("f-menu", "n-start", flow.NodeTypeStart, nil)
	f.addNode("f-menu", "n-buttons", flow.NodeTypeSendButtons, map[string]any{
		"body": "¿Qué necesitas?",
		"buttons": []any{
			map[string]any{"id": "opt_sales", "title": "Ventas"},
			map[string]any{"id": "opt_support", "title": "Soporte"},
		},
	})
	f.addNode("f-menu", "n-sales", flow.NodeTypeSendMessage, map[string]any{"message": "Ventas aquí"})
	f.addNode("f-menu", "n-support", flow.NodeTypeSendMessage, map[string]any{"message": "Soporte aquí"})
	f.connect("f-menu", "n-start", "n-buttons", flow.HandleDefault)
	f.connect("f-menu", "n-buttons", "n-sales", "opt_sales")
	f.connect("f-menu", "n-buttons", "n-support", "opt_support")

	ctx := context.Background()
	require.NoError(t, f.proc.ProcessMessage(ctx, textFrom("+519", "menu")))

	session, err := f.sessions.FindLiveByPhone(ctx, "+519")
	require.NoError(t, err)
	require.NotNil(t, session)
	require.Equal(t, engine.WaitingButton, session.Data.WaitingFor)

	reply := engine.InboundMessage{
		MessageID:   "wamid-2",
		From:        "+519",
		Kind:        engine.InboundButton,
		ButtonID:    "opt_support",
		ButtonTitle: "Soporte",
		Timestamp:   time.Now(),
	}
	require.NoError(t, f.proc.ProcessMessage(ctx, reply))

	final, err := f.sessions.FindByID(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, engine.SessionStatusCompleted, final.Status)
	require.Equal(t, "opt_support", final.Data.LastInput)

	buttonID, _ := final.GetVariable("last_button_id")
	require.Equal(t, "opt_support", buttonID)
	buttonTitle, _ := final.GetVariable("last_button_title")
	require.Equal(t, "Soporte", buttonTitle)

	texts := f.gateway.Texts()
	require.Contains(t, texts, "Soporte aquí")
	require.NotContains(t, texts, "Ventas aquí")
}

func TestProcessMessage_NoMatchingFlowIsSilentlyIgnored(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.addFlow("f-orders", flow.TriggerTypeKeyword, 5, "pedido")

	require.NoError(t, f.proc.ProcessMessage(context.Background(), textFrom("+519", "hola")))

	live, err := f.sessions.FindLiveByPhone(context.Background(), "+519")
	require.NoError(t, err)
	require.Nil(t, live)
	require.Empty(t, f.gateway.Texts())
}

func TestProcessMessage_LockedContactIsRejected(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.buildQuestionFlow()

	ctx := context.Background()
	acquired, err := f.locker.TryLock(ctx, "+519")
	require.NoError(t, err)
	require.True(t, acquired)

	err = f.proc.ProcessMessage(ctx, textFrom("+519", "registro"))
	require.Error(t, err)
	require.True(t, errx.IsType(err, errx.TypeConflict))
}

func TestProcessMessage_OneLiveSessionPerPhone(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.buildQuestionFlow()
	ctx := context.Background()

	require.NoError(t, f.proc.ProcessMessage(ctx, textFrom("+519", "registro")))
	// A second trigger while waiting is treated as the answer, not a new session.
	require.NoError(t, f.proc.ProcessMessage(ctx, textFrom("+519", "registro")))

	waiting, err := f.sessions.CountByStatus(ctx, engine.SessionStatusWaitingInput)
	require.NoError(t, err)
	require.Equal(t, 1, waiting)
}

func TestProcessMessage_WelcomeFlowForFirstContactOnly(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.addFlow("f-welcome", flow.TriggerTypeWelcome, 0)
	f.addNode("f-welcome", "n-start", flow.NodeTypeStart, nil)
	f.addNode("f-welcome", "n-hi", flow.NodeTypeSendMessage, map[string]any{"message": "¡Bienvenido!"})
	f.connect("f-welcome", "n-start", "n-hi", flow.HandleDefault)

	ctx := context.Background()
	require.NoError(t, f.proc.ProcessMessage(ctx, textFrom("+519", "hola")))
	require.Equal(t, []string{"¡Bienvenido!"}, f.gateway.Texts())

	// The contact now has history; without a default flow nothing matches.
	require.NoError(t, f.proc.ProcessMessage(ctx, textFrom("+519", "hola de nuevo")))
	require.Equal(t, []string{"¡Bienvenido!"}, f.gateway.Texts())
}
