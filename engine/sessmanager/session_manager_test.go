package sessmanager

import (
	"context"
	"testing"
	"time"

	"github.com/Abraxas-365/craftable/errx"
	"github.com/chatflow-io/chatflow/engine"
	"github.com/chatflow-io/chatflow/engine/enginetest"
	"github.com/chatflow-io/chatflow/engine/flowexec"
	"github.com/chatflow-io/chatflow/engine/nodeexec"
	"github.com/chatflow-io/chatflow/flow"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *enginetest.MemoryFlowStore
	sessions *enginetest.MemorySessionRepository
	gateway  *enginetest.RecorderGateway
	manager  *Manager
}

func newFixture() *fixture {
	store := enginetest.NewMemoryFlowStore()
	sessions := enginetest.NewMemorySessionRepository()
	gateway := enginetest.NewRecorderGateway()
	registry := nodeexec.NewRegistry(gateway, enginetest.NewRecorderTagger(), store, 5*time.Second)
	executor := flowexec.New(store, sessions, registry)

	return &fixture{
		store:    store,
		sessions: sessions,
		gateway:  gateway,
		manager:  New(sessions, store, executor, 3),
	}
}

func (f *fixture) addRunnableFlow() {
	f.store.AddFlow(&flow.Flow{
		ID:          "f-1",
		Name:        "Promo",
		TriggerType: flow.TriggerTypeWebhook,
		Status:      flow.FlowStatusActive,
		IsActive:    true,
	})
	f.store.AddNode(&flow.Node{
		ID: "n-start", FlowID: "f-1", Name: "inicio",
		Type: flow.NodeTypeStart, IsActive: true,
	})
	f.store.AddNode(&flow.Node{
		ID: "n-msg", FlowID: "f-1", Name: "promo",
		Type:     flow.NodeTypeSendMessage,
		Config:   map[string]any{"message": "¡Oferta del día!"},
		IsActive: true,
	})
	f.store.Connect("f-1", "n-start", "n-msg", flow.HandleDefault)
}

func TestStartFlow_RunsFromStartNode(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.addRunnableFlow()

	session, err := f.manager.StartFlow(context.Background(), "f-1", "+519", "Ana", "")
	require.NoError(t, err)
	require.Equal(t, engine.SessionStatusCompleted, session.Status)
	require.Equal(t, "manual", session.Data.LastInputType)
	require.Equal(t, []string{"¡Oferta del día!"}, f.gateway.Texts())
}

func TestStartFlow_RejectsNonRunnableFlow(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.store.AddFlow(&flow.Flow{
		ID: "f-draft", Name: "Draft",
		TriggerType: flow.TriggerTypeWebhook,
		Status:      flow.FlowStatusDraft,
		IsActive:    true,
	})

	_, err := f.manager.StartFlow(context.Background(), "f-draft", "+519", "", "")
	require.Error(t, err)
}

func TestStartFlow_AbandonsLiveSessionFirst(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.addRunnableFlow()
	ctx := context.Background()

	previous := engine.NewSession("f-1", "n-start", "+519", "", "")
	previous.WaitForInput(engine.WaitingText, "email", flow.ValidationEmail, "")
	require.NoError(t, f.sessions.Save(ctx, *previous))

	_, err := f.manager.StartFlow(ctx, "f-1", "+519", "", "")
	require.NoError(t, err)

	old, err := f.sessions.FindByID(ctx, previous.ID)
	require.NoError(t, err)
	require.Equal(t, engine.SessionStatusAbandoned, old.Status)
}

func TestEndSession_StatusMapping(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	tests := []struct {
		requested engine.SessionStatus
		want      engine.SessionStatus
	}{
		{engine.SessionStatusTransferred, engine.SessionStatusTransferred},
		{engine.SessionStatusAbandoned, engine.SessionStatusAbandoned},
		{"", engine.SessionStatusCompleted},
	}

	for _, tt := range tests {
		session := engine.NewSession("f-1", "n-start", "+519", "", "")
		require.NoError(t, f.sessions.Save(ctx, *session))

		require.NoError(t, f.manager.EndSession(ctx, session.ID, tt.requested))

		saved, err := f.sessions.FindByID(ctx, session.ID)
		require.NoError(t, err)
		require.Equal(t, tt.want, saved.Status)
	}
}

func TestEndSession_RejectsEndedSession(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	session := engine.NewSession("f-1", "n-start", "+519", "", "")
	require.NoError(t, f.sessions.Save(ctx, *session))
	require.NoError(t, f.manager.EndSession(ctx, session.ID, engine.SessionStatusCompleted))

	err := f.manager.EndSession(ctx, session.ID, engine.SessionStatusAbandoned)
	require.Error(t, err)
	require.True(t, errx.IsType(err, errx.TypeBusiness))

	// El primer cierre se conserva
	saved, err := f.sessions.FindByID(ctx, session.ID)
	require.NoError(t, err)
	require.Equal(t, engine.SessionStatusCompleted, saved.Status)
}

func TestAbandonIdleSessions(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()

	stale := engine.NewSession("f-1", "n-start", "+51911", "", "")
	stale.LastActivityAt = time.Now().Add(-2 * time.Hour)
	require.NoError(t, f.sessions.Save(ctx, *stale))

	fresh := engine.NewSession("f-1", "n-start", "+51922", "", "")
	require.NoError(t, f.sessions.Save(ctx, *fresh))

	closed, err := f.manager.AbandonIdleSessions(ctx, 30*time.Minute)
	require.NoError(t, err)
	require.Equal(t, 1, closed)

	abandoned, err := f.sessions.FindByID(ctx, stale.ID)
	require.NoError(t, err)
	require.Equal(t, engine.SessionStatusAbandoned, abandoned.Status)

	alive, err := f.sessions.FindByID(ctx, fresh.ID)
	require.NoError(t, err)
	require.True(t, alive.IsLive())
}
