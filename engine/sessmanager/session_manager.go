package sessmanager

import (
	"context"
	"log"
	"time"

	"github.com/chatflow-io/chatflow/engine"
	"github.com/chatflow-io/chatflow/flow"
	"github.com/chatflow-io/chatflow/pkg/kernel"
)

// ============================================================================
// Session Manager
// ============================================================================

// Manager ciclo de vida de sesiones: arranque manual, cierre y limpieza
type Manager struct {
	sessions   engine.SessionRepository
	flowStore  engine.FlowStore
	executor   engine.FlowExecutor
	maxRetries int
}

var _ engine.SessionManager = (*Manager)(nil)

func New(sessions engine.SessionRepository, flowStore engine.FlowStore, executor engine.FlowExecutor, maxRetries int) *Manager {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Manager{
		sessions:   sessions,
		flowStore:  flowStore,
		executor:   executor,
		maxRetries: maxRetries,
	}
}

// StartFlow arranca un flujo manualmente para un contacto. Cualquier
// sesión viva del contacto se abandona primero.
func (m *Manager) StartFlow(ctx context.Context, flowID kernel.FlowID, phoneNumber, contactName, triggerMessage string) (*engine.Session, error) {
	f, err := m.flowStore.FindFlow(ctx, flowID)
	if err != nil {
		return nil, err
	}
	if !f.IsRunnable() {
		return nil, flow.ErrFlowNotRunnable().WithDetail("flow_id", flowID.String())
	}

	if live, err := m.sessions.FindLiveByPhone(ctx, phoneNumber); err == nil && live != nil {
		log.Printf("🚫 Abandoning live session %s for %s before manual start", live.ID, phoneNumber)
		live.Abandon()
		if err := m.sessions.Save(ctx, *live); err != nil {
			return nil, err
		}
	}

	startNode, err := m.flowStore.FindStartNode(ctx, flowID)
	if err != nil {
		return nil, err
	}

	session := engine.NewSession(flowID, startNode.ID, phoneNumber, contactName, triggerMessage)
	session.MaxRetries = m.maxRetries
	session.Data.LastInput = triggerMessage
	session.Data.LastInputType = "manual"

	if err := m.sessions.Save(ctx, *session); err != nil {
		return nil, err
	}

	log.Printf("🚀 Started flow %q for %s (session %s)", f.Name, phoneNumber, session.ID)

	if err := m.executor.Execute(ctx, session); err != nil {
		return session, err
	}
	return session, nil
}

// EndSession cierra una sesión con el estado indicado
func (m *Manager) EndSession(ctx context.Context, id kernel.SessionID, status engine.SessionStatus) error {
	session, err := m.sessions.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !session.IsLive() {
		return engine.ErrSessionNotLive().WithDetail("session_id", id.String())
	}

	switch status {
	case engine.SessionStatusTransferred:
		session.Transfer()
	case engine.SessionStatusAbandoned:
		session.Abandon()
	default:
		session.Complete()
	}

	return m.sessions.Save(ctx, *session)
}

// GetSession obtiene una sesión por ID
func (m *Manager) GetSession(ctx context.Context, id kernel.SessionID) (*engine.Session, error) {
	return m.sessions.FindByID(ctx, id)
}

// ListSessions lista sesiones con paginación
func (m *Manager) ListSessions(ctx context.Context, req engine.SessionListRequest) (engine.SessionListResponse, error) {
	return m.sessions.List(ctx, req)
}

// AbandonIdleSessions abandona sesiones vivas sin actividad reciente.
// Returns how many sessions were closed.
func (m *Manager) AbandonIdleSessions(ctx context.Context, idleFor time.Duration) (int, error) {
	cutoff := time.Now().Add(-idleFor)

	idle, err := m.sessions.FindIdleSince(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, session := range idle {
		if !session.IsLive() {
			continue
		}
		session.Abandon()
		if err := m.sessions.Save(ctx, *session); err != nil {
			log.Printf("❌ Failed to abandon idle session %s: %v", session.ID, err)
			continue
		}
		closed++
	}

	if closed > 0 {
		log.Printf("🧹 Abandoned %d idle sessions", closed)
	}
	return closed, nil
}
