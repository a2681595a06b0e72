package flowexec

import (
	"context"
	"log"

	"github.com/chatflow-io/chatflow/engine"
	"github.com/chatflow-io/chatflow/engine/nodeexec"
	"github.com/chatflow-io/chatflow/flow"
	"github.com/chatflow-io/chatflow/pkg/kernel"
)

// maxHops límite de nodos por pasada; los grafos cíclicos sin nodos de
// espera se abortan en vez de quedarse girando
const maxHops = 64

// ============================================================================
// Flow Executor
// ============================================================================

// Executor recorre el grafo nodo a nodo hasta suspender o terminar
type Executor struct {
	flowStore engine.FlowStore
	sessions  engine.SessionRepository
	registry  *nodeexec.Registry
}

var _ engine.FlowExecutor = (*Executor)(nil)

func New(flowStore engine.FlowStore, sessions engine.SessionRepository, registry *nodeexec.Registry) *Executor {
	return &Executor{
		flowStore: flowStore,
		sessions:  sessions,
		registry:  registry,
	}
}

// Execute ejecuta el nodo actual de la sesión y avanza hasta que el
// flujo suspenda, termine o se quede sin aristas.
func (e *Executor) Execute(ctx context.Context, session *engine.Session) error {
	return e.run(ctx, session, session.CurrentNodeID)
}

// Advance sigue la arista indicada desde el nodo actual antes de
// retomar la ejecución. Sin arista que seguir, la sesión se completa.
func (e *Executor) Advance(ctx context.Context, session *engine.Session, handle string) error {
	next, err := e.resolveNext(ctx, session.CurrentNodeID, handle)
	if err != nil {
		return err
	}
	if next == nil {
		return e.finish(ctx, session, engine.SessionStatusCompleted)
	}
	return e.run(ctx, session, next.ID)
}

func (e *Executor) run(ctx context.Context, session *engine.Session, nodeID kernel.NodeID) error {
	current := nodeID

	for hops := 0; ; hops++ {
		if hops >= maxHops {
			log.Printf("❌ Session %s exceeded %d hops, abandoning", session.ID, maxHops)
			if err := e.finish(ctx, session, engine.SessionStatusAbandoned); err != nil {
				return err
			}
			return engine.ErrHopLimitExceeded().WithDetail("session_id", session.ID.String())
		}

		node, err := e.flowStore.FindNode(ctx, current)
		if err != nil {
			return err
		}

		session.MoveTo(node.ID)

		handler, err := e.registry.Resolve(node.Type)
		if err != nil {
			// Tipos desconocidos no bloquean la conversación
			log.Printf("⚠️ No handler for node type %q, skipping", node.Type)
			next, nerr := e.resolveNext(ctx, node.ID, flow.HandleDefault)
			if nerr != nil {
				return nerr
			}
			if next == nil {
				return e.finish(ctx, session, engine.SessionStatusCompleted)
			}
			current = next.ID
			continue
		}

		log.Printf("⚡ Executing node %s (%s) for session %s", node.Name, node.Type, session.ID)

		outcome, err := handler.Execute(ctx, node, session)
		if err != nil {
			log.Printf("❌ Node %s failed: %v", node.Name, err)
			if ferr := e.finish(ctx, session, engine.SessionStatusAbandoned); ferr != nil {
				return ferr
			}
			return engine.ErrNodeExecutionFailed().WithCause(err)
		}

		switch outcome.Kind {
		case engine.OutcomeSuspend:
			log.Printf("⏸️ Session %s waiting for input at node %s", session.ID, node.Name)
			return e.sessions.Save(ctx, *session)

		case engine.OutcomeTerminate:
			return e.finish(ctx, session, outcome.Status)

		case engine.OutcomeJump:
			current = outcome.TargetNodeID

		case engine.OutcomeAdvance:
			next, err := e.resolveNext(ctx, node.ID, outcome.Handle)
			if err != nil {
				return err
			}
			if next == nil {
				return e.finish(ctx, session, engine.SessionStatusCompleted)
			}
			current = next.ID

		default:
			return engine.ErrNodeExecutionFailed().WithDetail("reason", "unknown outcome kind")
		}
	}
}

// resolveNext busca la arista saliente por handle, con fallback a
// default; retorna nil cuando no hay siguiente nodo activo.
func (e *Executor) resolveNext(ctx context.Context, sourceID kernel.NodeID, handle string) (*flow.Node, error) {
	connections, err := e.flowStore.FindConnectionsBySource(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	conn := pickConnection(connections, handle)
	if conn == nil && handle != flow.HandleDefault {
		conn = pickConnection(connections, flow.HandleDefault)
	}
	if conn == nil {
		return nil, nil
	}

	node, err := e.flowStore.FindNode(ctx, conn.TargetNodeID)
	if err != nil {
		return nil, err
	}
	if !node.IsActive {
		return nil, nil
	}
	return node, nil
}

func pickConnection(connections []*flow.Connection, handle string) *flow.Connection {
	for _, conn := range connections {
		if conn.IsActive && conn.SourceHandle == handle {
			return conn
		}
	}
	return nil
}

func (e *Executor) finish(ctx context.Context, session *engine.Session, status engine.SessionStatus) error {
	switch status {
	case engine.SessionStatusCompleted:
		session.Complete()
		log.Printf("✅ Session %s completed", session.ID)
	case engine.SessionStatusTransferred:
		session.Transfer()
		log.Printf("👤 Session %s transferred", session.ID)
	default:
		session.Abandon()
		log.Printf("🚫 Session %s abandoned", session.ID)
	}
	return e.sessions.Save(ctx, *session)
}
