package engine

import (
	"context"
	"time"

	"github.com/chatflow-io/chatflow/flow"
	"github.com/chatflow-io/chatflow/pkg/kernel"
)

// ============================================================================
// Flow Graph Store
// ============================================================================

// FlowStore vista de solo lectura del grafo de flujos para el motor
type FlowStore interface {
	// Flujos candidatos a iniciar sesiones (status active)
	FindRunnableFlows(ctx context.Context) ([]*flow.Flow, error)
	FindFlow(ctx context.Context, id kernel.FlowID) (*flow.Flow, error)

	// Navegación del grafo
	FindStartNode(ctx context.Context, flowID kernel.FlowID) (*flow.Node, error)
	FindNode(ctx context.Context, id kernel.NodeID) (*flow.Node, error)
	FindConnectionsBySource(ctx context.Context, sourceNodeID kernel.NodeID) ([]*flow.Connection, error)
}

// ============================================================================
// Session Repository
// ============================================================================

// SessionRepository persistencia de sesiones
type SessionRepository interface {
	Save(ctx context.Context, session Session) error
	FindByID(ctx context.Context, id kernel.SessionID) (*Session, error)
	Delete(ctx context.Context, id kernel.SessionID) error

	// At most one live (active/waiting_input) session per phone number.
	// Returns (nil, nil) when the phone has no live session.
	FindLiveByPhone(ctx context.Context, phoneNumber string) (*Session, error)
	ExistsByPhone(ctx context.Context, phoneNumber string) (bool, error)
	FindIdleSince(ctx context.Context, cutoff time.Time) ([]*Session, error)

	List(ctx context.Context, req SessionListRequest) (SessionListResponse, error)
	CountByStatus(ctx context.Context, status SessionStatus) (int, error)
}

// ============================================================================
// Outbound Messaging
// ============================================================================

// MessagingGateway envía mensajes salientes por el canal del contacto
type MessagingGateway interface {
	SendText(ctx context.Context, to, body string) error
	SendButtons(ctx context.Context, to string, msg flow.SendButtonsConfig) error
	SendList(ctx context.Context, to string, msg flow.SendListConfig) error
	SendMedia(ctx context.Context, to string, msg flow.SendMediaConfig) error
}

// ContactTagger administra etiquetas de contactos
type ContactTagger interface {
	AddTag(ctx context.Context, phoneNumber, tag string) error
	RemoveTag(ctx context.Context, phoneNumber, tag string) error
}

// ============================================================================
// Concurrency
// ============================================================================

// SessionLocker serializa el procesamiento de mensajes por contacto
type SessionLocker interface {
	// TryLock returns false when another worker holds the phone's lock.
	TryLock(ctx context.Context, phoneNumber string) (bool, error)
	Unlock(ctx context.Context, phoneNumber string) error
}

// ============================================================================
// Node Execution
// ============================================================================

// OutcomeKind qué debe hacer el motor después de ejecutar un nodo
type OutcomeKind string

const (
	OutcomeAdvance   OutcomeKind = "advance"   // follow the edge named by Handle
	OutcomeSuspend   OutcomeKind = "suspend"   // stop and wait for user input
	OutcomeTerminate OutcomeKind = "terminate" // session reached a terminal status
	OutcomeJump      OutcomeKind = "jump"      // continue directly at TargetNodeID
)

// Outcome resultado de ejecutar un nodo
type Outcome struct {
	Kind         OutcomeKind
	Handle       string
	TargetNodeID kernel.NodeID
	Status       SessionStatus
}

func Advance(handle string) *Outcome {
	return &Outcome{Kind: OutcomeAdvance, Handle: handle}
}

func Suspend() *Outcome {
	return &Outcome{Kind: OutcomeSuspend}
}

func Terminate(status SessionStatus) *Outcome {
	return &Outcome{Kind: OutcomeTerminate, Status: status}
}

func JumpTo(nodeID kernel.NodeID) *Outcome {
	return &Outcome{Kind: OutcomeJump, TargetNodeID: nodeID}
}

// NodeHandler ejecuta un tipo de nodo
type NodeHandler interface {
	Execute(ctx context.Context, node *flow.Node, session *Session) (*Outcome, error)
	SupportsType(nodeType flow.NodeType) bool
}

// ============================================================================
// Orchestration
// ============================================================================

// FlowExecutor recorre el grafo desde el nodo actual de la sesión
type FlowExecutor interface {
	// Execute runs the node the session is positioned on and keeps going
	// until the flow suspends or terminates.
	Execute(ctx context.Context, session *Session) error

	// Advance follows the edge named by handle (falling back to default)
	// before resuming execution. No matching edge completes the session.
	Advance(ctx context.Context, session *Session, handle string) error
}

// MessageProcessor punto de entrada de mensajes entrantes
type MessageProcessor interface {
	ProcessMessage(ctx context.Context, msg InboundMessage) error
}

// SessionManager ciclo de vida de sesiones
type SessionManager interface {
	StartFlow(ctx context.Context, flowID kernel.FlowID, phoneNumber, contactName, triggerMessage string) (*Session, error)
	EndSession(ctx context.Context, id kernel.SessionID, status SessionStatus) error
	GetSession(ctx context.Context, id kernel.SessionID) (*Session, error)
	ListSessions(ctx context.Context, req SessionListRequest) (SessionListResponse, error)
	AbandonIdleSessions(ctx context.Context, idleFor time.Duration) (int, error)
}
