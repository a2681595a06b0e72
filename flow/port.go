package flow

import (
	"context"

	"github.com/chatflow-io/chatflow/pkg/kernel"
)

// ============================================================================
// Repository Interfaces
// ============================================================================

// FlowRepository persistencia de flujos
type FlowRepository interface {
	// CRUD básico
	Save(ctx context.Context, f Flow) error
	FindByID(ctx context.Context, id kernel.FlowID) (*Flow, error)
	Delete(ctx context.Context, id kernel.FlowID) error
	ExistsByName(ctx context.Context, name string) (bool, error)

	// Búsquedas
	FindRunnable(ctx context.Context) ([]*Flow, error)
	FindByTriggerType(ctx context.Context, triggerType TriggerType) ([]*Flow, error)

	// List con paginación
	List(ctx context.Context, req FlowListRequest) (FlowListResponse, error)
}

// NodeRepository persistencia de nodos
type NodeRepository interface {
	Save(ctx context.Context, n Node) error
	FindByID(ctx context.Context, id kernel.NodeID) (*Node, error)
	Delete(ctx context.Context, id kernel.NodeID) error

	FindByFlow(ctx context.Context, flowID kernel.FlowID) ([]*Node, error)
	FindStartNode(ctx context.Context, flowID kernel.FlowID) (*Node, error)
	CountByType(ctx context.Context, flowID kernel.FlowID, nodeType NodeType) (int, error)
}

// ConnectionRepository persistencia de conexiones
type ConnectionRepository interface {
	Save(ctx context.Context, c Connection) error
	FindByID(ctx context.Context, id kernel.ConnectionID) (*Connection, error)
	Delete(ctx context.Context, id kernel.ConnectionID) error

	FindByFlow(ctx context.Context, flowID kernel.FlowID) ([]*Connection, error)
	FindBySource(ctx context.Context, sourceNodeID kernel.NodeID) ([]*Connection, error)
	ExistsBySourceAndHandle(ctx context.Context, sourceNodeID kernel.NodeID, handle string) (bool, error)
}

// ============================================================================
// Service Interface
// ============================================================================

// FlowService operaciones de gestión de flujos con reglas de negocio
type FlowService interface {
	CreateFlow(ctx context.Context, req CreateFlowRequest) (*Flow, error)
	GetFlow(ctx context.Context, id kernel.FlowID) (*FlowGraphResponse, error)
	UpdateFlow(ctx context.Context, id kernel.FlowID, req UpdateFlowRequest) (*Flow, error)
	DeleteFlow(ctx context.Context, id kernel.FlowID) error
	ListFlows(ctx context.Context, req FlowListRequest) (FlowListResponse, error)

	ActivateFlow(ctx context.Context, id kernel.FlowID) (*Flow, error)
	PauseFlow(ctx context.Context, id kernel.FlowID) (*Flow, error)

	AddNode(ctx context.Context, flowID kernel.FlowID, req CreateNodeRequest) (*Node, error)
	UpdateNode(ctx context.Context, nodeID kernel.NodeID, req UpdateNodeRequest) (*Node, error)
	RemoveNode(ctx context.Context, nodeID kernel.NodeID) error

	AddConnection(ctx context.Context, flowID kernel.FlowID, req CreateConnectionRequest) (*Connection, error)
	RemoveConnection(ctx context.Context, connectionID kernel.ConnectionID) error
}
