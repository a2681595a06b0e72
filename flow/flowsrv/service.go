package flowsrv

import (
	"context"
	"log"
	"time"

	"github.com/chatflow-io/chatflow/flow"
	"github.com/chatflow-io/chatflow/pkg/kernel"
	"github.com/google/uuid"
)

// ============================================================================
// Flow Service
// ============================================================================

// Service reglas de negocio sobre flujos, nodos y conexiones
type Service struct {
	flows       flow.FlowRepository
	nodes       flow.NodeRepository
	connections flow.ConnectionRepository
}

var _ flow.FlowService = (*Service)(nil)

func New(flows flow.FlowRepository, nodes flow.NodeRepository, connections flow.ConnectionRepository) *Service {
	return &Service{
		flows:       flows,
		nodes:       nodes,
		connections: connections,
	}
}

// ============================================================================
// Flows
// ============================================================================

func (s *Service) CreateFlow(ctx context.Context, req flow.CreateFlowRequest) (*flow.Flow, error) {
	exists, err := s.flows.ExistsByName(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, flow.ErrFlowAlreadyExists().WithDetail("name", req.Name)
	}

	now := time.Now()
	f := flow.Flow{
		ID:              kernel.NewFlowID(uuid.NewString()),
		Name:            req.Name,
		Description:     req.Description,
		TriggerType:     req.TriggerType,
		TriggerKeywords: req.TriggerKeywords,
		Status:          flow.FlowStatusDraft,
		Priority:        req.Priority,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if !f.IsValid() {
		return nil, flow.ErrInvalidFlow()
	}

	if err := s.flows.Save(ctx, f); err != nil {
		return nil, err
	}

	log.Printf("📦 Created flow %q (%s)", f.Name, f.ID)
	return &f, nil
}

func (s *Service) GetFlow(ctx context.Context, id kernel.FlowID) (*flow.FlowGraphResponse, error) {
	f, err := s.flows.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	nodes, err := s.nodes.FindByFlow(ctx, id)
	if err != nil {
		return nil, err
	}

	connections, err := s.connections.FindByFlow(ctx, id)
	if err != nil {
		return nil, err
	}

	return &flow.FlowGraphResponse{
		Flow:        *f,
		Nodes:       nodes,
		Connections: connections,
	}, nil
}

func (s *Service) UpdateFlow(ctx context.Context, id kernel.FlowID, req flow.UpdateFlowRequest) (*flow.Flow, error) {
	f, err := s.flows.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		f.Name = *req.Name
	}
	if req.Description != nil {
		f.Description = *req.Description
	}
	if req.TriggerType != nil {
		f.TriggerType = *req.TriggerType
	}
	if req.TriggerKeywords != nil {
		f.TriggerKeywords = *req.TriggerKeywords
	}
	if req.Priority != nil {
		f.Priority = *req.Priority
	}
	f.UpdatedAt = time.Now()

	if !f.IsValid() {
		return nil, flow.ErrInvalidFlow()
	}

	// Cambiar el trigger a default no puede romper la regla del único
	// flujo default activo
	if req.TriggerType != nil && f.TriggerType == flow.TriggerTypeDefault && f.IsRunnable() {
		if err := s.ensureSingleDefault(ctx, f); err != nil {
			return nil, err
		}
	}

	if err := s.flows.Save(ctx, *f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Service) DeleteFlow(ctx context.Context, id kernel.FlowID) error {
	// Nodos y conexiones caen por cascada
	return s.flows.Delete(ctx, id)
}

func (s *Service) ListFlows(ctx context.Context, req flow.FlowListRequest) (flow.FlowListResponse, error) {
	return s.flows.List(ctx, req)
}

// ActivateFlow publica el flujo. Requires a start node, and at most one
// active default flow can exist at a time.
func (s *Service) ActivateFlow(ctx context.Context, id kernel.FlowID) (*flow.Flow, error) {
	f, err := s.flows.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := s.nodes.FindStartNode(ctx, id); err != nil {
		return nil, err
	}

	if f.TriggerType == flow.TriggerTypeDefault {
		if err := s.ensureSingleDefault(ctx, f); err != nil {
			return nil, err
		}
	}

	f.Activate()
	if err := s.flows.Save(ctx, *f); err != nil {
		return nil, err
	}

	log.Printf("✅ Activated flow %q (%s)", f.Name, f.ID)
	return f, nil
}

// ensureSingleDefault rechaza un segundo flujo default corriendo a la vez
func (s *Service) ensureSingleDefault(ctx context.Context, f *flow.Flow) error {
	others, err := s.flows.FindByTriggerType(ctx, flow.TriggerTypeDefault)
	if err != nil {
		return err
	}
	for _, other := range others {
		if other.ID != f.ID && other.IsRunnable() {
			return flow.ErrDuplicateDefault().WithDetail("conflicting_flow_id", other.ID.String())
		}
	}
	return nil
}

func (s *Service) PauseFlow(ctx context.Context, id kernel.FlowID) (*flow.Flow, error) {
	f, err := s.flows.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	f.Pause()
	if err := s.flows.Save(ctx, *f); err != nil {
		return nil, err
	}

	log.Printf("⏸️ Paused flow %q (%s)", f.Name, f.ID)
	return f, nil
}

// ============================================================================
// Nodes
// ============================================================================

func (s *Service) AddNode(ctx context.Context, flowID kernel.FlowID, req flow.CreateNodeRequest) (*flow.Node, error) {
	if _, err := s.flows.FindByID(ctx, flowID); err != nil {
		return nil, err
	}

	now := time.Now()
	n := flow.Node{
		ID:         kernel.NewNodeID(uuid.NewString()),
		FlowID:     flowID,
		Name:       req.Name,
		Type:       req.Type,
		Config:     req.Config,
		PositionX:  req.PositionX,
		PositionY:  req.PositionY,
		OrderIndex: req.OrderIndex,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if !n.IsValid() {
		return nil, flow.ErrInvalidNode()
	}
	if !n.IsKnownType() {
		return nil, flow.ErrUnknownNodeType().WithDetail("node_type", string(n.Type))
	}

	// Un solo nodo start por flujo
	if n.Type == flow.NodeTypeStart {
		count, err := s.nodes.CountByType(ctx, flowID, flow.NodeTypeStart)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, flow.ErrDuplicateStart().WithDetail("flow_id", flowID.String())
		}
	}

	if err := s.nodes.Save(ctx, n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *Service) UpdateNode(ctx context.Context, nodeID kernel.NodeID, req flow.UpdateNodeRequest) (*flow.Node, error) {
	n, err := s.nodes.FindByID(ctx, nodeID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		n.Name = *req.Name
	}
	if req.Config != nil {
		n.Config = *req.Config
	}
	if req.PositionX != nil {
		n.PositionX = *req.PositionX
	}
	if req.PositionY != nil {
		n.PositionY = *req.PositionY
	}
	if req.OrderIndex != nil {
		n.OrderIndex = *req.OrderIndex
	}
	if req.IsActive != nil {
		n.IsActive = *req.IsActive
	}
	n.UpdatedAt = time.Now()

	if err := s.nodes.Save(ctx, *n); err != nil {
		return nil, err
	}
	return n, nil
}

// RemoveNode borra un nodo del grafo. El nodo start se reemplaza
// desactivándolo, nunca se borra.
func (s *Service) RemoveNode(ctx context.Context, nodeID kernel.NodeID) error {
	n, err := s.nodes.FindByID(ctx, nodeID)
	if err != nil {
		return err
	}
	if n.Type == flow.NodeTypeStart {
		return flow.ErrStartNodeProtected().WithDetail("node_id", nodeID.String())
	}
	return s.nodes.Delete(ctx, nodeID)
}

// ============================================================================
// Connections
// ============================================================================

func (s *Service) AddConnection(ctx context.Context, flowID kernel.FlowID, req flow.CreateConnectionRequest) (*flow.Connection, error) {
	source, err := s.nodes.FindByID(ctx, req.SourceNodeID)
	if err != nil {
		return nil, err
	}
	target, err := s.nodes.FindByID(ctx, req.TargetNodeID)
	if err != nil {
		return nil, err
	}
	if source.FlowID != flowID || target.FlowID != flowID {
		return nil, flow.ErrInvalidConnection().WithDetail("reason", "nodes belong to another flow")
	}

	handle := req.SourceHandle
	if handle == "" {
		handle = flow.HandleDefault
	}

	c := flow.Connection{
		ID:           kernel.NewConnectionID(uuid.NewString()),
		FlowID:       flowID,
		SourceNodeID: req.SourceNodeID,
		TargetNodeID: req.TargetNodeID,
		SourceHandle: handle,
		Label:        req.Label,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}

	if !c.IsValid() {
		return nil, flow.ErrInvalidConnection()
	}

	// Cada (nodo, handle) tiene a lo sumo una arista activa
	exists, err := s.connections.ExistsBySourceAndHandle(ctx, req.SourceNodeID, handle)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, flow.ErrDuplicateHandle().
			WithDetail("source_node_id", req.SourceNodeID.String()).
			WithDetail("handle", handle)
	}

	if err := s.connections.Save(ctx, c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Service) RemoveConnection(ctx context.Context, connectionID kernel.ConnectionID) error {
	return s.connections.Delete(ctx, connectionID)
}
