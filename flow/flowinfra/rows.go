package flowinfra

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chatflow-io/chatflow/flow"
	"github.com/chatflow-io/chatflow/pkg/kernel"
	"github.com/lib/pq"
)

// ============================================================================
// Row Mapping
// ============================================================================
//
// Shared between the flow repositories and the engine's read-only flow
// store so every reader maps the schema the same way.

// FlowRow fila de chatbot_flows
type FlowRow struct {
	ID              string         `db:"id"`
	Name            string         `db:"name"`
	Description     sql.NullString `db:"description"`
	TriggerType     string         `db:"trigger_type"`
	TriggerKeywords pq.StringArray `db:"trigger_keywords"`
	Status          string         `db:"status"`
	Priority        int            `db:"priority"`
	IsActive        bool           `db:"is_active"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func ToFlowRow(f flow.Flow) *FlowRow {
	return &FlowRow{
		ID:              f.ID.String(),
		Name:            f.Name,
		Description:     sql.NullString{String: f.Description, Valid: f.Description != ""},
		TriggerType:     string(f.TriggerType),
		TriggerKeywords: pq.StringArray(f.TriggerKeywords),
		Status:          string(f.Status),
		Priority:        f.Priority,
		IsActive:        f.IsActive,
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.UpdatedAt,
	}
}

func (r *FlowRow) ToDomain() *flow.Flow {
	return &flow.Flow{
		ID:              kernel.FlowID(r.ID),
		Name:            r.Name,
		Description:     r.Description.String,
		TriggerType:     flow.TriggerType(r.TriggerType),
		TriggerKeywords: []string(r.TriggerKeywords),
		Status:          flow.FlowStatus(r.Status),
		Priority:        r.Priority,
		IsActive:        r.IsActive,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// NodeRow fila de flow_nodes
type NodeRow struct {
	ID         string          `db:"id"`
	FlowID     string          `db:"flow_id"`
	Name       string          `db:"name"`
	NodeType   string          `db:"node_type"`
	Config     json.RawMessage `db:"config"`
	PositionX  float64         `db:"position_x"`
	PositionY  float64         `db:"position_y"`
	OrderIndex int             `db:"order_index"`
	IsActive   bool            `db:"is_active"`
	CreatedAt  time.Time       `db:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at"`
}

func ToNodeRow(n flow.Node) (*NodeRow, error) {
	configJSON := []byte("{}")
	if len(n.Config) > 0 {
		var err error
		configJSON, err = json.Marshal(n.Config)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal node config: %w", err)
		}
	}

	return &NodeRow{
		ID:         n.ID.String(),
		FlowID:     n.FlowID.String(),
		Name:       n.Name,
		NodeType:   string(n.Type),
		Config:     configJSON,
		PositionX:  n.PositionX,
		PositionY:  n.PositionY,
		OrderIndex: n.OrderIndex,
		IsActive:   n.IsActive,
		CreatedAt:  n.CreatedAt,
		UpdatedAt:  n.UpdatedAt,
	}, nil
}

func (r *NodeRow) ToDomain() (*flow.Node, error) {
	var config map[string]any
	if len(r.Config) > 0 && string(r.Config) != "null" {
		if err := json.Unmarshal(r.Config, &config); err != nil {
			return nil, fmt.Errorf("failed to unmarshal node config: %w", err)
		}
	}

	return &flow.Node{
		ID:         kernel.NodeID(r.ID),
		FlowID:     kernel.FlowID(r.FlowID),
		Name:       r.Name,
		Type:       flow.NodeType(r.NodeType),
		Config:     config,
		PositionX:  r.PositionX,
		PositionY:  r.PositionY,
		OrderIndex: r.OrderIndex,
		IsActive:   r.IsActive,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}, nil
}

// ConnectionRow fila de flow_connections
type ConnectionRow struct {
	ID           string         `db:"id"`
	FlowID       string         `db:"flow_id"`
	SourceNodeID string         `db:"source_node_id"`
	TargetNodeID string         `db:"target_node_id"`
	SourceHandle string         `db:"source_handle"`
	Label        sql.NullString `db:"label"`
	IsActive     bool           `db:"is_active"`
	CreatedAt    time.Time      `db:"created_at"`
}

func ToConnectionRow(c flow.Connection) *ConnectionRow {
	return &ConnectionRow{
		ID:           c.ID.String(),
		FlowID:       c.FlowID.String(),
		SourceNodeID: c.SourceNodeID.String(),
		TargetNodeID: c.TargetNodeID.String(),
		SourceHandle: c.SourceHandle,
		Label:        sql.NullString{String: c.Label, Valid: c.Label != ""},
		IsActive:     c.IsActive,
		CreatedAt:    c.CreatedAt,
	}
}

func (r *ConnectionRow) ToDomain() *flow.Connection {
	return &flow.Connection{
		ID:           kernel.ConnectionID(r.ID),
		FlowID:       kernel.FlowID(r.FlowID),
		SourceNodeID: kernel.NodeID(r.SourceNodeID),
		TargetNodeID: kernel.NodeID(r.TargetNodeID),
		SourceHandle: r.SourceHandle,
		Label:        r.Label.String,
		IsActive:     r.IsActive,
		CreatedAt:    r.CreatedAt,
	}
}
