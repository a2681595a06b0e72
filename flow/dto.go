package flow

import (
	"github.com/Abraxas-365/craftable/storex"
	"github.com/chatflow-io/chatflow/pkg/kernel"
)

// ============================================================================
// Flow DTOs
// ============================================================================

type CreateFlowRequest struct {
	Name            string      `json:"name" validate:"required,min=2"`
	Description     string      `json:"description,omitempty"`
	TriggerType     TriggerType `json:"trigger_type" validate:"required"`
	TriggerKeywords []string    `json:"trigger_keywords,omitempty"`
	Priority        int         `json:"priority,omitempty"`
}

type UpdateFlowRequest struct {
	Name            *string      `json:"name,omitempty"`
	Description     *string      `json:"description,omitempty"`
	TriggerType     *TriggerType `json:"trigger_type,omitempty"`
	TriggerKeywords *[]string    `json:"trigger_keywords,omitempty"`
	Priority        *int         `json:"priority,omitempty"`
}

type FlowListRequest struct {
	storex.PaginationOptions
	Status      *FlowStatus  `json:"status,omitempty"`
	TriggerType *TriggerType `json:"trigger_type,omitempty"`
	Search      string       `json:"search,omitempty"`
}

func (flr FlowListRequest) GetOffset() int {
	return (flr.Page - 1) * flr.PageSize
}

type FlowListResponse = storex.Paginated[Flow]

// FlowGraphResponse el flujo completo con sus nodos y conexiones
type FlowGraphResponse struct {
	Flow        Flow          `json:"flow"`
	Nodes       []*Node       `json:"nodes"`
	Connections []*Connection `json:"connections"`
}

// ============================================================================
// Node DTOs
// ============================================================================

type CreateNodeRequest struct {
	Name       string         `json:"name" validate:"required"`
	Type       NodeType       `json:"node_type" validate:"required"`
	Config     map[string]any `json:"config,omitempty"`
	PositionX  float64        `json:"position_x,omitempty"`
	PositionY  float64        `json:"position_y,omitempty"`
	OrderIndex int            `json:"order_index,omitempty"`
}

type UpdateNodeRequest struct {
	Name       *string         `json:"name,omitempty"`
	Config     *map[string]any `json:"config,omitempty"`
	PositionX  *float64        `json:"position_x,omitempty"`
	PositionY  *float64        `json:"position_y,omitempty"`
	OrderIndex *int            `json:"order_index,omitempty"`
	IsActive   *bool           `json:"is_active,omitempty"`
}

// ============================================================================
// Connection DTOs
// ============================================================================

type CreateConnectionRequest struct {
	SourceNodeID kernel.NodeID `json:"source_node_id" validate:"required"`
	TargetNodeID kernel.NodeID `json:"target_node_id" validate:"required"`
	SourceHandle string        `json:"source_handle,omitempty"`
	Label        string        `json:"label,omitempty"`
}

// ============================================================================
// Simple DTOs
// ============================================================================

type FlowSummaryDTO struct {
	ID          kernel.FlowID `json:"id"`
	Name        string        `json:"name"`
	TriggerType TriggerType   `json:"trigger_type"`
	Status      FlowStatus    `json:"status"`
	Priority    int           `json:"priority"`
}

func (f *Flow) ToSummary() FlowSummaryDTO {
	return FlowSummaryDTO{
		ID:          f.ID,
		Name:        f.Name,
		TriggerType: f.TriggerType,
		Status:      f.Status,
		Priority:    f.Priority,
	}
}
