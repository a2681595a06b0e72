package engine

import (
	"time"

	"github.com/Abraxas-365/craftable/storex"
	"github.com/chatflow-io/chatflow/pkg/kernel"
)

// ============================================================================
// Session DTOs
// ============================================================================

type SessionListRequest struct {
	storex.PaginationOptions
	Status      *SessionStatus `json:"status,omitempty"`
	FlowID      *kernel.FlowID `json:"flow_id,omitempty"`
	PhoneNumber string         `json:"phone_number,omitempty"`
}

func (slr SessionListRequest) GetOffset() int {
	return (slr.Page - 1) * slr.PageSize
}

type SessionListResponse = storex.Paginated[Session]

type StartFlowRequest struct {
	FlowID      kernel.FlowID `json:"flow_id" validate:"required"`
	PhoneNumber string        `json:"phone_number" validate:"required"`
	ContactName string        `json:"contact_name,omitempty"`
}

type EndSessionRequest struct {
	Status SessionStatus `json:"status,omitempty"`
}

type SessionSummaryDTO struct {
	ID             kernel.SessionID `json:"id"`
	FlowID         kernel.FlowID    `json:"flow_id"`
	PhoneNumber    string           `json:"phone_number"`
	Status         SessionStatus    `json:"status"`
	CurrentNodeID  kernel.NodeID    `json:"current_node_id"`
	StartedAt      time.Time        `json:"started_at"`
	LastActivityAt time.Time        `json:"last_activity_at"`
}

func (s *Session) ToSummary() SessionSummaryDTO {
	return SessionSummaryDTO{
		ID:             s.ID,
		FlowID:         s.FlowID,
		PhoneNumber:    s.PhoneNumber,
		Status:         s.Status,
		CurrentNodeID:  s.CurrentNodeID,
		StartedAt:      s.StartedAt,
		LastActivityAt: s.LastActivityAt,
	}
}
