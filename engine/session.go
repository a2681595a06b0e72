package engine

import (
	"time"

	"github.com/chatflow-io/chatflow/flow"
	"github.com/chatflow-io/chatflow/pkg/kernel"
	"github.com/google/uuid"
)

// ============================================================================
// Session Entity
// ============================================================================

// SessionStatus estado de una sesión de conversación
type SessionStatus string

const (
	SessionStatusActive       SessionStatus = "active"
	SessionStatusWaitingInput SessionStatus = "waiting_input"
	SessionStatusCompleted    SessionStatus = "completed"
	SessionStatusAbandoned    SessionStatus = "abandoned"
	SessionStatusTransferred  SessionStatus = "transferred"
)

// WaitingKind qué tipo de respuesta espera la sesión
type WaitingKind string

const (
	WaitingNone   WaitingKind = ""
	WaitingText   WaitingKind = "text"
	WaitingButton WaitingKind = "button_reply"
	WaitingList   WaitingKind = "list_reply"
)

// SessionData estado mutable de la conversación, persistido como JSONB
type SessionData struct {
	Variables       map[string]any      `json:"variables"`
	LastInput       string              `json:"last_input,omitempty"`
	LastInputType   string              `json:"last_input_type,omitempty"`
	APIResponses    map[string]any      `json:"api_responses,omitempty"`
	WaitingFor      WaitingKind         `json:"waiting_for,omitempty"`
	WaitingVariable string              `json:"waiting_variable,omitempty"`
	Validation      flow.ValidationType `json:"validation,omitempty"`
	ErrorMessage    string              `json:"error_message,omitempty"`
	RetryCount      int                 `json:"retry_count,omitempty"`
}

// Session una conversación en curso entre un contacto y un flujo
type Session struct {
	ID                    kernel.SessionID `db:"id" json:"id"`
	FlowID                kernel.FlowID    `db:"flow_id" json:"flow_id"`
	PhoneNumber           string           `db:"phone_number" json:"phone_number"`
	ContactName           string           `db:"contact_name" json:"contact_name,omitempty"`
	CurrentNodeID         kernel.NodeID    `db:"current_node_id" json:"current_node_id"`
	Status                SessionStatus    `db:"status" json:"status"`
	MaxRetries            int              `db:"max_retries" json:"max_retries"`
	TotalMessagesSent     int              `db:"total_messages_sent" json:"total_messages_sent"`
	TotalMessagesReceived int              `db:"total_messages_received" json:"total_messages_received"`
	Data                  SessionData      `db:"session_data" json:"session_data"`
	StartedAt             time.Time        `db:"started_at" json:"started_at"`
	LastActivityAt        time.Time        `db:"last_activity_at" json:"last_activity_at"`
	EndedAt               *time.Time       `db:"ended_at" json:"ended_at,omitempty"`
}

// NewSession crea una sesión activa posicionada en el nodo inicial del flujo
func NewSession(flowID kernel.FlowID, startNodeID kernel.NodeID, phoneNumber, contactName, triggerMessage string) *Session {
	now := time.Now()
	return &Session{
		ID:            kernel.NewSessionID(uuid.NewString()),
		FlowID:        flowID,
		PhoneNumber:   phoneNumber,
		ContactName:   contactName,
		CurrentNodeID: startNodeID,
		Status:        SessionStatusActive,
		MaxRetries:    3,
		Data: SessionData{
			Variables: map[string]any{
				"phone_number":    phoneNumber,
				"contact_name":    contactName,
				"trigger_message": triggerMessage,
			},
			APIResponses: map[string]any{},
		},
		StartedAt:      now,
		LastActivityAt: now,
	}
}

// IsLive reports whether the session still owns the conversation.
func (s *Session) IsLive() bool {
	return s.Status == SessionStatusActive || s.Status == SessionStatusWaitingInput
}

// Touch actualiza la marca de última actividad
func (s *Session) Touch() {
	s.LastActivityAt = time.Now()
}

// MoveTo repositions the session on a node.
func (s *Session) MoveTo(nodeID kernel.NodeID) {
	s.CurrentNodeID = nodeID
	s.Touch()
}

// WaitForInput suspende la sesión hasta la próxima respuesta del contacto
func (s *Session) WaitForInput(kind WaitingKind, variable string, validation flow.ValidationType, errorMessage string) {
	s.Status = SessionStatusWaitingInput
	s.Data.WaitingFor = kind
	s.Data.WaitingVariable = variable
	s.Data.Validation = validation
	s.Data.ErrorMessage = errorMessage
	s.Touch()
}

// ResumeFromInput clears the waiting state and reactivates the session.
func (s *Session) ResumeFromInput() {
	s.Status = SessionStatusActive
	s.Data.WaitingFor = WaitingNone
	s.Data.WaitingVariable = ""
	s.Data.Validation = ""
	s.Data.ErrorMessage = ""
	s.Data.RetryCount = 0
	s.Touch()
}

// Complete termina la sesión con éxito
func (s *Session) Complete() {
	s.end(SessionStatusCompleted)
}

// Abandon termina la sesión por timeout, error o reinicio
func (s *Session) Abandon() {
	s.end(SessionStatusAbandoned)
}

// Transfer entrega la conversación a un agente humano
func (s *Session) Transfer() {
	s.end(SessionStatusTransferred)
}

func (s *Session) end(status SessionStatus) {
	s.Status = status
	now := time.Now()
	s.EndedAt = &now
	s.LastActivityAt = now
}

// SetVariable guarda una variable de conversación
func (s *Session) SetVariable(name string, value any) {
	if s.Data.Variables == nil {
		s.Data.Variables = map[string]any{}
	}
	s.Data.Variables[name] = value
}

// GetVariable lee una variable de conversación
func (s *Session) GetVariable(name string) (any, bool) {
	if s.Data.Variables == nil {
		return nil, false
	}
	v, ok := s.Data.Variables[name]
	return v, ok
}

// RecordInput guarda la última entrada del contacto
func (s *Session) RecordInput(input, inputType string) {
	s.Data.LastInput = input
	s.Data.LastInputType = inputType
	s.TotalMessagesReceived++
	s.SetVariable("last_input", input)
	s.Touch()
}

// RecordOutbound cuenta un mensaje entregado al contacto
func (s *Session) RecordOutbound() {
	s.TotalMessagesSent++
}

// RecordAPIResponse guarda la respuesta de un api_call bajo su variable
func (s *Session) RecordAPIResponse(variable string, response any) {
	if s.Data.APIResponses == nil {
		s.Data.APIResponses = map[string]any{}
	}
	s.Data.APIResponses[variable] = response
	s.SetVariable(variable, response)
}
