package flow

import (
	"strings"
	"time"

	"github.com/chatflow-io/chatflow/pkg/kernel"
)

// ============================================================================
// Flow Entity
// ============================================================================

// Flow representa un flujo de conversación (grafo dirigido de nodos)
type Flow struct {
	ID              kernel.FlowID `db:"id" json:"id"`
	Name            string        `db:"name" json:"name"`
	Description     string        `db:"description" json:"description,omitempty"`
	TriggerType     TriggerType   `db:"trigger_type" json:"trigger_type"`
	TriggerKeywords []string      `db:"trigger_keywords" json:"trigger_keywords,omitempty"`
	Status          FlowStatus    `db:"status" json:"status"`
	Priority        int           `db:"priority" json:"priority"`
	IsActive        bool          `db:"is_active" json:"is_active"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}

// TriggerType define cómo se dispara un flujo
type TriggerType string

const (
	TriggerTypeKeyword     TriggerType = "keyword"
	TriggerTypeWebhook     TriggerType = "webhook"
	TriggerTypeButtonReply TriggerType = "button_reply"
	TriggerTypeDefault     TriggerType = "default"
	TriggerTypeWelcome     TriggerType = "welcome"
)

// FlowStatus estado del flujo
type FlowStatus string

const (
	FlowStatusDraft  FlowStatus = "draft"
	FlowStatusActive FlowStatus = "active"
	FlowStatusPaused FlowStatus = "paused"
)

// IsValid verifica si el flujo es válido
func (f *Flow) IsValid() bool {
	return f.Name != "" && f.TriggerType != ""
}

// IsRunnable reports whether the flow can start new sessions.
func (f *Flow) IsRunnable() bool {
	return f.Status == FlowStatusActive && f.IsActive
}

// Activate activa el flujo
func (f *Flow) Activate() {
	f.Status = FlowStatusActive
	f.IsActive = true
	f.UpdatedAt = time.Now()
}

// Pause pausa el flujo
func (f *Flow) Pause() {
	f.Status = FlowStatusPaused
	f.UpdatedAt = time.Now()
}

// MatchesKeyword reports whether any trigger keyword appears in the
// lower-cased message text (case-insensitive substring match).
func (f *Flow) MatchesKeyword(lowerMessage string) bool {
	if f.TriggerType != TriggerTypeKeyword {
		return false
	}
	for _, keyword := range f.TriggerKeywords {
		if keyword == "" {
			continue
		}
		if strings.Contains(lowerMessage, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}

// ============================================================================
// Node Entity
// ============================================================================

// Node un paso/acción dentro de un flujo
type Node struct {
	ID         kernel.NodeID  `db:"id" json:"id"`
	FlowID     kernel.FlowID  `db:"flow_id" json:"flow_id"`
	Name       string         `db:"name" json:"name"`
	Type       NodeType       `db:"node_type" json:"node_type"`
	Config     map[string]any `db:"config" json:"config"`
	PositionX  float64        `db:"position_x" json:"position_x"` // layout only, never executed
	PositionY  float64        `db:"position_y" json:"position_y"`
	OrderIndex int            `db:"order_index" json:"order_index"`
	IsActive   bool           `db:"is_active" json:"is_active"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// NodeType tipo de nodo
type NodeType string

const (
	NodeTypeStart       NodeType = "start"
	NodeTypeSendMessage NodeType = "send_message"
	NodeTypeSendButtons NodeType = "send_buttons"
	NodeTypeSendList    NodeType = "send_list"
	NodeTypeSendMedia   NodeType = "send_media"
	NodeTypeAskQuestion NodeType = "ask_question"
	NodeTypeDelay       NodeType = "delay"
	NodeTypeCondition   NodeType = "condition"
	NodeTypeSetVariable NodeType = "set_variable"
	NodeTypeAPICall     NodeType = "api_call"
	NodeTypeAssignAgent NodeType = "assign_agent"
	NodeTypeAddTag      NodeType = "add_tag"
	NodeTypeRemoveTag   NodeType = "remove_tag"
	NodeTypeEnd         NodeType = "end"
)

// AllNodeTypes enumerates the closed set of node kinds.
var AllNodeTypes = []NodeType{
	NodeTypeStart,
	NodeTypeSendMessage,
	NodeTypeSendButtons,
	NodeTypeSendList,
	NodeTypeSendMedia,
	NodeTypeAskQuestion,
	NodeTypeDelay,
	NodeTypeCondition,
	NodeTypeSetVariable,
	NodeTypeAPICall,
	NodeTypeAssignAgent,
	NodeTypeAddTag,
	NodeTypeRemoveTag,
	NodeTypeEnd,
}

// IsValid verifica si el nodo es válido
func (n *Node) IsValid() bool {
	return !n.FlowID.IsEmpty() && n.Type != ""
}

// IsKnownType reports whether the node kind belongs to the closed set.
func (n *Node) IsKnownType() bool {
	for _, t := range AllNodeTypes {
		if n.Type == t {
			return true
		}
	}
	return false
}

// ============================================================================
// Connection Entity
// ============================================================================

// Connection una arista dirigida y etiquetada ("handle") entre dos nodos
type Connection struct {
	ID           kernel.ConnectionID `db:"id" json:"id"`
	FlowID       kernel.FlowID       `db:"flow_id" json:"flow_id"`
	SourceNodeID kernel.NodeID       `db:"source_node_id" json:"source_node_id"`
	TargetNodeID kernel.NodeID       `db:"target_node_id" json:"target_node_id"`
	SourceHandle string              `db:"source_handle" json:"source_handle"`
	Label        string              `db:"label" json:"label,omitempty"`
	IsActive     bool                `db:"is_active" json:"is_active"`
	CreatedAt    time.Time           `db:"created_at" json:"created_at"`
}

// Well-known edge handles
const (
	HandleDefault = "default"
	HandleYes     = "yes"
	HandleNo      = "no"
	HandleSuccess = "success"
	HandleError   = "error"
)

// IsValid verifica si la conexión es válida (sin self-loops)
func (c *Connection) IsValid() bool {
	return !c.SourceNodeID.IsEmpty() &&
		!c.TargetNodeID.IsEmpty() &&
		c.SourceNodeID != c.TargetNodeID
}
