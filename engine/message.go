package engine

import "time"

// ============================================================================
// Inbound Message
// ============================================================================

// InboundKind tipo de mensaje entrante
type InboundKind string

const (
	InboundText        InboundKind = "text"
	InboundButton      InboundKind = "button_reply"
	InboundList        InboundKind = "list_reply"
	InboundMedia       InboundKind = "media"
	InboundUnsupported InboundKind = "unsupported"
)

// InboundMessage un mensaje entrante ya normalizado, independiente del canal
type InboundMessage struct {
	MessageID   string      `json:"message_id"`
	From        string      `json:"from"` // phone number
	ContactName string      `json:"contact_name,omitempty"`
	Kind        InboundKind `json:"kind"`
	Text        string      `json:"text,omitempty"`
	ButtonID    string      `json:"button_id,omitempty"`
	ButtonTitle string      `json:"button_title,omitempty"`
	ListID      string      `json:"list_id,omitempty"`
	ListTitle   string      `json:"list_title,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
}

// InputValue returns the routable value of the reply: the body for text
// messages, the selected option id for interactive replies.
func (m *InboundMessage) InputValue() string {
	switch m.Kind {
	case InboundButton:
		return m.ButtonID
	case InboundList:
		return m.ListID
	default:
		return m.Text
	}
}

// ReplyID returns the selected option id for interactive replies, empty
// otherwise. The id doubles as the edge handle when routing.
func (m *InboundMessage) ReplyID() string {
	switch m.Kind {
	case InboundButton:
		return m.ButtonID
	case InboundList:
		return m.ListID
	default:
		return ""
	}
}

// IsInteractive reports whether the message is a button or list reply.
func (m *InboundMessage) IsInteractive() bool {
	return m.Kind == InboundButton || m.Kind == InboundList
}
