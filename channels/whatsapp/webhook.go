package whatsapp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/chatflow-io/chatflow/engine"
)

// ============================================================================
// Webhook Parsing
// ============================================================================

// Webhook estructura del webhook del WhatsApp Cloud API
type Webhook struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

type WebhookChange struct {
	Value WebhookValue `json:"value"`
	Field string       `json:"field"`
}

type WebhookValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Metadata         WebhookMetadata  `json:"metadata"`
	Contacts         []WebhookContact `json:"contacts"`
	Messages         []WebhookMessage `json:"messages"`
	Statuses         []WebhookStatus  `json:"statuses"`
}

type WebhookMetadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

type WebhookContact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

type WebhookMessage struct {
	ID          string              `json:"id"`
	From        string              `json:"from"`
	Timestamp   int64               `json:"timestamp,string"`
	Type        string              `json:"type"`
	Text        *WebhookText        `json:"text,omitempty"`
	Interactive *WebhookInteractive `json:"interactive,omitempty"`
	Image       *WebhookMedia       `json:"image,omitempty"`
	Video       *WebhookMedia       `json:"video,omitempty"`
	Document    *WebhookMedia       `json:"document,omitempty"`
	Audio       *WebhookMedia       `json:"audio,omitempty"`
	Location    *WebhookLocation    `json:"location,omitempty"`
	ContactCard []WebhookCard       `json:"contacts,omitempty"`
}

type WebhookText struct {
	Body string `json:"body"`
}

type WebhookInteractive struct {
	Type        string        `json:"type"`
	ButtonReply *WebhookReply `json:"button_reply,omitempty"`
	ListReply   *WebhookReply `json:"list_reply,omitempty"`
}

type WebhookReply struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type WebhookMedia struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	SHA256   string `json:"sha256"`
	Caption  string `json:"caption,omitempty"`
}

type WebhookLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
	Address   string  `json:"address,omitempty"`
}

// WebhookCard es una tarjeta de contacto compartida en el chat
type WebhookCard struct {
	Name struct {
		FormattedName string `json:"formatted_name"`
	} `json:"name"`
	Phones []struct {
		Phone string `json:"phone"`
	} `json:"phones"`
}

type WebhookStatus struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Timestamp   int64  `json:"timestamp,string"`
	RecipientID string `json:"recipient_id"`
}

// ParseWebhook decodifica el payload del webhook
func ParseWebhook(payload []byte) (*Webhook, error) {
	var webhook Webhook
	if err := json.Unmarshal(payload, &webhook); err != nil {
		return nil, fmt.Errorf("failed to parse webhook: %w", err)
	}
	return &webhook, nil
}

// ExtractMessages normaliza los mensajes del webhook. Status updates
// and unsupported kinds are skipped.
func ExtractMessages(webhook *Webhook) []engine.InboundMessage {
	var messages []engine.InboundMessage

	for _, entry := range webhook.Entry {
		for _, change := range entry.Changes {
			if change.Value.MessagingProduct != "whatsapp" {
				continue
			}

			names := map[string]string{}
			for _, contact := range change.Value.Contacts {
				names[contact.WaID] = contact.Profile.Name
			}

			for _, msg := range change.Value.Messages {
				inbound := toInboundMessage(msg)
				inbound.ContactName = names[msg.From]
				messages = append(messages, inbound)
			}
		}
	}

	return messages
}

func toInboundMessage(msg WebhookMessage) engine.InboundMessage {
	inbound := engine.InboundMessage{
		MessageID: msg.ID,
		From:      msg.From,
		Timestamp: time.Unix(msg.Timestamp, 0),
	}

	switch msg.Type {
	case "text":
		inbound.Kind = engine.InboundText
		if msg.Text != nil {
			inbound.Text = msg.Text.Body
		}

	case "interactive":
		if msg.Interactive == nil {
			inbound.Kind = engine.InboundUnsupported
			break
		}
		switch msg.Interactive.Type {
		case "button_reply":
			inbound.Kind = engine.InboundButton
			if reply := msg.Interactive.ButtonReply; reply != nil {
				inbound.ButtonID = reply.ID
				inbound.ButtonTitle = reply.Title
			}
		case "list_reply":
			inbound.Kind = engine.InboundList
			if reply := msg.Interactive.ListReply; reply != nil {
				inbound.ListID = reply.ID
				inbound.ListTitle = reply.Title
			}
		default:
			inbound.Kind = engine.InboundUnsupported
		}

	case "image", "video", "document", "audio":
		inbound.Kind = engine.InboundMedia
		inbound.Text = mediaCaption(msg)

	case "location":
		inbound.Kind = engine.InboundText
		if loc := msg.Location; loc != nil {
			inbound.Text = fmt.Sprintf("%f,%f", loc.Latitude, loc.Longitude)
			if loc.Name != "" {
				inbound.Text = loc.Name + " " + inbound.Text
			}
		}

	case "contacts":
		inbound.Kind = engine.InboundText
		if len(msg.ContactCard) > 0 {
			card := msg.ContactCard[0]
			inbound.Text = card.Name.FormattedName
			if len(card.Phones) > 0 {
				inbound.Text += " " + CleanPhone(card.Phones[0].Phone)
			}
		}

	default:
		inbound.Kind = engine.InboundUnsupported
	}

	return inbound
}

func mediaCaption(msg WebhookMessage) string {
	for _, media := range []*WebhookMedia{msg.Image, msg.Video, msg.Document, msg.Audio} {
		if media != nil {
			return media.Caption
		}
	}
	return ""
}

// VerifySignature valida la firma HMAC-SHA256 del webhook. An empty
// app secret disables verification.
func VerifySignature(payload []byte, signature, appSecret string) bool {
	if appSecret == "" {
		return true
	}
	if signature == "" {
		return false
	}

	signature = strings.TrimPrefix(signature, "sha256=")

	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expected))
}
