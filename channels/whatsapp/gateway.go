package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/chatflow-io/chatflow/engine"
	"github.com/chatflow-io/chatflow/flow"
	"github.com/chatflow-io/chatflow/pkg/config"
)

// ============================================================================
// WhatsApp Cloud API Gateway
// ============================================================================

// Gateway envía mensajes por el WhatsApp Business Cloud API
type Gateway struct {
	config     config.WhatsAppConfig
	httpClient *http.Client
	apiURL     string
}

var _ engine.MessagingGateway = (*Gateway)(nil)

func NewGateway(cfg config.WhatsAppConfig) *Gateway {
	return &Gateway{
		config:     cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiURL:     fmt.Sprintf("%s/%s/%s", cfg.APIBaseURL, cfg.APIVersion, cfg.PhoneNumberID),
	}
}

func (g *Gateway) SendText(ctx context.Context, to, body string) error {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                CleanPhone(to),
		"type":              "text",
		"text": map[string]any{
			"body": body,
		},
	}
	return g.post(ctx, payload)
}

func (g *Gateway) SendButtons(ctx context.Context, to string, msg flow.SendButtonsConfig) error {
	buttons := msg.Buttons
	if len(buttons) > flow.MaxButtons {
		buttons = buttons[:flow.MaxButtons]
	}

	buttonPayloads := make([]map[string]any, 0, len(buttons))
	for _, b := range buttons {
		buttonPayloads = append(buttonPayloads, map[string]any{
			"type": "reply",
			"reply": map[string]any{
				"id":    b.ID,
				"title": flow.Truncate(b.Title, flow.MaxButtonTitleLen),
			},
		})
	}

	interactive := map[string]any{
		"type": "button",
		"body": map[string]any{"text": msg.Body},
		"action": map[string]any{
			"buttons": buttonPayloads,
		},
	}
	if msg.Header != "" {
		interactive["header"] = map[string]any{"type": "text", "text": msg.Header}
	}
	if msg.Footer != "" {
		interactive["footer"] = map[string]any{"text": msg.Footer}
	}

	payload := map[string]any{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                CleanPhone(to),
		"type":              "interactive",
		"interactive":       interactive,
	}
	return g.post(ctx, payload)
}

func (g *Gateway) SendList(ctx context.Context, to string, msg flow.SendListConfig) error {
	sections := make([]map[string]any, 0, len(msg.Sections))
	for _, section := range msg.Sections {
		rows := make([]map[string]any, 0, len(section.Rows))
		for _, row := range section.Rows {
			rowPayload := map[string]any{
				"id":    row.ID,
				"title": flow.Truncate(row.Title, flow.MaxListRowTitleLen),
			}
			if row.Description != "" {
				rowPayload["description"] = flow.Truncate(row.Description, flow.MaxListRowDescLen)
			}
			rows = append(rows, rowPayload)
		}
		sections = append(sections, map[string]any{
			"title": section.Title,
			"rows":  rows,
		})
	}

	interactive := map[string]any{
		"type": "list",
		"body": map[string]any{"text": msg.Body},
		"action": map[string]any{
			"button":   flow.Truncate(msg.ButtonText, flow.MaxListButtonLen),
			"sections": sections,
		},
	}
	if msg.Header != "" {
		interactive["header"] = map[string]any{"type": "text", "text": msg.Header}
	}
	if msg.Footer != "" {
		interactive["footer"] = map[string]any{"text": msg.Footer}
	}

	payload := map[string]any{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                CleanPhone(to),
		"type":              "interactive",
		"interactive":       interactive,
	}
	return g.post(ctx, payload)
}

func (g *Gateway) SendMedia(ctx context.Context, to string, msg flow.SendMediaConfig) error {
	media := map[string]any{
		"link": msg.MediaURL,
	}
	if msg.Caption != "" && msg.MediaType != flow.MediaTypeAudio {
		media["caption"] = msg.Caption
	}
	if msg.Filename != "" && msg.MediaType == flow.MediaTypeDocument {
		media["filename"] = msg.Filename
	}

	payload := map[string]any{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                CleanPhone(to),
		"type":              string(msg.MediaType),
		string(msg.MediaType): media,
	}
	return g.post(ctx, payload)
}

func (g *Gateway) post(ctx context.Context, payload map[string]any) error {
	url := fmt.Sprintf("%s/messages", g.apiURL)

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+g.config.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return engine.ErrGatewaySendFailed().WithCause(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		log.Printf("❌ WhatsApp API Error - Status: %d, Body: %s", resp.StatusCode, string(body))
		return engine.ErrGatewaySendFailed().
			WithDetail("status", resp.StatusCode).
			WithDetail("response", string(body))
	}

	return nil
}
