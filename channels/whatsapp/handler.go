package whatsapp

import (
	"context"
	"log"
	"time"

	"github.com/chatflow-io/chatflow/engine"
	"github.com/chatflow-io/chatflow/pkg/config"
	"github.com/gofiber/fiber/v2"
)

// ============================================================================
// Webhook Handler
// ============================================================================

// WebhookHandler endpoints del webhook de Meta
type WebhookHandler struct {
	config    config.WhatsAppConfig
	processor engine.MessageProcessor
}

func NewWebhookHandler(cfg config.WhatsAppConfig, processor engine.MessageProcessor) *WebhookHandler {
	return &WebhookHandler{
		config:    cfg,
		processor: processor,
	}
}

// RegisterRoutes registra los endpoints del webhook
func (h *WebhookHandler) RegisterRoutes(app *fiber.App) {
	app.Get("/webhooks/whatsapp", h.VerifyWebhook)
	app.Post("/webhooks/whatsapp", h.ReceiveWebhook)
}

// VerifyWebhook responde al challenge de verificación de Meta
// GET /webhooks/whatsapp
func (h *WebhookHandler) VerifyWebhook(c *fiber.Ctx) error {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token == h.config.VerifyToken {
		log.Println("✅ Webhook verified successfully")
		return c.SendString(challenge)
	}

	log.Println("❌ Webhook verification failed - invalid token")
	return fiber.NewError(fiber.StatusForbidden, "Verification failed")
}

// ReceiveWebhook procesa mensajes entrantes. Always answers 200 so
// Meta does not retry; processing happens off the request path.
// POST /webhooks/whatsapp
func (h *WebhookHandler) ReceiveWebhook(c *fiber.Ctx) error {
	body := c.Body()

	if !VerifySignature(body, c.Get("X-Hub-Signature-256"), h.config.AppSecret) {
		log.Println("❌ Invalid webhook signature")
		return c.SendStatus(fiber.StatusOK)
	}

	webhook, err := ParseWebhook(body)
	if err != nil {
		log.Printf("❌ Failed to parse webhook: %v", err)
		return c.SendStatus(fiber.StatusOK)
	}

	messages := ExtractMessages(webhook)
	if len(messages) == 0 {
		return c.SendStatus(fiber.StatusOK)
	}

	for _, msg := range messages {
		if msg.Kind == engine.InboundUnsupported {
			log.Printf("⚠️ Skipping unsupported message %s from %s", msg.MessageID, msg.From)
			continue
		}

		go func(msg engine.InboundMessage) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			if err := h.processor.ProcessMessage(ctx, msg); err != nil {
				log.Printf("❌ Failed to process message %s: %v", msg.MessageID, err)
			}
		}(msg)
	}

	return c.SendStatus(fiber.StatusOK)
}
