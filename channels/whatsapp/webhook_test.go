package whatsapp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/chatflow-io/chatflow/engine"
	"github.com/stretchr/testify/require"
)

const textWebhook = `{
	"object": "whatsapp_business_account",
	"entry": [{
		"id": "entry-1",
		"changes": [{
			"field": "messages",
			"value": {
				"messaging_product": "whatsapp",
				"metadata": {"display_phone_number": "15550001111", "phone_number_id": "phone-1"},
				"contacts": [{"wa_id": "51999888777", "profile": {"name": "Ana"}}],
				"messages": [{
					"id": "wamid.1",
					"from": "51999888777",
					"timestamp": "1700000000",
					"type": "text",
					"text": {"body": "hola"}
				}]
			}
		}]
	}]
}`

const interactiveWebhook = `{
	"object": "whatsapp_business_account",
	"entry": [{
		"id": "entry-1",
		"changes": [{
			"field": "messages",
			"value": {
				"messaging_product": "whatsapp",
				"messages": [
					{
						"id": "wamid.2",
						"from": "51999888777",
						"timestamp": "1700000001",
						"type": "interactive",
						"interactive": {
							"type": "button_reply",
							"button_reply": {"id": "opt_yes", "title": "Sí"}
						}
					},
					{
						"id": "wamid.3",
						"from": "51999888777",
						"timestamp": "1700000002",
						"type": "interactive",
						"interactive": {
							"type": "list_reply",
							"list_reply": {"id": "row_2", "title": "Soporte", "description": "Hablar con soporte"}
						}
					}
				]
			}
		}]
	}]
}`

func TestExtractMessages_Text(t *testing.T) {
	t.Parallel()

	webhook, err := ParseWebhook([]byte(textWebhook))
	require.NoError(t, err)

	messages := ExtractMessages(webhook)
	require.Len(t, messages, 1)

	msg := messages[0]
	require.Equal(t, "wamid.1", msg.MessageID)
	require.Equal(t, "51999888777", msg.From)
	require.Equal(t, "Ana", msg.ContactName)
	require.Equal(t, engine.InboundText, msg.Kind)
	require.Equal(t, "hola", msg.Text)
	require.Equal(t, int64(1700000000), msg.Timestamp.Unix())
}

func TestExtractMessages_InteractiveReplies(t *testing.T) {
	t.Parallel()

	webhook, err := ParseWebhook([]byte(interactiveWebhook))
	require.NoError(t, err)

	messages := ExtractMessages(webhook)
	require.Len(t, messages, 2)

	button := messages[0]
	require.Equal(t, engine.InboundButton, button.Kind)
	require.Equal(t, "opt_yes", button.ButtonID)
	require.Equal(t, "Sí", button.ButtonTitle)
	require.Equal(t, "opt_yes", button.InputValue())

	list := messages[1]
	require.Equal(t, engine.InboundList, list.Kind)
	require.Equal(t, "row_2", list.ListID)
	require.Equal(t, "Soporte", list.ListTitle)
}

func TestExtractMessages_MediaUsesCaption(t *testing.T) {
	t.Parallel()

	payload := `{
		"object": "whatsapp_business_account",
		"entry": [{"changes": [{"value": {
			"messaging_product": "whatsapp",
			"messages": [{
				"id": "wamid.4",
				"from": "51999888777",
				"timestamp": "1700000003",
				"type": "image",
				"image": {"id": "media-1", "mime_type": "image/jpeg", "caption": "mi boleta"}
			}]
		}}]}]
	}`

	webhook, err := ParseWebhook([]byte(payload))
	require.NoError(t, err)

	messages := ExtractMessages(webhook)
	require.Len(t, messages, 1)
	require.Equal(t, engine.InboundMedia, messages[0].Kind)
	require.Equal(t, "mi boleta", messages[0].Text)
}

func TestExtractMessages_LocationAsText(t *testing.T) {
	t.Parallel()

	payload := `{
		"object": "whatsapp_business_account",
		"entry": [{"changes": [{"value": {
			"messaging_product": "whatsapp",
			"messages": [{
				"id": "wamid.8",
				"from": "51999888777",
				"timestamp": "1700000007",
				"type": "location",
				"location": {"latitude": -12.0464, "longitude": -77.0428, "name": "Lima"}
			}]
		}}]}]
	}`

	webhook, err := ParseWebhook([]byte(payload))
	require.NoError(t, err)

	messages := ExtractMessages(webhook)
	require.Len(t, messages, 1)
	require.Equal(t, engine.InboundText, messages[0].Kind)
	require.Equal(t, "Lima -12.046400,-77.042800", messages[0].Text)
}

func TestExtractMessages_ContactCardAsText(t *testing.T) {
	t.Parallel()

	payload := `{
		"object": "whatsapp_business_account",
		"entry": [{"changes": [{"value": {
			"messaging_product": "whatsapp",
			"messages": [{
				"id": "wamid.9",
				"from": "51999888777",
				"timestamp": "1700000008",
				"type": "contacts",
				"contacts": [{"name": {"formatted_name": "Luis Pérez"}, "phones": [{"phone": "+51 911 222 333"}]}]
			}]
		}}]}]
	}`

	webhook, err := ParseWebhook([]byte(payload))
	require.NoError(t, err)

	messages := ExtractMessages(webhook)
	require.Len(t, messages, 1)
	require.Equal(t, engine.InboundText, messages[0].Kind)
	require.Equal(t, "Luis Pérez 51911222333", messages[0].Text)
}

func TestExtractMessages_SkipsOtherProductsAndStatuses(t *testing.T) {
	t.Parallel()

	payload := `{
		"object": "whatsapp_business_account",
		"entry": [{"changes": [{"value": {
			"messaging_product": "instagram",
			"messages": [{"id": "wamid.5", "from": "x", "timestamp": "1700000004", "type": "text", "text": {"body": "no"}}]
		}}, {"value": {
			"messaging_product": "whatsapp",
			"statuses": [{"id": "wamid.6", "status": "delivered", "timestamp": "1700000005", "recipient_id": "519"}]
		}}]}]
	}`

	webhook, err := ParseWebhook([]byte(payload))
	require.NoError(t, err)
	require.Empty(t, ExtractMessages(webhook))
}

func TestExtractMessages_UnknownTypeIsUnsupported(t *testing.T) {
	t.Parallel()

	payload := `{
		"object": "whatsapp_business_account",
		"entry": [{"changes": [{"value": {
			"messaging_product": "whatsapp",
			"messages": [{"id": "wamid.7", "from": "519", "timestamp": "1700000006", "type": "sticker"}]
		}}]}]
	}`

	webhook, err := ParseWebhook([]byte(payload))
	require.NoError(t, err)

	messages := ExtractMessages(webhook)
	require.Len(t, messages, 1)
	require.Equal(t, engine.InboundUnsupported, messages[0].Kind)
}

func TestVerifySignature(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"object":"whatsapp_business_account"}`)
	secret := "app-secret"

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	signature := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	require.True(t, VerifySignature(payload, signature, secret))
	require.False(t, VerifySignature(payload, "sha256=deadbeef", secret))
	require.False(t, VerifySignature(payload, "", secret))

	// Empty app secret disables verification.
	require.True(t, VerifySignature(payload, "", ""))
}
