package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chatflow-io/chatflow/flow"
	"github.com/chatflow-io/chatflow/pkg/config"
	"github.com/stretchr/testify/require"
)

func testGateway(serverURL string) *Gateway {
	return NewGateway(config.WhatsAppConfig{
		APIBaseURL:    serverURL,
		APIVersion:    "v24.0",
		PhoneNumberID: "phone-1",
		AccessToken:   "token-abc",
	})
}

func captureServer(t *testing.T, status int) (*httptest.Server, *map[string]any) {
	t.Helper()
	captured := map[string]any{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v24.0/phone-1/messages", r.URL.Path)
		require.Equal(t, "Bearer token-abc", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(status)
		w.Write([]byte(`{}`))
	}))
	return server, &captured
}

func TestGateway_SendText(t *testing.T) {
	t.Parallel()

	server, captured := captureServer(t, http.StatusOK)
	defer server.Close()

	gateway := testGateway(server.URL)
	require.NoError(t, gateway.SendText(context.Background(), "51999888777", "hola"))

	payload := *captured
	require.Equal(t, "whatsapp", payload["messaging_product"])
	require.Equal(t, "51999888777", payload["to"])
	require.Equal(t, "text", payload["type"])
	require.Equal(t, "hola", payload["text"].(map[string]any)["body"])
}

func TestGateway_SendButtons_EnforcesLimits(t *testing.T) {
	t.Parallel()

	server, captured := captureServer(t, http.StatusOK)
	defer server.Close()

	gateway := testGateway(server.URL)
	msg := flow.SendButtonsConfig{
		Body:   "Elige",
		Footer: "ventas",
		Buttons: []flow.Button{
			{ID: "a", Title: "Primera opcion con titulo muy largo"},
			{ID: "b", Title: "B"},
			{ID: "c", Title: "C"},
			{ID: "d", Title: "excedente"},
		},
	}
	require.NoError(t, gateway.SendButtons(context.Background(), "519", msg))

	interactive := (*captured)["interactive"].(map[string]any)
	require.Equal(t, "button", interactive["type"])

	buttons := interactive["action"].(map[string]any)["buttons"].([]any)
	require.Len(t, buttons, flow.MaxButtons, "extra buttons are dropped")

	firstTitle := buttons[0].(map[string]any)["reply"].(map[string]any)["title"].(string)
	require.Len(t, firstTitle, flow.MaxButtonTitleLen)

	footer := interactive["footer"].(map[string]any)
	require.Equal(t, "ventas", footer["text"])
}

func TestGateway_SendList_TruncatesRows(t *testing.T) {
	t.Parallel()

	server, captured := captureServer(t, http.StatusOK)
	defer server.Close()

	gateway := testGateway(server.URL)
	msg := flow.SendListConfig{
		Body:       "Menú",
		ButtonText: strings.Repeat("x", 30),
		Sections: []flow.ListSection{{
			Title: "Bebidas",
			Rows: []flow.ListRow{{
				ID:          "row_1",
				Title:       strings.Repeat("t", 40),
				Description: strings.Repeat("d", 100),
			}},
		}},
	}
	require.NoError(t, gateway.SendList(context.Background(), "519", msg))

	interactive := (*captured)["interactive"].(map[string]any)
	action := interactive["action"].(map[string]any)
	require.Len(t, action["button"].(string), flow.MaxListButtonLen)

	row := action["sections"].([]any)[0].(map[string]any)["rows"].([]any)[0].(map[string]any)
	require.Len(t, row["title"].(string), flow.MaxListRowTitleLen)
	require.Len(t, row["description"].(string), flow.MaxListRowDescLen)
}

func TestGateway_SendMedia(t *testing.T) {
	t.Parallel()

	server, captured := captureServer(t, http.StatusOK)
	defer server.Close()

	gateway := testGateway(server.URL)

	// Audio drops captions; documents carry a filename.
	require.NoError(t, gateway.SendMedia(context.Background(), "519", flow.SendMediaConfig{
		MediaType: flow.MediaTypeAudio,
		MediaURL:  "https://cdn.example.com/a.ogg",
		Caption:   "ignorada",
	}))
	audio := (*captured)["audio"].(map[string]any)
	require.NotContains(t, audio, "caption")

	require.NoError(t, gateway.SendMedia(context.Background(), "519", flow.SendMediaConfig{
		MediaType: flow.MediaTypeDocument,
		MediaURL:  "https://cdn.example.com/f.pdf",
		Caption:   "tu boleta",
		Filename:  "boleta.pdf",
	}))
	document := (*captured)["document"].(map[string]any)
	require.Equal(t, "tu boleta", document["caption"])
	require.Equal(t, "boleta.pdf", document["filename"])
}

func TestGateway_NonOKStatusFails(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad token"}}`))
	}))
	defer server.Close()

	gateway := testGateway(server.URL)
	err := gateway.SendText(context.Background(), "519", "hola")
	require.Error(t, err)
}
