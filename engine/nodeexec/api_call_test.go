package nodeexec

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chatflow-io/chatflow/engine"
	"github.com/chatflow-io/chatflow/engine/enginetest"
	"github.com/chatflow-io/chatflow/flow"
	"github.com/stretchr/testify/require"
)

func apiCallNode(config map[string]any) *flow.Node {
	return &flow.Node{
		ID:       "n-api",
		FlowID:   "f-1",
		Name:     "lookup",
		Type:     flow.NodeTypeAPICall,
		Config:   config,
		IsActive: true,
	}
}

func TestAPICallHandler_SuccessStoresResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "42", r.URL.Query().Get("order_id"))
		require.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"status": "shipped"})
	}))
	defer server.Close()

	handler := NewAPICallHandler(enginetest.NewMemoryFlowStore(), 5*time.Second)

	session := engine.NewSession("f-1", "n-start", "+519", "", "")
	session.SetVariable("order_id", "42")
	session.SetVariable("token", "tok-123")

	node := apiCallNode(map[string]any{
		"method": "get",
		"url":    server.URL,
		"headers": map[string]any{
			"Authorization": "Bearer {{token}}",
		},
		// GET requests send the body as query parameters.
		"body": map[string]any{
			"order_id": "{{order_id}}",
		},
		"response_variable": "order",
	})

	outcome, err := handler.Execute(context.Background(), node, session)
	require.NoError(t, err)
	require.Equal(t, engine.OutcomeAdvance, outcome.Kind)
	require.Equal(t, flow.HandleSuccess, outcome.Handle)

	stored, ok := session.GetVariable("order")
	require.True(t, ok)
	require.Equal(t, map[string]any{"status": "shipped"}, stored)

	wrapped, ok := session.Data.APIResponses["order"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, http.StatusOK, wrapped["status"])
}

func TestAPICallHandler_PostSendsJSONBody(t *testing.T) {
	t.Parallel()

	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"lead-9"}`))
	}))
	defer server.Close()

	handler := NewAPICallHandler(enginetest.NewMemoryFlowStore(), 5*time.Second)

	session := engine.NewSession("f-1", "n-start", "+51999", "Ana", "")

	node := apiCallNode(map[string]any{
		"method": "POST",
		"url":    server.URL + "/leads",
		"body": map[string]any{
			"phone": "{{phone_number}}",
			"name":  "{{contact_name}}",
		},
	})

	outcome, err := handler.Execute(context.Background(), node, session)
	require.NoError(t, err)
	require.Equal(t, flow.HandleSuccess, outcome.Handle)
	require.Equal(t, "+51999", received["phone"])
	require.Equal(t, "Ana", received["name"])
}

func TestAPICallHandler_FailureJumpsToErrorEdge(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	store := enginetest.NewMemoryFlowStore().
		Connect("f-1", "n-api", "n-sorry", flow.HandleError)

	handler := NewAPICallHandler(store, 5*time.Second)
	session := engine.NewSession("f-1", "n-start", "+519", "", "")

	node := apiCallNode(map[string]any{
		"url":               server.URL,
		"response_variable": "lookup",
	})

	outcome, err := handler.Execute(context.Background(), node, session)
	require.NoError(t, err)
	require.Equal(t, engine.OutcomeJump, outcome.Kind)
	require.Equal(t, "n-sorry", outcome.TargetNodeID.String())

	// The failure is recorded so later nodes can branch on it.
	wrapped, ok := session.Data.APIResponses["lookup"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, http.StatusInternalServerError, wrapped["status"])
	require.Contains(t, wrapped["error"], "HTTP 500")
}

func TestAPICallHandler_FailureWithoutErrorEdgeFallsThrough(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	handler := NewAPICallHandler(enginetest.NewMemoryFlowStore(), 5*time.Second)
	session := engine.NewSession("f-1", "n-start", "+519", "", "")

	outcome, err := handler.Execute(context.Background(), apiCallNode(map[string]any{"url": server.URL}), session)
	require.NoError(t, err)
	require.Equal(t, engine.OutcomeAdvance, outcome.Kind)
	require.Equal(t, flow.HandleDefault, outcome.Handle)
}

func TestAPICallHandler_NonJSONResponseKeptAsText(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pong"))
	}))
	defer server.Close()

	handler := NewAPICallHandler(enginetest.NewMemoryFlowStore(), 5*time.Second)
	session := engine.NewSession("f-1", "n-start", "+519", "", "")

	node := apiCallNode(map[string]any{
		"url":               server.URL,
		"response_variable": "ping",
	})

	_, err := handler.Execute(context.Background(), node, session)
	require.NoError(t, err)

	stored, _ := session.GetVariable("ping")
	require.Equal(t, "pong", stored)
}
