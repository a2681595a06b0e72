package nodeexec

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/chatflow-io/chatflow/engine"
	"github.com/chatflow-io/chatflow/flow"
)

// APICallHandler llama a una API externa y guarda la respuesta.
// On failure it jumps to the node behind the "error" handle when one
// exists, otherwise it falls through the default edge.
type APICallHandler struct {
	flowStore  engine.FlowStore
	httpClient *http.Client
}

var _ engine.NodeHandler = (*APICallHandler)(nil)

func NewAPICallHandler(flowStore engine.FlowStore, timeout time.Duration) *APICallHandler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &APICallHandler{
		flowStore:  flowStore,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (h *APICallHandler) Execute(ctx context.Context, node *flow.Node, session *engine.Session) (*engine.Outcome, error) {
	config, err := flow.ExtractAPICallConfig(node.Config)
	if err != nil {
		return nil, engine.ErrInvalidNodeConfig().WithCause(err)
	}

	vars := session.Data.Variables
	endpoint := engine.ReplaceVariables(config.URL, vars)
	headers, _ := engine.ReplaceVariablesInValue(config.Headers, vars).(map[string]any)
	body, _ := engine.ReplaceVariablesInValue(config.Body, vars).(map[string]any)

	log.Printf("🌐 API Call: %s %s", config.GetMethod(), endpoint)

	response, status, err := h.doRequest(ctx, config.GetMethod(), endpoint, headers, body)
	if err != nil {
		apiErr := engine.ErrAPICallFailed().WithDetail("url", endpoint).WithCause(err)
		log.Printf("❌ %v", apiErr)
		if config.ResponseVariable != "" {
			session.RecordAPIResponse(config.ResponseVariable, nil)
			session.Data.APIResponses[config.ResponseVariable] = map[string]any{
				"status": status,
				"error":  err.Error(),
			}
		}
		return h.failureOutcome(ctx, node)
	}

	if config.ResponseVariable != "" {
		session.RecordAPIResponse(config.ResponseVariable, response)
		session.Data.APIResponses[config.ResponseVariable] = map[string]any{
			"status": status,
			"data":   response,
		}
	}

	return engine.Advance(flow.HandleSuccess), nil
}

func (h *APICallHandler) doRequest(ctx context.Context, method, endpoint string, headers, body map[string]any) (any, int, error) {
	var bodyReader io.Reader

	if method == http.MethodGet {
		// GET sends the body as query parameters
		if len(body) > 0 {
			u, err := url.Parse(endpoint)
			if err != nil {
				return nil, 0, err
			}
			query := u.Query()
			for key, value := range body {
				query.Set(key, engine.ValueToString(value))
			}
			u.RawQuery = query.Encode()
			endpoint = u.String()
		}
	} else if len(body) > 0 {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, 0, err
		}
		bodyReader = bytes.NewBuffer(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return nil, 0, err
	}

	for key, value := range headers {
		req.Header.Set(key, engine.ValueToString(value))
	}
	if bodyReader != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(raw))
	}

	// JSON responses decode into structured data; anything else stays text
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		parsed = string(raw)
	}

	return parsed, resp.StatusCode, nil
}

// failureOutcome busca una arista "error" saliente; si existe salta
// directamente a su destino, si no sigue por default.
func (h *APICallHandler) failureOutcome(ctx context.Context, node *flow.Node) (*engine.Outcome, error) {
	connections, err := h.flowStore.FindConnectionsBySource(ctx, node.ID)
	if err != nil {
		return engine.Advance(flow.HandleDefault), nil
	}

	for _, conn := range connections {
		if conn.IsActive && conn.SourceHandle == flow.HandleError {
			return engine.JumpTo(conn.TargetNodeID), nil
		}
	}

	return engine.Advance(flow.HandleDefault), nil
}

func (h *APICallHandler) SupportsType(nodeType flow.NodeType) bool {
	return nodeType == flow.NodeTypeAPICall
}
