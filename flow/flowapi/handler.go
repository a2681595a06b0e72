package flowapi

import (
	"github.com/Abraxas-365/craftable/storex"
	"github.com/chatflow-io/chatflow/flow"
	"github.com/chatflow-io/chatflow/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

// ============================================================================
// Flow API
// ============================================================================

// Handler endpoints de gestión de flujos
type Handler struct {
	service flow.FlowService
}

func NewHandler(service flow.FlowService) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registra las rutas del API de flujos
func (h *Handler) RegisterRoutes(app *fiber.App) {
	flows := app.Group("/api/flows")

	flows.Post("/", h.CreateFlow)
	flows.Get("/", h.ListFlows)
	flows.Get("/:flowId", h.GetFlow)
	flows.Put("/:flowId", h.UpdateFlow)
	flows.Delete("/:flowId", h.DeleteFlow)

	flows.Post("/:flowId/activate", h.ActivateFlow)
	flows.Post("/:flowId/pause", h.PauseFlow)

	flows.Post("/:flowId/nodes", h.AddNode)
	flows.Put("/:flowId/nodes/:nodeId", h.UpdateNode)
	flows.Delete("/:flowId/nodes/:nodeId", h.RemoveNode)

	flows.Post("/:flowId/connections", h.AddConnection)
	flows.Delete("/:flowId/connections/:connectionId", h.RemoveConnection)
}

// CreateFlow crea un flujo
// POST /api/flows
func (h *Handler) CreateFlow(c *fiber.Ctx) error {
	var req flow.CreateFlowRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	created, err := h.service.CreateFlow(c.Context(), req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// ListFlows lista flujos con paginación
// GET /api/flows
func (h *Handler) ListFlows(c *fiber.Ctx) error {
	req := flow.FlowListRequest{
		PaginationOptions: storex.PaginationOptions{
			Page:     c.QueryInt("page", 1),
			PageSize: c.QueryInt("page_size", 20),
		},
		Search: c.Query("search"),
	}

	if status := c.Query("status"); status != "" {
		s := flow.FlowStatus(status)
		req.Status = &s
	}
	if triggerType := c.Query("trigger_type"); triggerType != "" {
		t := flow.TriggerType(triggerType)
		req.TriggerType = &t
	}

	result, err := h.service.ListFlows(c.Context(), req)
	if err != nil {
		return err
	}

	return c.JSON(result)
}

// GetFlow obtiene el grafo completo del flujo
// GET /api/flows/:flowId
func (h *Handler) GetFlow(c *fiber.Ctx) error {
	graph, err := h.service.GetFlow(c.Context(), kernel.FlowID(c.Params("flowId")))
	if err != nil {
		return err
	}

	return c.JSON(graph)
}

// UpdateFlow actualiza un flujo
// PUT /api/flows/:flowId
func (h *Handler) UpdateFlow(c *fiber.Ctx) error {
	var req flow.UpdateFlowRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	updated, err := h.service.UpdateFlow(c.Context(), kernel.FlowID(c.Params("flowId")), req)
	if err != nil {
		return err
	}

	return c.JSON(updated)
}

// DeleteFlow elimina un flujo
// DELETE /api/flows/:flowId
func (h *Handler) DeleteFlow(c *fiber.Ctx) error {
	if err := h.service.DeleteFlow(c.Context(), kernel.FlowID(c.Params("flowId"))); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ActivateFlow publica el flujo
// POST /api/flows/:flowId/activate
func (h *Handler) ActivateFlow(c *fiber.Ctx) error {
	activated, err := h.service.ActivateFlow(c.Context(), kernel.FlowID(c.Params("flowId")))
	if err != nil {
		return err
	}

	return c.JSON(activated)
}

// PauseFlow pausa el flujo
// POST /api/flows/:flowId/pause
func (h *Handler) PauseFlow(c *fiber.Ctx) error {
	paused, err := h.service.PauseFlow(c.Context(), kernel.FlowID(c.Params("flowId")))
	if err != nil {
		return err
	}

	return c.JSON(paused)
}

// AddNode agrega un nodo al flujo
// POST /api/flows/:flowId/nodes
func (h *Handler) AddNode(c *fiber.Ctx) error {
	var req flow.CreateNodeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	node, err := h.service.AddNode(c.Context(), kernel.FlowID(c.Params("flowId")), req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(node)
}

// UpdateNode actualiza un nodo
// PUT /api/flows/:flowId/nodes/:nodeId
func (h *Handler) UpdateNode(c *fiber.Ctx) error {
	var req flow.UpdateNodeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	node, err := h.service.UpdateNode(c.Context(), kernel.NodeID(c.Params("nodeId")), req)
	if err != nil {
		return err
	}

	return c.JSON(node)
}

// RemoveNode elimina un nodo
// DELETE /api/flows/:flowId/nodes/:nodeId
func (h *Handler) RemoveNode(c *fiber.Ctx) error {
	if err := h.service.RemoveNode(c.Context(), kernel.NodeID(c.Params("nodeId"))); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// AddConnection agrega una conexión al flujo
// POST /api/flows/:flowId/connections
func (h *Handler) AddConnection(c *fiber.Ctx) error {
	var req flow.CreateConnectionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	conn, err := h.service.AddConnection(c.Context(), kernel.FlowID(c.Params("flowId")), req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(conn)
}

// RemoveConnection elimina una conexión
// DELETE /api/flows/:flowId/connections/:connectionId
func (h *Handler) RemoveConnection(c *fiber.Ctx) error {
	if err := h.service.RemoveConnection(c.Context(), kernel.ConnectionID(c.Params("connectionId"))); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
