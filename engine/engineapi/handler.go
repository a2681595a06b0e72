package engineapi

import (
	"log"

	"github.com/Abraxas-365/craftable/storex"
	"github.com/chatflow-io/chatflow/engine"
	"github.com/chatflow-io/chatflow/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

// ============================================================================
// Engine API
// ============================================================================

// Handler endpoints operativos del motor: sesiones y arranques manuales
type Handler struct {
	manager engine.SessionManager
}

func NewHandler(manager engine.SessionManager) *Handler {
	return &Handler{manager: manager}
}

// RegisterRoutes registra las rutas del API del motor
func (h *Handler) RegisterRoutes(app *fiber.App) {
	sessions := app.Group("/api/sessions")

	sessions.Get("/", h.ListSessions)
	sessions.Get("/:sessionId", h.GetSession)
	sessions.Post("/:sessionId/end", h.EndSession)

	app.Post("/api/flows/:flowId/start", h.StartFlow)
}

// StartFlow arranca un flujo manualmente para un número
// POST /api/flows/:flowId/start
func (h *Handler) StartFlow(c *fiber.Ctx) error {
	var req engine.StartFlowRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.PhoneNumber == "" {
		return fiber.NewError(fiber.StatusBadRequest, "phone_number is required")
	}

	flowID := kernel.FlowID(c.Params("flowId"))

	session, err := h.manager.StartFlow(c.Context(), flowID, req.PhoneNumber, req.ContactName, "")
	if err != nil {
		log.Printf("❌ Manual flow start failed: %v", err)
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(session.ToSummary())
}

// ListSessions lista sesiones con paginación
// GET /api/sessions
func (h *Handler) ListSessions(c *fiber.Ctx) error {
	req := engine.SessionListRequest{
		PaginationOptions: storex.PaginationOptions{
			Page:     c.QueryInt("page", 1),
			PageSize: c.QueryInt("page_size", 20),
		},
		PhoneNumber: c.Query("phone_number"),
	}

	if status := c.Query("status"); status != "" {
		s := engine.SessionStatus(status)
		req.Status = &s
	}
	if flowID := c.Query("flow_id"); flowID != "" {
		id := kernel.FlowID(flowID)
		req.FlowID = &id
	}

	result, err := h.manager.ListSessions(c.Context(), req)
	if err != nil {
		return err
	}

	return c.JSON(result)
}

// GetSession obtiene una sesión
// GET /api/sessions/:sessionId
func (h *Handler) GetSession(c *fiber.Ctx) error {
	session, err := h.manager.GetSession(c.Context(), kernel.SessionID(c.Params("sessionId")))
	if err != nil {
		return err
	}

	return c.JSON(session)
}

// EndSession termina una sesión manualmente
// POST /api/sessions/:sessionId/end
func (h *Handler) EndSession(c *fiber.Ctx) error {
	var req engine.EndSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	status := req.Status
	if status == "" {
		status = engine.SessionStatusCompleted
	}

	if err := h.manager.EndSession(c.Context(), kernel.SessionID(c.Params("sessionId")), status); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"status":  status,
	})
}
