package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/nexus-talent/internal/models"
	"alfredoptarigan/nexus-talent/internal/services"
)

type RoleHandler struct {
	orchestrator *services.ChatOrchestrator
	workspace    *services.WorkspaceService
	log          *zap.Logger
	now          func() time.Time
}

func NewRoleHandler(orchestrator *services.ChatOrchestrator, workspace *services.WorkspaceService, log *zap.Logger) *RoleHandler {
	return &RoleHandler{
		orchestrator: orchestrator,
		workspace:    workspace,
		log:          log,
		now:          time.Now,
	}
}

// HandleNewRole handles POST /roles
func (h *RoleHandler) HandleNewRole(c *fiber.Ctx) error {
	role, err := h.orchestrator.NewRole(c.UserContext())
	if err != nil {
		// The role exists even when its first chat could not start.
		if role.ID != "" {
			return c.Status(fiber.StatusCreated).JSON(fiber.Map{
				"role":  role,
				"error": h.orchestrator.LastError(),
			})
		}
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"role": role})
}

// HandleUpdateRole handles PUT /roles/:id
func (h *RoleHandler) HandleUpdateRole(c *fiber.Ctx) error {
	var role models.Role
	if err := c.BodyParser(&role); err != nil {
		return badRequest(c, "Invalid request payload")
	}
	role.ID = c.Params("id")

	// Candidates are managed through their own endpoints.
	current, _, ok := h.orchestrator.State().FindRole(role.ID)
	if !ok {
		return respondError(c, services.ErrRoleNotFound)
	}
	role.Candidates = current.Candidates
	role.CreatedAt = current.CreatedAt

	if err := h.workspace.UpdateRole(role); err != nil {
		return respondError(c, err)
	}
	return c.JSON(role)
}

// HandleSelectRole handles POST /roles/:id/select
func (h *RoleHandler) HandleSelectRole(c *fiber.Ctx) error {
	if err := h.orchestrator.SelectRole(c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleOpenRole handles POST /roles/:id/open
func (h *RoleHandler) HandleOpenRole(c *fiber.Ctx) error {
	if err := h.orchestrator.OpenRoleWorkspace(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	s := h.orchestrator.State()
	return c.JSON(fiber.Map{
		"activeRoleId": s.ActiveRoleID,
		"activeChatId": s.ActiveChatID,
	})
}

// HandleOverview handles GET /overview
func (h *RoleHandler) HandleOverview(c *fiber.Ctx) error {
	return c.JSON(services.BuildOverview(h.orchestrator.State(), h.now()))
}

// HandleToggleOverview handles POST /overview/toggle
func (h *RoleHandler) HandleToggleOverview(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"showRolesOverview": h.orchestrator.ToggleRolesOverview()})
}
