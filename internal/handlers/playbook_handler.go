package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/nexus-talent/internal/models"
	"alfredoptarigan/nexus-talent/internal/services"
)

type PlaybookHandler struct {
	orchestrator *services.ChatOrchestrator
	workspace    *services.WorkspaceService
	log          *zap.Logger
	now          func() time.Time
}

func NewPlaybookHandler(orchestrator *services.ChatOrchestrator, workspace *services.WorkspaceService, log *zap.Logger) *PlaybookHandler {
	return &PlaybookHandler{
		orchestrator: orchestrator,
		workspace:    workspace,
		log:          log,
		now:          time.Now,
	}
}

// HandleListPlaybooks handles GET /playbooks
func (h *PlaybookHandler) HandleListPlaybooks(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"playbooks": h.orchestrator.State().Playbooks})
}

// HandleSavePlaybook handles POST /playbooks
func (h *PlaybookHandler) HandleSavePlaybook(c *fiber.Ctx) error {
	var req models.PlaybookRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}
	pb, err := h.workspace.SavePlaybook(req.Prompt, req.PhaseID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(pb)
}

// HandleDeletePlaybook handles DELETE /playbooks/:id
func (h *PlaybookHandler) HandleDeletePlaybook(c *fiber.Ctx) error {
	if err := h.workspace.DeletePlaybook(c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleShortcuts handles GET /shortcuts
func (h *PlaybookHandler) HandleShortcuts(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"actions": h.workspace.PhaseShortcuts()})
}

// HandleAddReminder handles POST /reminders
func (h *PlaybookHandler) HandleAddReminder(c *fiber.Ctx) error {
	var req models.ReminderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}

	var (
		rem models.Reminder
		err error
	)
	if req.DueDate != nil {
		rem, err = h.workspace.AddReminder(req.Text, req.PhaseID, req.DueDate)
	} else {
		rem, err = h.workspace.AddReminderInDays(req.Text, req.PhaseID, req.DueInDays)
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(h.view(rem))
}

// HandleToggleReminder handles POST /reminders/:id/toggle
func (h *PlaybookHandler) HandleToggleReminder(c *fiber.Ctx) error {
	if err := h.workspace.ToggleReminder(c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleRoleReminders handles GET /roles/:id/reminders
func (h *PlaybookHandler) HandleRoleReminders(c *fiber.Ctx) error {
	s := h.orchestrator.State()
	roleID := roleParam(c)
	if roleID == "" {
		roleID = s.ActiveRoleID
	}
	if _, _, ok := s.FindRole(roleID); !ok {
		return respondError(c, services.ErrRoleNotFound)
	}

	reminders := s.RemindersForRole(roleID)
	views := make([]models.ReminderView, 0, len(reminders))
	for _, r := range reminders {
		views = append(views, h.view(r))
	}
	return c.JSON(fiber.Map{"reminders": views})
}

func (h *PlaybookHandler) view(r models.Reminder) models.ReminderView {
	return models.ReminderView{Reminder: r, DueLabel: services.DescribeDue(r, h.now())}
}
