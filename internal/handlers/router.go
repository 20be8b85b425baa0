package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// Handlers groups everything SetupRoutes mounts.
type Handlers struct {
	Chat           *ChatHandler
	Role           *RoleHandler
	Candidate      *CandidateHandler
	Playbook       *PlaybookHandler
	JobDescription *JobDescriptionHandler
}

// SetupRoutes mounts the API under /api/v1. Role paths accept "active" in
// place of an id.
func SetupRoutes(app *fiber.App, h Handlers) {
	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	api.Get("/state", h.Chat.HandleGetState)
	api.Delete("/error", h.Chat.HandleClearError)
	api.Get("/phases", h.Chat.HandleListPhases)
	api.Put("/phase", h.Chat.HandleSetPhase)

	api.Post("/chats", h.Chat.HandleNewChat)
	api.Post("/chats/:id/select", h.Chat.HandleSelectChat)
	api.Get("/chats/:id/messages/:mid/blocks", h.Chat.HandleGetBlocks)
	api.Post("/messages", h.Chat.HandleSendMessage)
	api.Put("/messages/:id", h.Chat.HandleEditMessage)

	api.Get("/overview", h.Role.HandleOverview)
	api.Post("/overview/toggle", h.Role.HandleToggleOverview)
	api.Post("/roles", h.Role.HandleNewRole)
	api.Put("/roles/:id", h.Role.HandleUpdateRole)
	api.Post("/roles/:id/select", h.Role.HandleSelectRole)
	api.Post("/roles/:id/open", h.Role.HandleOpenRole)
	api.Get("/roles/:id/reminders", h.Playbook.HandleRoleReminders)

	api.Post("/roles/:id/candidates", h.Candidate.HandleAddCandidate)
	api.Patch("/roles/:id/candidates/:cid", h.Candidate.HandleUpdateCandidate)
	api.Get("/roles/:id/exports/:kind", h.Candidate.HandleExport)
	api.Post("/roles/:id/compare", h.Candidate.HandleCompare)
	api.Get("/candidates/search", h.Candidate.HandleSearch)

	api.Post("/roles/:id/job-description", h.JobDescription.HandleImport)

	api.Get("/playbooks", h.Playbook.HandleListPlaybooks)
	api.Post("/playbooks", h.Playbook.HandleSavePlaybook)
	api.Delete("/playbooks/:id", h.Playbook.HandleDeletePlaybook)
	api.Get("/shortcuts", h.Playbook.HandleShortcuts)
	api.Post("/reminders", h.Playbook.HandleAddReminder)
	api.Post("/reminders/:id/toggle", h.Playbook.HandleToggleReminder)
}

// ErrorHandler renders errors that escape a handler.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
