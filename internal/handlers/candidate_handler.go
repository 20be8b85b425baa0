package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/nexus-talent/internal/models"
	"alfredoptarigan/nexus-talent/internal/services"
)

type CandidateHandler struct {
	orchestrator *services.ChatOrchestrator
	workspace    *services.WorkspaceService
	search       *services.CandidateSearch
	log          *zap.Logger
}

// NewCandidateHandler wires the handler. search may be nil when candidate
// indexing is disabled.
func NewCandidateHandler(
	orchestrator *services.ChatOrchestrator,
	workspace *services.WorkspaceService,
	search *services.CandidateSearch,
	log *zap.Logger,
) *CandidateHandler {
	return &CandidateHandler{
		orchestrator: orchestrator,
		workspace:    workspace,
		search:       search,
		log:          log,
	}
}

// HandleAddCandidate handles POST /roles/:id/candidates
func (h *CandidateHandler) HandleAddCandidate(c *fiber.Ctx) error {
	var cand models.Candidate
	if err := c.BodyParser(&cand); err != nil {
		return badRequest(c, "Invalid request payload")
	}
	if strings.TrimSpace(cand.Name) == "" {
		return badRequest(c, "name is required")
	}

	added, ok, err := h.workspace.AddCandidateFromSuggestion(roleParam(c), cand)
	if err != nil {
		return respondError(c, err)
	}
	status := fiber.StatusOK
	if ok {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{
		"candidate": added,
		"added":     ok,
	})
}

// HandleUpdateCandidate handles PATCH /roles/:id/candidates/:cid
func (h *CandidateHandler) HandleUpdateCandidate(c *fiber.Ctx) error {
	var patch models.CandidatePatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, "Invalid request payload")
	}
	cand, err := h.workspace.UpdateCandidateFields(roleParam(c), c.Params("cid"), patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(cand)
}

// HandleExport handles GET /roles/:id/exports/:kind
func (h *CandidateHandler) HandleExport(c *fiber.Ctx) error {
	kind := services.ExportKind(c.Params("kind"))
	text, err := h.workspace.Export(roleParam(c), kind)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(models.ExportResponse{Kind: string(kind), Text: text})
}

// HandleCompare handles POST /roles/:id/compare. The comparison prompt is sent
// to the active chat.
func (h *CandidateHandler) HandleCompare(c *fiber.Ctx) error {
	var req models.CompareRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}
	prompt, err := h.workspace.ComparePrompt(roleParam(c), req.CandidateIDs)
	if err != nil {
		return respondError(c, err)
	}
	result, err := h.orchestrator.SendMessage(c.UserContext(), prompt, nil)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// HandleSearch handles GET /candidates/search?q=&roleId=&limit=
func (h *CandidateHandler) HandleSearch(c *fiber.Ctx) error {
	if h.search == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{
			"error": "candidate search is disabled",
		})
	}
	matches, err := h.search.Search(c.UserContext(), c.Query("q"), c.Query("roleId"), c.QueryInt("limit", 5))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"matches": matches})
}

// roleParam maps the "active" path segment to the active role.
func roleParam(c *fiber.Ctx) string {
	id := c.Params("id")
	if id == "active" {
		return ""
	}
	return id
}
