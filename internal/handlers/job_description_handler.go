package handlers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"alfredoptarigan/nexus-talent/internal/models"
	"alfredoptarigan/nexus-talent/internal/services"
)

// JobDescriptionHandler imports a job description into a role, either as an
// uploaded document or as pasted text, and asks the assistant to structure it.
type JobDescriptionHandler struct {
	orchestrator   *services.ChatOrchestrator
	workspace      *services.WorkspaceService
	storageService services.StorageService
	parser         services.DocumentParser
	maxFileSize    int64
	log            *zap.Logger
}

func NewJobDescriptionHandler(
	orchestrator *services.ChatOrchestrator,
	workspace *services.WorkspaceService,
	storageService services.StorageService,
	parser services.DocumentParser,
	maxFileSize int64,
	log *zap.Logger,
) *JobDescriptionHandler {
	return &JobDescriptionHandler{
		orchestrator:   orchestrator,
		workspace:      workspace,
		storageService: storageService,
		parser:         parser,
		maxFileSize:    maxFileSize,
		log:            log,
	}
}

// HandleImport handles POST /roles/:id/job-description
func (h *JobDescriptionHandler) HandleImport(c *fiber.Ctx) error {
	roleID := roleParam(c)

	var (
		text string
		err  error
	)
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		text, err = h.extractUpload(c, roleID)
		if err != nil {
			return respondError(c, err)
		}
	} else {
		var req models.JobDescriptionRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request payload")
		}
		text = req.Text
	}

	prompt, err := h.workspace.ImportJobDescription(roleID, text)
	if err != nil {
		return respondError(c, err)
	}

	result, err := h.orchestrator.SendMessage(c.UserContext(), prompt, nil)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *JobDescriptionHandler) extractUpload(c *fiber.Ctx, roleID string) (string, error) {
	file, err := c.FormFile("file")
	if err != nil {
		return "", fmt.Errorf("%w: upload the job description as 'file'", services.ErrEmptyInput)
	}
	if h.maxFileSize > 0 && file.Size > h.maxFileSize {
		return "", services.ErrFileTooLarge
	}

	filename, filePath, err := h.storageService.SaveFile(file, roleID)
	if err != nil {
		return "", err
	}
	// The text is kept on the role; the upload itself is not.
	defer func() {
		if err := h.storageService.DeleteFile(filename); err != nil {
			h.log.Warn("⚠️ Failed to remove uploaded job description", zap.String("file", filename), zap.Error(err))
		}
	}()

	content, err := h.parser.ExtractTextWithMetaData(filePath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", services.ErrEmptyInput, err)
	}
	h.log.Info("📄 Job description extracted",
		zap.String("file", file.Filename),
		zap.Int("pages", content.PageCount))
	return content.Text, nil
}
