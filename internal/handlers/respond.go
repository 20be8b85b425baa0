package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/nexus-talent/internal/services"
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrBusy):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrRoleNotFound),
		errors.Is(err, services.ErrChatNotFound),
		errors.Is(err, services.ErrMessageNotFound),
		errors.Is(err, services.ErrCandidateNotFound),
		errors.Is(err, services.ErrPlaybookNotFound),
		errors.Is(err, services.ErrReminderNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrNoActiveSession),
		errors.Is(err, services.ErrNoActiveRole),
		errors.Is(err, services.ErrNotEditable),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidPhase),
		errors.Is(err, services.ErrCompareSelection),
		errors.Is(err, services.ErrEmptyInput),
		errors.Is(err, services.ErrUnknownExport),
		errors.Is(err, services.ErrUnsupportedFile),
		errors.Is(err, services.ErrFileTooLarge):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrNothingToExport):
		return fiber.StatusUnprocessableEntity
	}

	var f *services.Failure
	if errors.As(err, &f) {
		if f.Kind == services.FailureConfiguration {
			return fiber.StatusServiceUnavailable
		}
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

func respondError(c *fiber.Ctx, err error) error {
	body := fiber.Map{"error": err.Error()}
	if banner := services.PreconditionBanner(err); banner != "" {
		body["banner"] = banner
	}
	var f *services.Failure
	if errors.As(err, &f) {
		body["error"] = f.Banner
		body["kind"] = f.Kind
	}
	return c.Status(statusFor(err)).JSON(body)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
	})
}
