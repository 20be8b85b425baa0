package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"alfredoptarigan/nexus-talent/internal/models"
	"alfredoptarigan/nexus-talent/internal/services"
)

type ChatHandler struct {
	orchestrator *services.ChatOrchestrator
	log          *zap.Logger
}

func NewChatHandler(orchestrator *services.ChatOrchestrator, log *zap.Logger) *ChatHandler {
	return &ChatHandler{
		orchestrator: orchestrator,
		log:          log,
	}
}

// HandleGetState handles GET /state
func (h *ChatHandler) HandleGetState(c *fiber.Ctx) error {
	return c.JSON(models.StateResponse{
		State:     h.orchestrator.State(),
		Busy:      h.orchestrator.Busy(),
		LastError: h.orchestrator.LastError(),
	})
}

// HandleNewChat handles POST /chats
func (h *ChatHandler) HandleNewChat(c *fiber.Ctx) error {
	var req models.NewChatRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request payload")
		}
	}

	chat, err := h.orchestrator.StartNewSession(c.UserContext(), req.RoleID, false)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(chat)
}

// HandleSelectChat handles POST /chats/:id/select
func (h *ChatHandler) HandleSelectChat(c *fiber.Ctx) error {
	if err := h.orchestrator.SelectChat(c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleSendMessage handles POST /messages. Clients that accept
// text/event-stream receive fragments as they arrive.
func (h *ChatHandler) HandleSendMessage(c *fiber.Ctx) error {
	var req models.MessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}
	if strings.TrimSpace(req.Text) == "" {
		return badRequest(c, "text is required")
	}

	run := func(ctx context.Context, onFragment services.FragmentFunc) (*services.ExchangeResult, error) {
		return h.orchestrator.SendMessage(ctx, req.Text, onFragment)
	}
	return h.exchange(c, run)
}

// HandleEditMessage handles PUT /messages/:id
func (h *ChatHandler) HandleEditMessage(c *fiber.Ctx) error {
	var req models.MessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}
	if strings.TrimSpace(req.Text) == "" {
		return badRequest(c, "text is required")
	}
	messageID := c.Params("id")

	run := func(ctx context.Context, onFragment services.FragmentFunc) (*services.ExchangeResult, error) {
		return h.orchestrator.EditAndResubmit(ctx, messageID, req.Text, onFragment)
	}
	return h.exchange(c, run)
}

type exchangeFunc func(ctx context.Context, onFragment services.FragmentFunc) (*services.ExchangeResult, error)

func wantsStream(c *fiber.Ctx) bool {
	return strings.Contains(c.Get(fiber.HeaderAccept), "text/event-stream")
}

func (h *ChatHandler) exchange(c *fiber.Ctx, run exchangeFunc) error {
	if !wantsStream(c) {
		result, err := run(c.UserContext(), nil)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(result)
	}

	if h.orchestrator.Busy() {
		return respondError(c, services.ErrBusy)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	// The exchange outlives the handler: it runs inside the body writer and
	// completes even if the client goes away.
	ctx := context.WithoutCancel(c.UserContext())
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		result, err := run(ctx, func(messageID, fragment string) {
			writeEvent(w, "fragment", fiber.Map{"messageId": messageID, "text": fragment})
		})
		if err != nil {
			body := fiber.Map{"error": err.Error(), "status": statusFor(err)}
			if banner := services.PreconditionBanner(err); banner != "" {
				body["banner"] = banner
			}
			writeEvent(w, "error", body)
			return
		}
		writeEvent(w, "done", result)
	}))
	return nil
}

func writeEvent(w *bufio.Writer, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte(`{}`)
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	// A failed flush means the client left; the exchange still finishes.
	_ = w.Flush()
}

// HandleGetBlocks handles GET /chats/:id/messages/:mid/blocks
func (h *ChatHandler) HandleGetBlocks(c *fiber.Ctx) error {
	chat, _, ok := h.orchestrator.State().FindChat(c.Params("id"))
	if !ok {
		return respondError(c, services.ErrChatNotFound)
	}
	idx := chat.MessageIndex(c.Params("mid"))
	if idx < 0 {
		return respondError(c, services.ErrMessageNotFound)
	}
	return c.JSON(fiber.Map{
		"messageId": chat.Messages[idx].ID,
		"blocks":    services.ParseBlocks(chat.Messages[idx].Text),
	})
}

// HandleSetPhase handles PUT /phase
func (h *ChatHandler) HandleSetPhase(c *fiber.Ctx) error {
	var req models.PhaseRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}
	if err := h.orchestrator.SetActivePhase(req.PhaseID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"activePhaseId": req.PhaseID})
}

// HandleListPhases handles GET /phases
func (h *ChatHandler) HandleListPhases(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"phases":        models.Phases,
		"activePhaseId": h.orchestrator.State().ActivePhaseID,
	})
}

// HandleClearError handles DELETE /error
func (h *ChatHandler) HandleClearError(c *fiber.Ctx) error {
	h.orchestrator.ClearError()
	return c.SendStatus(fiber.StatusNoContent)
}
