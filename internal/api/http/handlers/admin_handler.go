package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/intake-service/internal/auth"
	"github.com/spec-kit/intake-service/internal/domain"
	"github.com/spec-kit/intake-service/internal/service"
	apperrors "github.com/spec-kit/intake-service/pkg/util"
)

// AdminHandler exposes lifecycle actions and queue views to administrators.
// Each handler builds a typed admin action and hands it to the service; the
// service re-checks membership for every action.
type AdminHandler struct {
	admin *service.AdminService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(admin *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// ListTickets GET /admin/tickets.
func (h *AdminHandler) ListTickets(c *fiber.Ctx) error {
	actorID, err := actorID(c)
	if err != nil {
		return err
	}
	tickets, err := h.admin.ListTickets(c.UserContext(), actorID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": tickets})
}

// GetTicket GET /admin/tickets/:id.
func (h *AdminHandler) GetTicket(c *fiber.Ctx) error {
	actorID, err := actorID(c)
	if err != nil {
		return err
	}
	ticketID, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	ticket, err := h.admin.GetTicket(c.UserContext(), actorID, ticketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticket})
}

// Accept POST /admin/tickets/:id/accept.
func (h *AdminHandler) Accept(c *fiber.Ctx) error {
	return h.apply(c, func(ticketID int64) domain.AdminAction {
		return domain.AcceptAction{TicketID: ticketID}
	})
}

// Deny POST /admin/tickets/:id/deny.
func (h *AdminHandler) Deny(c *fiber.Ctx) error {
	return h.apply(c, func(ticketID int64) domain.AdminAction {
		return domain.DenyAction{TicketID: ticketID}
	})
}

// Prioritize POST /admin/tickets/:id/prioritize.
func (h *AdminHandler) Prioritize(c *fiber.Ctx) error {
	return h.apply(c, func(ticketID int64) domain.AdminAction {
		return domain.PrioritizeAction{TicketID: ticketID}
	})
}

type replyRequest struct {
	Text string `json:"text"`
}

// Reply POST /admin/tickets/:id/reply.
func (h *AdminHandler) Reply(c *fiber.Ctx) error {
	var req replyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Text) == "" {
		return apperrors.NewValidationError("text required", nil)
	}
	return h.apply(c, func(ticketID int64) domain.AdminAction {
		return domain.ReplyAction{TicketID: ticketID, Text: req.Text}
	})
}

func (h *AdminHandler) apply(c *fiber.Ctx, build func(int64) domain.AdminAction) error {
	actorID, err := actorID(c)
	if err != nil {
		return err
	}
	ticketID, err := ticketIDParam(c)
	if err != nil {
		return err
	}
	if err := h.admin.Apply(c.UserContext(), actorID, build(ticketID)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"ticket_id": ticketID, "ok": true}})
}

type blockRequest struct {
	SubmitterID     int64  `json:"submitter_id"`
	SubmitterHandle string `json:"submitter_handle"`
}

// Block POST /admin/blacklist.
func (h *AdminHandler) Block(c *fiber.Ctx) error {
	actorID, err := actorID(c)
	if err != nil {
		return err
	}
	var req blockRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.SubmitterID <= 0 {
		return apperrors.NewValidationError("submitter_id required", nil)
	}
	if err := h.admin.Block(c.UserContext(), actorID, req.SubmitterID, req.SubmitterHandle); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{"submitter_id": req.SubmitterID}})
}

// Unblock DELETE /admin/blacklist/:id.
func (h *AdminHandler) Unblock(c *fiber.Ctx) error {
	actorID, err := actorID(c)
	if err != nil {
		return err
	}
	submitterID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || submitterID <= 0 {
		return apperrors.NewValidationError("malformed submitter id", nil)
	}
	if err := h.admin.Unblock(c.UserContext(), actorID, submitterID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"submitter_id": submitterID}})
}

// Blacklist GET /admin/blacklist.
func (h *AdminHandler) Blacklist(c *fiber.Ctx) error {
	actorID, err := actorID(c)
	if err != nil {
		return err
	}
	entries, err := h.admin.Blacklist(c.UserContext(), actorID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entries})
}

// Stats GET /admin/stats.
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	actorID, err := actorID(c)
	if err != nil {
		return err
	}
	stats, err := h.admin.Stats(c.UserContext(), actorID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}

// Export GET /admin/export. Streams the persisted ticket document verbatim.
func (h *AdminHandler) Export(c *fiber.Ctx) error {
	actorID, err := actorID(c)
	if err != nil {
		return err
	}
	raw, err := h.admin.Export(c.UserContext(), actorID)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="tickets.json"`)
	return c.Send(raw)
}

func actorID(c *fiber.Ctx) (int64, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return 0, apperrors.NewUnauthorized("authentication required")
	}
	return principal.AdminID, nil
}

func ticketIDParam(c *fiber.Ctx) (int64, error) {
	ticketID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || ticketID <= 0 {
		return 0, apperrors.NewValidationError("malformed ticket id", nil)
	}
	return ticketID, nil
}
