package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/intake-service/internal/service"
	apperrors "github.com/spec-kit/intake-service/pkg/util"
)

// IntakeHandler accepts submissions forwarded by the chat gateway.
type IntakeHandler struct {
	intake *service.IntakeService
}

// NewIntakeHandler constructs handler.
func NewIntakeHandler(intake *service.IntakeService) *IntakeHandler {
	return &IntakeHandler{intake: intake}
}

type submitRequest struct {
	SubmitterID       int64  `json:"submitter_id"`
	SubmitterHandle   string `json:"submitter_handle"`
	Body              string `json:"body"`
	OriginChannelID   int64  `json:"origin_channel_id"`
	OriginChannelName string `json:"origin_channel_name"`
}

// Submit POST /intake/requests.
func (h *IntakeHandler) Submit(c *fiber.Ctx) error {
	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.intake.Submit(c.UserContext(), service.SubmitInput{
		SubmitterID:       req.SubmitterID,
		SubmitterHandle:   req.SubmitterHandle,
		Body:              req.Body,
		OriginChannelID:   req.OriginChannelID,
		OriginChannelName: req.OriginChannelName,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticket})
}
