package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/intake-service/internal/auth"
	"github.com/spec-kit/intake-service/internal/config"
	"github.com/spec-kit/intake-service/internal/membership"
	apperrors "github.com/spec-kit/intake-service/pkg/util"
)

// AuthHandler mints bearer tokens for the admin surface. Login requires the
// shared admin credential and an id that the membership service recognizes.
type AuthHandler struct {
	tokens  *auth.TokenManager
	members membership.Service
	cfg     config.AuthConfig
}

// NewAuthHandler constructs handler.
func NewAuthHandler(tokens *auth.TokenManager, members membership.Service, cfg config.AuthConfig) *AuthHandler {
	return &AuthHandler{tokens: tokens, members: members, cfg: cfg}
}

type loginRequest struct {
	AdminID  int64  `json:"admin_id"`
	Password string `json:"password"`
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.AdminID <= 0 || req.Password == "" {
		return apperrors.NewValidationError("admin_id and password required", nil)
	}

	if h.cfg.AdminPasswordHash == "" {
		return apperrors.NewUnauthorized("admin login not configured")
	}
	if err := auth.VerifyCredential(h.cfg.AdminPasswordHash, req.Password); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	isAdmin, err := h.members.IsAdmin(c.UserContext(), req.AdminID)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if !isAdmin {
		return apperrors.NewUnauthorized("not a member of the admin group")
	}

	token, expiresAt, err := h.tokens.GenerateToken(req.AdminID)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"token":      token,
		"expires_at": expiresAt,
	}})
}
