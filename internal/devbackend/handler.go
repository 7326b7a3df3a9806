package devbackend

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the devbackend's HTTP endpoints.
type Handler struct {
	svc    *Service
	tokens *TokenIssuer
}

// NewHandler builds a handler over the account service.
func NewHandler(svc *Service, tokens *TokenIssuer) *Handler {
	return &Handler{svc: svc, tokens: tokens}
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleAuthRequest struct {
	IDToken string `json:"id_token"`
}

// Register creates an account and returns its first session token.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	result, err := h.svc.Register(c.UserContext(), req.Email, req.Password, req.DisplayName)
	if errors.Is(err, ErrEmailTaken) {
		return fiber.NewError(http.StatusConflict, "email already registered")
	}
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(result)
}

// Login exchanges credentials for a session token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	result, err := h.svc.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, "invalid email or password")
	}
	return c.Status(http.StatusOK).JSON(result)
}

// GoogleAuth exchanges a federated identity token for a session token.
func (h *Handler) GoogleAuth(c *fiber.Ctx) error {
	var req googleAuthRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	result, err := h.svc.GoogleAuth(c.UserContext(), req.IDToken)
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	}
	return c.Status(http.StatusOK).JSON(result)
}

// Me returns the authenticated user's profile.
func (h *Handler) Me(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	record, err := h.svc.Profile(c.UserContext(), userID)
	if errors.Is(err, ErrNotFound) {
		return fiber.NewError(http.StatusUnauthorized, "account no longer exists")
	}
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"user": record})
}

// VerifyIdentity durably records a passed identity verification.
func (h *Handler) VerifyIdentity(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if err := h.svc.ConfirmIdentity(c.UserContext(), userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(http.StatusUnauthorized, "account no longer exists")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.SendStatus(http.StatusNoContent)
}

// BearerAuth validates the Authorization header and stores the subject user
// ID in request locals.
func BearerAuth(tokens *TokenIssuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		token := strings.TrimSpace(authz[len("Bearer "):])
		sub, err := tokens.Verify(token)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}
		c.Locals("user_id", sub)
		return c.Next()
	}
}
