package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/archie-s/card-vault/internal/api/dto"
	"github.com/archie-s/card-vault/internal/auth"
	"github.com/archie-s/card-vault/internal/domain"
	"github.com/archie-s/card-vault/internal/service"
	apperrors "github.com/archie-s/card-vault/pkg/util/errorutil"
)

// AuthHandler exposes login, registration and caller introspection.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{service: authService}
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Username == "" || req.Password == "" {
		return apperrors.NewValidationError("username and password required", nil)
	}

	user, token, expiresAt, err := h.service.Login(c.Context(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      toUserResponse(user),
	}})
}

// Register POST /auth/users. Creating non-customer users requires the
// manage_users gate applied at the route level.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("username, email and password required", nil)
	}

	user, err := h.service.RegisterUser(c.Context(), service.RegisterUserInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		RoleName:  req.RoleName,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": toUserResponse(user)})
}

// Me GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	user, perms, err := h.service.Me(c.Context(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.MeResponse{
		User:        toUserResponse(user),
		Permissions: perms,
	}})
}

// ListUsers GET /auth/users.
func (h *AuthHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.service.ListUsers(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, toUserResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Logout POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.Logout(c.Context(), principal.User.ID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"logged_out": true}})
}

func toUserResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.RoleName,
		LastLogin: user.LastLogin,
		CreatedAt: user.CreatedAt,
	}
}
