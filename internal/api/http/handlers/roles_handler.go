package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/archie-s/card-vault/internal/access"
	"github.com/archie-s/card-vault/internal/api/dto"
	"github.com/archie-s/card-vault/internal/domain"
	"github.com/archie-s/card-vault/internal/repository"
	apperrors "github.com/archie-s/card-vault/pkg/util/errorutil"
)

// RolesHandler serves role administration. Creating a role invalidates its
// cached permission set so assignments take effect immediately.
type RolesHandler struct {
	roles repository.RoleRepository
	cache *access.CachedSource
}

// NewRolesHandler constructs handler.
func NewRolesHandler(roles repository.RoleRepository, cache *access.CachedSource) *RolesHandler {
	return &RolesHandler{roles: roles, cache: cache}
}

// List GET /roles.
func (h *RolesHandler) List(c *fiber.Ctx) error {
	roles, err := h.roles.List(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.RoleResponse, 0, len(roles))
	for _, role := range roles {
		items = append(items, dto.RoleResponse{
			ID:          role.ID,
			Name:        role.Name,
			Description: role.Description,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// Create POST /roles.
func (h *RolesHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	name := strings.TrimSpace(req.RoleName)
	if name == "" {
		return apperrors.NewValidationError("role_name required", nil)
	}

	role := &domain.Role{Name: name, Description: req.Description}
	if err := h.roles.Create(c.Context(), role); err != nil {
		return err
	}
	if h.cache != nil {
		h.cache.Invalidate(c.Context(), role.Name)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.RoleResponse{
		ID:          role.ID,
		Name:        role.Name,
		Description: role.Description,
	}})
}

// Permissions GET /roles/:name/permissions.
func (h *RolesHandler) Permissions(c *fiber.Ctx) error {
	perms, err := h.roles.PermissionsForRole(c.Context(), c.Params("name"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": perms})
}
