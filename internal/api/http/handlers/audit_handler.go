package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/archie-s/card-vault/internal/api/dto"
	"github.com/archie-s/card-vault/internal/service"
)

// AuditHandler serves the audit trail to callers holding view_audit_logs.
type AuditHandler struct {
	service *service.AuditService
}

// NewAuditHandler constructs handler.
func NewAuditHandler(auditService *service.AuditService) *AuditHandler {
	return &AuditHandler{service: auditService}
}

// List GET /audit.
func (h *AuditHandler) List(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit"))

	entries, err := h.service.List(c.Context(), limit)
	if err != nil {
		return err
	}
	items := make([]dto.AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.AuditEntryResponse{
			ID:        entry.ID,
			UserID:    entry.UserID,
			Action:    entry.Action,
			Resource:  entry.Resource,
			RecordID:  entry.RecordID,
			IPAddress: entry.IPAddress,
			CreatedAt: entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}
