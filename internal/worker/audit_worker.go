package worker

import (
	"github.com/archie-s/card-vault/internal/service"
)

// StartAuditWorker registers the audit recorder on the event dispatcher.
func StartAuditWorker(auditService *service.AuditService) {
	if auditService == nil {
		return
	}
	auditService.RegisterHandlers()
}
