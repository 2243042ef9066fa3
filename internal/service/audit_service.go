package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/archie-s/card-vault/internal/domain"
	"github.com/archie-s/card-vault/internal/events"
	"github.com/archie-s/card-vault/internal/repository"
)

// AuditService subscribes to vault events and persists an audit trail entry
// for each. Entries reference tokens and record ids only.
type AuditService struct {
	dispatcher events.Dispatcher
	audits     repository.AuditRepository
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, audits repository.AuditRepository, logger *zap.Logger) *AuditService {
	return &AuditService{dispatcher: dispatcher, audits: audits, logger: logger}
}

// RegisterHandlers subscribes the recorder to all audited event types.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, eventType := range []events.EventType{
		events.EventCardStored,
		events.EventCardRetrieved,
		events.EventCardRevoked,
		events.EventAccessDenied,
		events.EventDecryptFailed,
	} {
		a.dispatcher.Subscribe(eventType, a.record)
	}
}

// List returns the most recent audit entries.
func (a *AuditService) List(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	return a.audits.List(ctx, limit)
}

func (a *AuditService) record(ctx context.Context, event events.Event) error {
	entry := &domain.AuditEntry{
		ID:        uuid.NewString(),
		UserID:    event.Actor.UserID,
		Action:    string(event.Type),
		Resource:  event.Resource,
		RecordID:  event.RecordID,
		IPAddress: event.IPAddress,
	}
	if err := a.audits.Insert(ctx, entry); err != nil {
		a.logger.Error("failed to write audit entry",
			zap.String("action", entry.Action),
			zap.Error(err))
		return err
	}

	if event.Type == events.EventDecryptFailed {
		a.logger.Warn("security event recorded",
			zap.String("action", entry.Action),
			zap.String("record_id", entry.RecordID),
			zap.String("user_id", entry.UserID))
	}
	return nil
}
