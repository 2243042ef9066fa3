package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/archie-s/card-vault/internal/access"
	"github.com/archie-s/card-vault/internal/events"
	apperrors "github.com/archie-s/card-vault/pkg/util/errorutil"
)

// PermissionMiddleware gates routes through the access decision engine. Every
// card service call sits behind one of its handlers; a deny is never bypassed
// by a later storage error.
type PermissionMiddleware struct {
	engine     *access.Engine
	dispatcher events.Dispatcher
}

// NewPermissionMiddleware constructs the gate.
func NewPermissionMiddleware(engine *access.Engine, dispatcher events.Dispatcher) *PermissionMiddleware {
	return &PermissionMiddleware{engine: engine, dispatcher: dispatcher}
}

// Require returns a handler enforcing the given operation. selfResource marks
// routes that only ever touch the caller's own records, which is what the
// customer ownership override keys on.
func (m *PermissionMiddleware) Require(operation string, selfResource bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}

		decision, err := m.engine.Decide(c.Context(), principal.Role(), operation, selfResource)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		if !decision.Allowed {
			m.publishDenied(c, principal, operation, decision)
			if decision.Reason == access.ReasonUnauthenticated {
				return apperrors.NewUnauthorized("authentication required")
			}
			return apperrors.NewDenied("access denied")
		}
		return c.Next()
	}
}

func (m *PermissionMiddleware) publishDenied(c *fiber.Ctx, principal *Principal, operation string, decision access.Decision) {
	if m.dispatcher == nil {
		return
	}
	actor := events.Actor{}
	if principal.User != nil {
		actor = events.Actor{UserID: principal.User.ID, Role: principal.Role()}
	}
	_ = m.dispatcher.Publish(c.Context(), events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventAccessDenied,
		Actor:     actor,
		Resource:  "access",
		IPAddress: c.IP(),
		Timestamp: time.Now(),
		Payload: events.AccessDeniedPayload{
			Operation: operation,
			Reason:    string(decision.Reason),
		},
	})
}
