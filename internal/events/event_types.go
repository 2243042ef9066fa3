package events

import (
	"time"

	"github.com/archie-s/card-vault/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventCardStored    EventType = "card_stored"
	EventCardRetrieved EventType = "card_retrieved"
	EventCardRevoked   EventType = "card_revoked"
	EventAccessDenied  EventType = "access_denied"
	EventDecryptFailed EventType = "decrypt_failed"
)

// Actor encapsulates the caller behind an event.
type Actor struct {
	UserID string `json:"user_id"`
	Role   string `json:"role,omitempty"`
	IP     string `json:"ip,omitempty"`
}

// Event represents a domain event emitted by services. Payloads carry tokens
// and masked metadata only, never card numbers or ciphertext.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Actor     Actor     `json:"actor"`
	Resource  string    `json:"resource"`
	RecordID  string    `json:"record_id"`
	IPAddress string    `json:"ip_address,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// CardStoredPayload payload.
type CardStoredPayload struct {
	Token    string       `json:"token"`
	LastFour string       `json:"last_four"`
	Brand    domain.Brand `json:"brand"`
	Reused   bool         `json:"reused"`
}

// CardRevokedPayload payload.
type CardRevokedPayload struct {
	Token string `json:"token"`
}

// AccessDeniedPayload payload.
type AccessDeniedPayload struct {
	Operation string `json:"operation"`
	Reason    string `json:"reason"`
}

// DecryptFailedPayload payload. Emitted when a stored blob fails tag
// verification; carries the token only, never partial plaintext.
type DecryptFailedPayload struct {
	Token string `json:"token"`
}
