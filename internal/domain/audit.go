package domain

import "time"

// AuditEntry records who did what to which record. Card entries reference the
// token, never card data.
type AuditEntry struct {
	ID        string
	UserID    string
	Action    string
	Resource  string
	RecordID  string
	IPAddress string
	CreatedAt time.Time
}
