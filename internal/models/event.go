package models

import "time"

// DashboardEvent is a single audit log entry. Only operator actions and
// connection transitions are recorded; inbound readings are never persisted.
type DashboardEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // CONNECTED | DISCONNECTED | CONN_ERROR | WARNING_SENT
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
