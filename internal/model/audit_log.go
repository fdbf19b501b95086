package model

import "time"

// AuditLog records one state transition, successful or rejected. ActorID is
// nil for system-initiated mutations and for suppressed actor scopes.
type AuditLog struct {
	ID        int64     `json:"id"`
	EventID   string    `json:"event_id"`
	ActorID   *int64    `json:"actor_id"`
	EventKind string    `json:"event_kind"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}
