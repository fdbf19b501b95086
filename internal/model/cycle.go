package model

import "time"

// WorkshopCycle is one scheduled, bookable run of a workshop. Nullable
// override columns shadow the workshop defaults; see ResolveEffective.
type WorkshopCycle struct {
	ID                      int64      `json:"id"`
	WorkshopID              int64      `json:"workshop_id"`
	StartDate               time.Time  `json:"start_date"`
	EndDate                 *time.Time `json:"end_date"`
	IsOpenForEnrollment     bool       `json:"is_open_for_enrollment"`
	MaxParticipantsOverride *int       `json:"max_participants_override"`
	AddressOverrideID       *int64     `json:"address_override_id"`
	InstructorOverrideID    *int64     `json:"instructor_override_id"`
	CreatedAt               time.Time  `json:"created_at"`

	// Convenience field, not read from the cycles table itself
	Workshop *Workshop `json:"workshop,omitempty"`
}

// Session is a single dated meeting inside a cycle.
type Session struct {
	ID              int64     `json:"id"`
	WorkshopCycleID int64     `json:"workshop_cycle_id"`
	StartsAt        time.Time `json:"starts_at"`
	EndsAt          time.Time `json:"ends_at"`
	Note            string    `json:"note"`
}

// InstructorAssignment links an instructor to a cycle they teach.
type InstructorAssignment struct {
	ID              int64  `json:"id"`
	WorkshopCycleID int64  `json:"workshop_cycle_id"`
	InstructorID    int64  `json:"instructor_id"`
	Role            string `json:"role"`
}
