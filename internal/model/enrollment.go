package model

import "time"

type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "active"
	EnrollmentStatusCancelled EnrollmentStatus = "cancelled"
)

// Enrollment is a user's claim on a seat in a cycle. An enrollment never
// returns to Active once cancelled; re-joining creates a new row.
type Enrollment struct {
	ID              int64            `json:"id"`
	UserID          int64            `json:"user_id"`
	WorkshopCycleID int64            `json:"workshop_cycle_id"`
	Status          EnrollmentStatus `json:"status"`
	EnrolledAt      time.Time        `json:"enrolled_at"`
	CancelledAt     *time.Time       `json:"cancelled_at"`

	// Convenience fields for responses and notifications
	Cycle   *WorkshopCycle `json:"cycle,omitempty"`
	Payment *Payment       `json:"payment,omitempty"`
}

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

type Payment struct {
	ID           int64         `json:"id"`
	EnrollmentID int64         `json:"enrollment_id"`
	Reference    string        `json:"reference"` // uuid handed to the payment provider
	AmountCents  int64         `json:"amount_cents"`
	Status       PaymentStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	PaidAt       *time.Time    `json:"paid_at"`
}
