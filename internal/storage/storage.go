// Package storage defines the persistence interfaces consumed by the
// services. The pgx implementation lives in internal/repository; tests use
// in-memory fakes. Mutations always go through InTx so they run inside a
// serializable, actor-stamped transaction.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/atelierhub/enrollment_service/internal/model"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// ErrUniqueViolation indicates a write hit a unique constraint. For
// enrollments this is the partial unique index on active rows, the last line
// of defense against duplicate joins that race past the in-transaction check.
var ErrUniqueViolation = errors.New("unique constraint violation")

// ErrSerialization indicates the store aborted the transaction to preserve
// isolation. The operation is safe to retry.
var ErrSerialization = errors.New("transaction serialization failure")

// DependentCounts summarizes what a workshop delete will take with it.
type DependentCounts struct {
	Cycles      int64
	Sessions    int64
	Enrollments int64
	Payments    int64
}

// Tx exposes the typed operations available inside a transaction. Reads made
// through it are consistent with the transaction's eventual writes.
type Tx interface {
	// users
	GetUser(ctx context.Context, id int64) (*model.User, error)
	InsertUser(ctx context.Context, u *model.User) error
	CountAdmins(ctx context.Context) (int, error)
	InstructorReferences(ctx context.Context, userID int64) (int64, error)
	DetachUserAuditLogs(ctx context.Context, userID int64) (int64, error)
	DeleteUserEnrollments(ctx context.Context, userID int64) (int64, error)
	DeleteUser(ctx context.Context, id int64) error

	// workshops, cycles, sessions
	InsertWorkshop(ctx context.Context, w *model.Workshop) error
	GetWorkshop(ctx context.Context, id int64) (*model.Workshop, error)
	InsertCycle(ctx context.Context, c *model.WorkshopCycle) error
	CycleForUpdate(ctx context.Context, id int64) (*model.WorkshopCycle, error)
	SetCycleOpen(ctx context.Context, id int64, open bool) error
	InsertSession(ctx context.Context, s *model.Session) error
	InsertAssignment(ctx context.Context, a *model.InstructorAssignment) error
	WorkshopDependentCounts(ctx context.Context, workshopID int64) (DependentCounts, error)
	DeleteWorkshop(ctx context.Context, id int64) error
	DeleteCyclePayments(ctx context.Context, cycleID int64) (int64, error)
	DeleteCycleEnrollments(ctx context.Context, cycleID int64) (int64, error)
	DeleteCycleSessions(ctx context.Context, cycleID int64) (int64, error)
	DeleteCycleAssignments(ctx context.Context, cycleID int64) (int64, error)
	DeleteCycle(ctx context.Context, id int64) error

	// enrollments and payments
	HasActiveEnrollment(ctx context.Context, userID, cycleID int64) (bool, error)
	CountActiveEnrollments(ctx context.Context, cycleID int64) (int, error)
	InsertEnrollment(ctx context.Context, e *model.Enrollment) error
	InsertPayment(ctx context.Context, p *model.Payment) error
	GetEnrollment(ctx context.Context, id int64) (*model.Enrollment, error)
	ActiveEnrollment(ctx context.Context, userID, cycleID int64) (*model.Enrollment, error)
	CancelEnrollment(ctx context.Context, id int64, at time.Time) (bool, error)
	GetPayment(ctx context.Context, id int64) (*model.Payment, error)
	MarkPaymentPaid(ctx context.Context, id int64, at time.Time) (bool, error)
}

// TxRunner runs fn inside a serializable transaction stamped with the actor
// from ctx. A nil return from fn commits; any error rolls everything back.
// Commit-time conflicts surface as ErrSerialization or ErrUniqueViolation.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// EnrollmentStore is what the enrollment lifecycle engine needs.
type EnrollmentStore interface {
	TxRunner
	GetUser(ctx context.Context, id int64) (*model.User, error)
	ListCycleEnrollments(ctx context.Context, cycleID int64) ([]*model.Enrollment, error)
	ListUserEnrollments(ctx context.Context, userID int64) ([]*model.Enrollment, error)
}

// CleanupStore is what the cascading cleanup coordinator needs.
type CleanupStore interface {
	TxRunner
	GetUser(ctx context.Context, id int64) (*model.User, error)
}

// CatalogStore serves the plain read surface for workshops and cycles.
type CatalogStore interface {
	TxRunner
	GetUser(ctx context.Context, id int64) (*model.User, error)
	GetWorkshop(ctx context.Context, id int64) (*model.Workshop, error)
	ListWorkshops(ctx context.Context) ([]*model.Workshop, error)
	GetCycle(ctx context.Context, id int64) (*model.WorkshopCycle, error)
	ListWorkshopCycles(ctx context.Context, workshopID int64) ([]*model.WorkshopCycle, error)
	ListCycleSessions(ctx context.Context, cycleID int64) ([]*model.Session, error)
}

// Store is the full persistence surface, implemented by repository.Store.
type Store interface {
	EnrollmentStore
	CleanupStore
	CatalogStore
}
