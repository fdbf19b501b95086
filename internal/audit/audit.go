// Package audit emits the structured trail of state transitions. Emitting is
// best effort: a failed audit write is logged and swallowed, it must never
// abort the operation that triggered it.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Event kinds recorded by the services.
const (
	KindEnrollmentCreated     = "enrollment.created"
	KindEnrollmentRejected    = "enrollment.rejected"
	KindEnrollmentCancelled   = "enrollment.cancelled"
	KindPaymentPaid           = "payment.paid"
	KindPaymentRejected       = "payment.rejected"
	KindCycleCreated          = "cycle.created"
	KindCycleGateChanged      = "cycle.gate_changed"
	KindCycleDeleted          = "cycle.deleted"
	KindCycleDeleteRefused    = "cycle.delete_refused"
	KindWorkshopCreated       = "workshop.created"
	KindWorkshopDeleted       = "workshop.deleted"
	KindWorkshopDeleteRefused = "workshop.delete_refused"
	KindUserDeleted           = "user.deleted"
	KindUserDeleteRefused     = "user.delete_refused"
	KindInternalError         = "internal.error"
)

// Logger records one structured event per state transition, success or
// failure. Implementations must be safe to call after a rolled-back
// transaction and must not return errors to the caller.
type Logger interface {
	Record(ctx context.Context, actorID *int64, eventKind, details string)
}

// PgLogger writes audit rows to the audit_logs table using its own pool
// connection, deliberately outside the caller's transaction: a rejection is
// recorded even though the transaction it describes rolled back.
type PgLogger struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPgLogger(pool *pgxpool.Pool, logger *zap.Logger) *PgLogger {
	return &PgLogger{pool: pool, logger: logger}
}

func (l *PgLogger) Record(ctx context.Context, actorID *int64, eventKind, details string) {
	// detach from the caller's deadline; the caller may already be unwinding
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	eventID := uuid.NewString()
	_, err := l.pool.Exec(ctx,
		`INSERT INTO audit_logs (event_id, actor_id, event_kind, details) VALUES ($1, $2, $3, $4)`,
		eventID, actorID, eventKind, details,
	)
	if err != nil {
		l.logger.Warn("audit write failed",
			zap.String("event_id", eventID),
			zap.String("event_kind", eventKind),
			zap.String("details", details),
			zap.Error(err),
		)
		return
	}

	l.logger.Info("audit",
		zap.String("event_id", eventID),
		zap.String("event_kind", eventKind),
		zap.Int64p("actor_id", actorID),
		zap.String("details", details),
	)
}
