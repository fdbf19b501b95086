package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atelierhub/enrollment_service/internal/actorctx"
	"github.com/atelierhub/enrollment_service/internal/audit"
	"github.com/atelierhub/enrollment_service/internal/model"
	"github.com/atelierhub/enrollment_service/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EnrollmentService is the capacity-safe enrollment and cancellation engine.
// Correctness under concurrent joins comes entirely from the store's
// transaction discipline (serializable isolation, cycle-row lock, fresh
// in-transaction counts); the service holds no in-memory state.
type EnrollmentService struct {
	store  storage.EnrollmentStore
	audit  audit.Logger
	logger *zap.Logger
	now    func() time.Time
}

func NewEnrollmentService(store storage.EnrollmentStore, auditLog audit.Logger, logger *zap.Logger) *EnrollmentService {
	return &EnrollmentService{
		store:  store,
		audit:  auditLog,
		logger: logger,
		now:    time.Now,
	}
}

// JoinCycle claims a seat for the user in a cycle. All checks and both
// inserts happen inside one serializable transaction: no partial enrollment
// or orphan payment is ever observable, and two racers for the last seat
// cannot both commit.
func (s *EnrollmentService) JoinCycle(ctx context.Context, userID, cycleID int64) (*model.Enrollment, error) {
	ctx = actorctx.WithActor(ctx, userID)

	var enrollment *model.Enrollment
	err := s.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		// lock the cycle row so same-cycle joiners serialize here
		cycle, err := tx.CycleForUpdate(ctx, cycleID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("get cycle: %w", err)
		}
		if !cycle.IsOpenForEnrollment {
			return ErrCycleClosed
		}

		exists, err := tx.HasActiveEnrollment(ctx, userID, cycleID)
		if err != nil {
			return fmt.Errorf("check duplicate: %w", err)
		}
		if exists {
			return ErrDuplicateEnrollment
		}

		eff := model.ResolveEffective(cycle, cycle.Workshop)
		if eff.CapacityLimited() {
			count, err := tx.CountActiveEnrollments(ctx, cycleID)
			if err != nil {
				return fmt.Errorf("count active enrollments: %w", err)
			}
			if count >= eff.MaxParticipants {
				return ErrCapacityExceeded
			}
		}

		enrollment = &model.Enrollment{
			UserID:          userID,
			WorkshopCycleID: cycleID,
			Status:          model.EnrollmentStatusActive,
			EnrolledAt:      s.now().UTC(),
		}
		if err := tx.InsertEnrollment(ctx, enrollment); err != nil {
			return err
		}

		if eff.PriceCents > 0 {
			payment := &model.Payment{
				EnrollmentID: enrollment.ID,
				Reference:    uuid.NewString(),
				AmountCents:  eff.PriceCents,
				Status:       model.PaymentStatusPending,
				CreatedAt:    s.now().UTC(),
			}
			if err := tx.InsertPayment(ctx, payment); err != nil {
				return err
			}
			enrollment.Payment = payment
		}

		enrollment.Cycle = cycle
		return nil
	})
	if err != nil {
		err = mapStoreErr(err)
		recordFailure(ctx, s.audit, s.logger, audit.KindEnrollmentRejected,
			fmt.Sprintf("user=%d cycle=%d reason=%v", userID, cycleID, err), err)
		return nil, err
	}

	s.audit.Record(ctx, actorctx.ActorRef(ctx), audit.KindEnrollmentCreated,
		fmt.Sprintf("enrollment=%d user=%d cycle=%d", enrollment.ID, userID, cycleID))
	s.logger.Info("user enrolled",
		zap.Int64("enrollment_id", enrollment.ID),
		zap.Int64("user_id", userID),
		zap.Int64("cycle_id", cycleID),
	)
	return enrollment, nil
}

// CancelEnrollment cancels an enrollment on behalf of staff or its owner.
// Cancelling an already-cancelled enrollment reports not found and changes
// nothing, so the seat can never be released twice.
func (s *EnrollmentService) CancelEnrollment(ctx context.Context, callerID, enrollmentID int64) error {
	ctx = actorctx.WithActor(ctx, callerID)

	err := s.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		caller, err := tx.GetUser(ctx, callerID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ErrForbidden
			}
			return fmt.Errorf("get caller: %w", err)
		}

		enrollment, err := tx.GetEnrollment(ctx, enrollmentID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("get enrollment: %w", err)
		}
		if !caller.IsStaff() && enrollment.UserID != callerID {
			return ErrForbidden
		}

		cancelled, err := tx.CancelEnrollment(ctx, enrollmentID, s.now().UTC())
		if err != nil {
			return err
		}
		if !cancelled {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		err = mapStoreErr(err)
		recordFailure(ctx, s.audit, s.logger, audit.KindEnrollmentCancelled,
			fmt.Sprintf("enrollment=%d caller=%d reason=%v", enrollmentID, callerID, err), err)
		return err
	}

	s.audit.Record(ctx, actorctx.ActorRef(ctx), audit.KindEnrollmentCancelled,
		fmt.Sprintf("enrollment=%d caller=%d", enrollmentID, callerID))
	s.logger.Info("enrollment cancelled",
		zap.Int64("enrollment_id", enrollmentID),
		zap.Int64("caller_id", callerID),
	)
	return nil
}

// CancelMyEnrollment cancels the caller's own Active enrollment in a cycle.
func (s *EnrollmentService) CancelMyEnrollment(ctx context.Context, userID, cycleID int64) error {
	ctx = actorctx.WithActor(ctx, userID)

	var enrollmentID int64
	err := s.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		enrollment, err := tx.ActiveEnrollment(ctx, userID, cycleID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("get active enrollment: %w", err)
		}
		enrollmentID = enrollment.ID

		cancelled, err := tx.CancelEnrollment(ctx, enrollment.ID, s.now().UTC())
		if err != nil {
			return err
		}
		if !cancelled {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		err = mapStoreErr(err)
		recordFailure(ctx, s.audit, s.logger, audit.KindEnrollmentCancelled,
			fmt.Sprintf("user=%d cycle=%d reason=%v", userID, cycleID, err), err)
		return err
	}

	s.audit.Record(ctx, actorctx.ActorRef(ctx), audit.KindEnrollmentCancelled,
		fmt.Sprintf("enrollment=%d user=%d cycle=%d", enrollmentID, userID, cycleID))
	s.logger.Info("enrollment cancelled by owner",
		zap.Int64("enrollment_id", enrollmentID),
		zap.Int64("user_id", userID),
		zap.Int64("cycle_id", cycleID),
	)
	return nil
}

// MarkPaymentPaid moves a payment from Pending to Paid. Staff only.
// Repeating the call on a Paid payment succeeds without touching the row,
// so providers may deliver their confirmation more than once.
func (s *EnrollmentService) MarkPaymentPaid(ctx context.Context, callerID, paymentID int64) (*model.Payment, error) {
	ctx = actorctx.WithActor(ctx, callerID)

	var payment *model.Payment
	var transitioned bool
	err := s.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		caller, err := tx.GetUser(ctx, callerID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ErrForbidden
			}
			return fmt.Errorf("get caller: %w", err)
		}
		if !caller.IsStaff() {
			return ErrForbidden
		}

		transitioned, err = tx.MarkPaymentPaid(ctx, paymentID, s.now().UTC())
		if err != nil {
			return err
		}

		payment, err = tx.GetPayment(ctx, paymentID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("get payment: %w", err)
		}
		return nil
	})
	if err != nil {
		err = mapStoreErr(err)
		recordFailure(ctx, s.audit, s.logger, audit.KindPaymentRejected,
			fmt.Sprintf("payment=%d caller=%d reason=%v", paymentID, callerID, err), err)
		return nil, err
	}

	if transitioned {
		s.audit.Record(ctx, actorctx.ActorRef(ctx), audit.KindPaymentPaid,
			fmt.Sprintf("payment=%d caller=%d", paymentID, callerID))
		s.logger.Info("payment marked paid",
			zap.Int64("payment_id", paymentID),
			zap.Int64("caller_id", callerID),
		)
	}
	return payment, nil
}

// ListCycleEnrollments returns the enrollments of a cycle.
func (s *EnrollmentService) ListCycleEnrollments(ctx context.Context, cycleID int64) ([]*model.Enrollment, error) {
	return s.store.ListCycleEnrollments(ctx, cycleID)
}

// ListUserEnrollments returns a user's enrollments.
func (s *EnrollmentService) ListUserEnrollments(ctx context.Context, userID int64) ([]*model.Enrollment, error) {
	return s.store.ListUserEnrollments(ctx, userID)
}
