package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/atelierhub/enrollment_service/internal/actorctx"
	"github.com/atelierhub/enrollment_service/internal/audit"
	"github.com/atelierhub/enrollment_service/internal/model"
	"github.com/atelierhub/enrollment_service/internal/storage"
	"go.uber.org/zap"
)

// CleanupService removes cycles, workshops and users together with their
// dependents. Every removal is one transaction: a failure anywhere leaves
// everything intact.
type CleanupService struct {
	store  storage.CleanupStore
	audit  audit.Logger
	logger *zap.Logger
}

func NewCleanupService(store storage.CleanupStore, auditLog audit.Logger, logger *zap.Logger) *CleanupService {
	return &CleanupService{
		store:  store,
		audit:  auditLog,
		logger: logger,
	}
}

func (s *CleanupService) requireStaff(ctx context.Context, tx storage.Tx, callerID int64) error {
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
	return nil
}

// DeleteCycle removes a cycle and its dependents in dependency order:
// payments, enrollments, sessions, instructor assignments, then the cycle
// row. All five deletes share the transaction and its actor stamp.
func (s *CleanupService) DeleteCycle(ctx context.Context, callerID, cycleID int64) error {
	ctx = actorctx.WithActor(ctx, callerID)

	var payments, enrollments, sessions, assignments int64
	err := s.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := s.requireStaff(ctx, tx, callerID); err != nil {
			return err
		}

		var err error
		if payments, err = tx.DeleteCyclePayments(ctx, cycleID); err != nil {
			return err
		}
		if enrollments, err = tx.DeleteCycleEnrollments(ctx, cycleID); err != nil {
			return err
		}
		if sessions, err = tx.DeleteCycleSessions(ctx, cycleID); err != nil {
			return err
		}
		if assignments, err = tx.DeleteCycleAssignments(ctx, cycleID); err != nil {
			return err
		}

		if err = tx.DeleteCycle(ctx, cycleID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		err = mapStoreErr(err)
		recordFailure(ctx, s.audit, s.logger, audit.KindCycleDeleteRefused,
			fmt.Sprintf("cycle=%d caller=%d reason=%v", cycleID, callerID, err), err)
		return err
	}

	s.audit.Record(ctx, actorctx.ActorRef(ctx), audit.KindCycleDeleted,
		fmt.Sprintf("cycle=%d payments=%d enrollments=%d sessions=%d assignments=%d",
			cycleID, payments, enrollments, sessions, assignments))
	s.logger.Info("cycle deleted",
		zap.Int64("cycle_id", cycleID),
		zap.Int64("caller_id", callerID),
		zap.Int64("enrollments_removed", enrollments),
	)
	return nil
}

// DeleteWorkshop gathers pre-delete counts for the audit message, then
// issues the single top-level delete; the schema's ON DELETE CASCADE takes
// cycles, sessions, enrollments and payments transitively.
func (s *CleanupService) DeleteWorkshop(ctx context.Context, callerID, workshopID int64) error {
	ctx = actorctx.WithActor(ctx, callerID)

	var counts storage.DependentCounts
	err := s.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := s.requireStaff(ctx, tx, callerID); err != nil {
			return err
		}

		var err error
		if counts, err = tx.WorkshopDependentCounts(ctx, workshopID); err != nil {
			return err
		}

		if err = tx.DeleteWorkshop(ctx, workshopID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		err = mapStoreErr(err)
		recordFailure(ctx, s.audit, s.logger, audit.KindWorkshopDeleteRefused,
			fmt.Sprintf("workshop=%d caller=%d reason=%v", workshopID, callerID, err), err)
		return err
	}

	s.audit.Record(ctx, actorctx.ActorRef(ctx), audit.KindWorkshopDeleted,
		fmt.Sprintf("workshop=%d cycles=%d sessions=%d enrollments=%d payments=%d",
			workshopID, counts.Cycles, counts.Sessions, counts.Enrollments, counts.Payments))
	s.logger.Info("workshop deleted",
		zap.Int64("workshop_id", workshopID),
		zap.Int64("caller_id", callerID),
		zap.Int64("cycles_removed", counts.Cycles),
	)
	return nil
}

// DeleteUser removes a user account. Refused when the user is the last
// admin or is still wired in as an instructor anywhere; otherwise the user's
// audit trail is disowned and their enrollments (with payments) removed,
// all inside one transaction. Self-deletion runs with the actor suppressed
// so the cascade is attributed to system, not to the user being removed.
func (s *CleanupService) DeleteUser(ctx context.Context, callerID, userID int64) error {
	if callerID == userID {
		ctx = actorctx.Suppress(ctx)
	} else {
		ctx = actorctx.WithActor(ctx, callerID)
	}

	err := s.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		caller, err := tx.GetUser(ctx, callerID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ErrForbidden
			}
			return fmt.Errorf("get caller: %w", err)
		}
		if caller.Role != model.RoleAdmin && callerID != userID {
			return ErrForbidden
		}

		target, err := tx.GetUser(ctx, userID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("get user: %w", err)
		}

		// refuse to leave the system without any admin
		if target.Role == model.RoleAdmin {
			admins, err := tx.CountAdmins(ctx)
			if err != nil {
				return err
			}
			if admins <= 1 {
				return ErrLastAdmin
			}
		}

		// refuse to orphan workshops rather than silently null the instructor
		refs, err := tx.InstructorReferences(ctx, userID)
		if err != nil {
			return err
		}
		if refs > 0 {
			return ErrInstructorHasAssignments
		}

		if _, err := tx.DetachUserAuditLogs(ctx, userID); err != nil {
			return err
		}
		if _, err := tx.DeleteUserEnrollments(ctx, userID); err != nil {
			return err
		}
		return tx.DeleteUser(ctx, userID)
	})
	if err != nil {
		err = mapStoreErr(err)
		recordFailure(ctx, s.audit, s.logger, audit.KindUserDeleteRefused,
			fmt.Sprintf("user=%d caller=%d reason=%v", userID, callerID, err), err)
		return err
	}

	s.audit.Record(ctx, actorctx.ActorRef(ctx), audit.KindUserDeleted,
		fmt.Sprintf("user=%d caller=%d", userID, callerID))
	s.logger.Info("user deleted",
		zap.Int64("user_id", userID),
		zap.Int64("caller_id", callerID),
		zap.Bool("self", callerID == userID),
	)
	return nil
}
