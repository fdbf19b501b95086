package service

import (
	"context"
	"errors"

	"github.com/atelierhub/enrollment_service/internal/actorctx"
	"github.com/atelierhub/enrollment_service/internal/audit"
	"github.com/atelierhub/enrollment_service/internal/storage"
	"go.uber.org/zap"
)

// Typed rejections returned to callers. Business-rule rejections are detected
// before any write; ErrConflict is the only retryable one and covers
// serialization failures and constraint races surfaced at commit time.
var (
	ErrValidation          = errors.New("invalid input")
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrCycleClosed         = errors.New("cycle is closed for enrollment")
	ErrCapacityExceeded    = errors.New("cycle is fully booked")
	ErrDuplicateEnrollment = errors.New("already enrolled in this cycle")
	ErrConflict            = errors.New("conflicting concurrent update, retry")

	ErrLastAdmin                = errors.New("cannot delete the last admin")
	ErrInstructorHasAssignments = errors.New("instructor still referenced by workshops or cycles")
)

// IsRetryable reports whether the caller may retry the operation once.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}

// mapStoreErr converts commit-time store failures into the retryable
// ErrConflict. A unique violation here means a concurrent transaction won a
// race that slipped past the in-transaction checks; a serialization failure
// means the store aborted us to keep the reads consistent. Both are safe to
// retry, unlike the proactively detected business rejections.
func mapStoreErr(err error) error {
	if errors.Is(err, storage.ErrSerialization) || errors.Is(err, storage.ErrUniqueViolation) {
		return ErrConflict
	}
	return err
}

// recordFailure audits a failed operation. Typed rejections keep the given
// kind; unexpected failures get the internal kind so the generic message
// shown to the caller keeps its detailed cause only in the audit stream.
func recordFailure(ctx context.Context, auditLog audit.Logger, logger *zap.Logger, kind, details string, err error) {
	if !isExpected(err) {
		kind = audit.KindInternalError
		logger.Error("operation failed", zap.String("details", details), zap.Error(err))
	}
	auditLog.Record(ctx, actorctx.ActorRef(ctx), kind, details)
}

// isExpected reports whether err is one of the typed rejections, as opposed
// to an unexpected internal failure.
func isExpected(err error) bool {
	for _, known := range []error{
		ErrValidation, ErrNotFound, ErrForbidden, ErrCycleClosed,
		ErrCapacityExceeded, ErrDuplicateEnrollment, ErrConflict,
		ErrLastAdmin, ErrInstructorHasAssignments,
	} {
		if errors.Is(err, known) {
			return true
		}
	}
	return false
}
