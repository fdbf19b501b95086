package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/atelierhub/enrollment_service/internal/model"
	"github.com/atelierhub/enrollment_service/internal/repository/base"
	"github.com/atelierhub/enrollment_service/internal/storage"
)

type EnrollmentRepository struct {
	db base.Querier
}

func NewEnrollmentRepository(db base.Querier) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentColumns = `id, user_id, workshop_cycle_id, status, enrolled_at, cancelled_at`

func scanEnrollment(row interface{ Scan(...any) error }) (*model.Enrollment, error) {
	var e model.Enrollment
	err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.WorkshopCycleID,
		&e.Status,
		&e.EnrolledAt,
		&e.CancelledAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// InsertEnrollment creates a new enrollment row and fills in the generated id.
func (r *EnrollmentRepository) InsertEnrollment(ctx context.Context, e *model.Enrollment) error {
	query := `
		INSERT INTO enrollments (user_id, workshop_cycle_id, status, enrolled_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query, e.UserID, e.WorkshopCycleID, e.Status, e.EnrolledAt).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("insert enrollment: %w", err)
	}
	return nil
}

// GetEnrollment returns an enrollment by id.
func (r *EnrollmentRepository) GetEnrollment(ctx context.Context, id int64) (*model.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE id = $1`

	e, err := scanEnrollment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get enrollment: %w", err)
	}
	return e, nil
}

// ActiveEnrollment returns the user's Active enrollment in a cycle, if any.
func (r *EnrollmentRepository) ActiveEnrollment(ctx context.Context, userID, cycleID int64) (*model.Enrollment, error) {
	query := `
		SELECT ` + enrollmentColumns + `
		FROM enrollments
		WHERE user_id = $1 AND workshop_cycle_id = $2 AND status = 'active'
	`

	e, err := scanEnrollment(r.db.QueryRow(ctx, query, userID, cycleID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get active enrollment: %w", err)
	}
	return e, nil
}

// HasActiveEnrollment reports whether the user already holds an Active
// enrollment in the cycle.
func (r *EnrollmentRepository) HasActiveEnrollment(ctx context.Context, userID, cycleID int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM enrollments
			WHERE user_id = $1 AND workshop_cycle_id = $2 AND status = 'active'
		)
	`

	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, cycleID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check active enrollment: %w", err)
	}
	return exists, nil
}

// CountActiveEnrollments counts Active seats taken in a cycle. Always a fresh
// count, never a cached number, so replicas cannot drift.
func (r *EnrollmentRepository) CountActiveEnrollments(ctx context.Context, cycleID int64) (int, error) {
	query := `SELECT COUNT(*) FROM enrollments WHERE workshop_cycle_id = $1 AND status = 'active'`

	var count int
	if err := r.db.QueryRow(ctx, query, cycleID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active enrollments: %w", err)
	}
	return count, nil
}

// CancelEnrollment flips an Active enrollment to Cancelled. The status guard
// in the WHERE clause makes repeated cancels report false instead of
// touching the row again.
func (r *EnrollmentRepository) CancelEnrollment(ctx context.Context, id int64, at time.Time) (bool, error) {
	query := `
		UPDATE enrollments
		SET status = 'cancelled', cancelled_at = $1
		WHERE id = $2 AND status = 'active'
	`

	tag, err := r.db.Exec(ctx, query, at, id)
	if err != nil {
		return false, fmt.Errorf("cancel enrollment: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListCycleEnrollments returns all enrollments for a cycle, newest first.
func (r *EnrollmentRepository) ListCycleEnrollments(ctx context.Context, cycleID int64) ([]*model.Enrollment, error) {
	query := `
		SELECT ` + enrollmentColumns + `
		FROM enrollments
		WHERE workshop_cycle_id = $1
		ORDER BY enrolled_at DESC
	`

	rows, err := r.db.Query(ctx, query, cycleID)
	if err != nil {
		return nil, fmt.Errorf("list cycle enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []*model.Enrollment
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		enrollments = append(enrollments, e)
	}
	return enrollments, rows.Err()
}

// ListUserEnrollments returns all enrollments of a user, newest first.
func (r *EnrollmentRepository) ListUserEnrollments(ctx context.Context, userID int64) ([]*model.Enrollment, error) {
	query := `
		SELECT ` + enrollmentColumns + `
		FROM enrollments
		WHERE user_id = $1
		ORDER BY enrolled_at DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list user enrollments: %w", err)
	}
	defer rows.Close()

	var enrollments []*model.Enrollment
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		enrollments = append(enrollments, e)
	}
	return enrollments, rows.Err()
}

// DeleteCycleEnrollments removes all enrollments of a cycle. Payments must be
// deleted first: the cleanup coordinator orders the statements.
func (r *EnrollmentRepository) DeleteCycleEnrollments(ctx context.Context, cycleID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM enrollments WHERE workshop_cycle_id = $1`, cycleID)
	if err != nil {
		return 0, fmt.Errorf("delete cycle enrollments: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteUserEnrollments removes all enrollments of a user; their payments go
// with them via the payments foreign key cascade.
func (r *EnrollmentRepository) DeleteUserEnrollments(ctx context.Context, userID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM enrollments WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete user enrollments: %w", err)
	}
	return tag.RowsAffected(), nil
}
