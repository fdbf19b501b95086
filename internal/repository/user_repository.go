package repository

import (
	"context"
	"fmt"

	"github.com/atelierhub/enrollment_service/internal/model"
	"github.com/atelierhub/enrollment_service/internal/repository/base"
	"github.com/atelierhub/enrollment_service/internal/storage"
)

type UserRepository struct {
	db base.Querier
}

func NewUserRepository(db base.Querier) *UserRepository {
	return &UserRepository{db: db}
}

// InsertUser creates a user.
func (r *UserRepository) InsertUser(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (name, email, role)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query, u.Name, u.Email, u.Role).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUser returns a user by id.
func (r *UserRepository) GetUser(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT id, name, email, role, created_at FROM users WHERE id = $1`

	var u model.User
	err := r.db.QueryRow(ctx, query, id).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.CreatedAt)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// CountAdmins counts users holding the admin role. Deleting the last one is
// refused by the cleanup coordinator.
func (r *UserRepository) CountAdmins(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role = 'admin'`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return count, nil
}

// InstructorReferences counts live places where the user is still wired in
// as an instructor: workshop defaults, cycle overrides and assignments.
// A non-zero count blocks user deletion.
func (r *UserRepository) InstructorReferences(ctx context.Context, userID int64) (int64, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM workshops WHERE instructor_id = $1) +
			(SELECT COUNT(*) FROM workshop_cycles WHERE instructor_override_id = $1) +
			(SELECT COUNT(*) FROM instructor_assignments WHERE instructor_id = $1)
	`

	var count int64
	if err := r.db.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count instructor references: %w", err)
	}
	return count, nil
}

// DetachUserAuditLogs disowns the user's audit trail instead of deleting it:
// history survives the account, attributed to nobody.
func (r *UserRepository) DetachUserAuditLogs(ctx context.Context, userID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE audit_logs SET actor_id = NULL WHERE actor_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("detach user audit logs: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteUser removes the user row. All non-cascading references must have
// been cleared by the caller within the same transaction.
func (r *UserRepository) DeleteUser(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
