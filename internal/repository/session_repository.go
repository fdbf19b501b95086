package repository

import (
	"context"
	"fmt"

	"github.com/atelierhub/enrollment_service/internal/model"
	"github.com/atelierhub/enrollment_service/internal/repository/base"
)

// SessionRepository covers a cycle's dated meetings and its instructor
// assignments, the two remaining cycle-owned tables.
type SessionRepository struct {
	db base.Querier
}

func NewSessionRepository(db base.Querier) *SessionRepository {
	return &SessionRepository{db: db}
}

// InsertSession adds a dated meeting to a cycle.
func (r *SessionRepository) InsertSession(ctx context.Context, s *model.Session) error {
	query := `
		INSERT INTO sessions (workshop_cycle_id, starts_at, ends_at, note)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query, s.WorkshopCycleID, s.StartsAt, s.EndsAt, s.Note).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// ListCycleSessions returns a cycle's sessions in chronological order.
func (r *SessionRepository) ListCycleSessions(ctx context.Context, cycleID int64) ([]*model.Session, error) {
	query := `
		SELECT id, workshop_cycle_id, starts_at, ends_at, note
		FROM sessions
		WHERE workshop_cycle_id = $1
		ORDER BY starts_at ASC
	`

	rows, err := r.db.Query(ctx, query, cycleID)
	if err != nil {
		return nil, fmt.Errorf("list cycle sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*model.Session
	for rows.Next() {
		var s model.Session
		if err := rows.Scan(&s.ID, &s.WorkshopCycleID, &s.StartsAt, &s.EndsAt, &s.Note); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, &s)
	}
	return sessions, rows.Err()
}

// InsertAssignment links an instructor to a cycle.
func (r *SessionRepository) InsertAssignment(ctx context.Context, a *model.InstructorAssignment) error {
	query := `
		INSERT INTO instructor_assignments (workshop_cycle_id, instructor_id, role)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query, a.WorkshopCycleID, a.InstructorID, a.Role).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("insert assignment: %w", err)
	}
	return nil
}

// DeleteCycleSessions removes all sessions of a cycle.
func (r *SessionRepository) DeleteCycleSessions(ctx context.Context, cycleID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE workshop_cycle_id = $1`, cycleID)
	if err != nil {
		return 0, fmt.Errorf("delete cycle sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteCycleAssignments removes all instructor assignments of a cycle.
func (r *SessionRepository) DeleteCycleAssignments(ctx context.Context, cycleID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM instructor_assignments WHERE workshop_cycle_id = $1`, cycleID)
	if err != nil {
		return 0, fmt.Errorf("delete cycle assignments: %w", err)
	}
	return tag.RowsAffected(), nil
}
