package repository

import (
	"context"
	"fmt"

	"github.com/atelierhub/enrollment_service/internal/model"
	"github.com/atelierhub/enrollment_service/internal/repository/base"
	"github.com/atelierhub/enrollment_service/internal/storage"
)

type CycleRepository struct {
	db base.Querier
}

func NewCycleRepository(db base.Querier) *CycleRepository {
	return &CycleRepository{db: db}
}

// InsertCycle creates a scheduled cycle for a workshop.
func (r *CycleRepository) InsertCycle(ctx context.Context, c *model.WorkshopCycle) error {
	query := `
		INSERT INTO workshop_cycles
			(workshop_id, start_date, end_date, is_open_for_enrollment,
			 max_participants_override, address_override_id, instructor_override_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(
		ctx, query,
		c.WorkshopID,
		c.StartDate,
		c.EndDate,
		c.IsOpenForEnrollment,
		c.MaxParticipantsOverride,
		c.AddressOverrideID,
		c.InstructorOverrideID,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert cycle: %w", err)
	}
	return nil
}

const cycleWithWorkshopQuery = `
	SELECT
		c.id, c.workshop_id, c.start_date, c.end_date, c.is_open_for_enrollment,
		c.max_participants_override, c.address_override_id, c.instructor_override_id,
		c.created_at,
		w.id, w.title, w.description, w.price_cents, w.max_participants,
		w.address_id, w.instructor_id, w.created_at
	FROM workshop_cycles c
	JOIN workshops w ON w.id = c.workshop_id
	WHERE c.id = $1
`

func (r *CycleRepository) scanCycleWithWorkshop(ctx context.Context, query string, id int64) (*model.WorkshopCycle, error) {
	var c model.WorkshopCycle
	var w model.Workshop
	err := r.db.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.WorkshopID,
		&c.StartDate,
		&c.EndDate,
		&c.IsOpenForEnrollment,
		&c.MaxParticipantsOverride,
		&c.AddressOverrideID,
		&c.InstructorOverrideID,
		&c.CreatedAt,
		&w.ID,
		&w.Title,
		&w.Description,
		&w.PriceCents,
		&w.MaxParticipants,
		&w.AddressID,
		&w.InstructorID,
		&w.CreatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get cycle: %w", err)
	}
	c.Workshop = &w
	return &c, nil
}

// GetCycle returns a cycle with its owning workshop attached.
func (r *CycleRepository) GetCycle(ctx context.Context, id int64) (*model.WorkshopCycle, error) {
	return r.scanCycleWithWorkshop(ctx, cycleWithWorkshopQuery, id)
}

// CycleForUpdate loads a cycle with its workshop and takes a row-level lock
// on the cycle. Concurrent joiners for the same cycle queue up on this lock,
// which makes the subsequent duplicate and capacity reads safe to act on.
// Only the cycle row is locked, so other cycles enroll in parallel.
func (r *CycleRepository) CycleForUpdate(ctx context.Context, id int64) (*model.WorkshopCycle, error) {
	return r.scanCycleWithWorkshop(ctx, cycleWithWorkshopQuery+` FOR UPDATE OF c`, id)
}

// SetCycleOpen flips the enrollment gate.
func (r *CycleRepository) SetCycleOpen(ctx context.Context, id int64, open bool) error {
	tag, err := r.db.Exec(ctx, `UPDATE workshop_cycles SET is_open_for_enrollment = $1 WHERE id = $2`, open, id)
	if err != nil {
		return fmt.Errorf("set cycle open: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListWorkshopCycles returns all cycles of a workshop, soonest first.
func (r *CycleRepository) ListWorkshopCycles(ctx context.Context, workshopID int64) ([]*model.WorkshopCycle, error) {
	query := `
		SELECT id, workshop_id, start_date, end_date, is_open_for_enrollment,
		       max_participants_override, address_override_id, instructor_override_id, created_at
		FROM workshop_cycles
		WHERE workshop_id = $1
		ORDER BY start_date ASC
	`

	rows, err := r.db.Query(ctx, query, workshopID)
	if err != nil {
		return nil, fmt.Errorf("list workshop cycles: %w", err)
	}
	defer rows.Close()

	var cycles []*model.WorkshopCycle
	for rows.Next() {
		var c model.WorkshopCycle
		err := rows.Scan(
			&c.ID,
			&c.WorkshopID,
			&c.StartDate,
			&c.EndDate,
			&c.IsOpenForEnrollment,
			&c.MaxParticipantsOverride,
			&c.AddressOverrideID,
			&c.InstructorOverrideID,
			&c.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		cycles = append(cycles, &c)
	}
	return cycles, rows.Err()
}

// DeleteCycle removes the cycle row itself. Dependents must already be gone;
// the cleanup coordinator issues the deletes in order inside one transaction.
func (r *CycleRepository) DeleteCycle(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM workshop_cycles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete cycle: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
