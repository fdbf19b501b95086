package repository

import (
	"context"
	"fmt"

	"github.com/atelierhub/enrollment_service/internal/model"
	"github.com/atelierhub/enrollment_service/internal/repository/base"
	"github.com/atelierhub/enrollment_service/internal/storage"
)

type WorkshopRepository struct {
	db base.Querier
}

func NewWorkshopRepository(db base.Querier) *WorkshopRepository {
	return &WorkshopRepository{db: db}
}

// InsertWorkshop creates a workshop template.
func (r *WorkshopRepository) InsertWorkshop(ctx context.Context, w *model.Workshop) error {
	query := `
		INSERT INTO workshops (title, description, price_cents, max_participants, address_id, instructor_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(
		ctx, query,
		w.Title,
		w.Description,
		w.PriceCents,
		w.MaxParticipants,
		w.AddressID,
		w.InstructorID,
	).Scan(&w.ID, &w.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert workshop: %w", err)
	}
	return nil
}

// GetWorkshop returns a workshop by id.
func (r *WorkshopRepository) GetWorkshop(ctx context.Context, id int64) (*model.Workshop, error) {
	query := `
		SELECT id, title, description, price_cents, max_participants, address_id, instructor_id, created_at
		FROM workshops
		WHERE id = $1
	`

	var w model.Workshop
	err := r.db.QueryRow(ctx, query, id).Scan(
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
		return nil, fmt.Errorf("get workshop: %w", err)
	}
	return &w, nil
}

// ListWorkshops returns all workshops, newest first.
func (r *WorkshopRepository) ListWorkshops(ctx context.Context) ([]*model.Workshop, error) {
	query := `
		SELECT id, title, description, price_cents, max_participants, address_id, instructor_id, created_at
		FROM workshops
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list workshops: %w", err)
	}
	defer rows.Close()

	var workshops []*model.Workshop
	for rows.Next() {
		var w model.Workshop
		err := rows.Scan(
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
			return nil, fmt.Errorf("scan workshop: %w", err)
		}
		workshops = append(workshops, &w)
	}
	return workshops, rows.Err()
}

// WorkshopDependentCounts reads, inside the delete transaction, how many
// rows the cascade is about to take with the workshop. Used only for the
// audit message.
func (r *WorkshopRepository) WorkshopDependentCounts(ctx context.Context, workshopID int64) (storage.DependentCounts, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM workshop_cycles WHERE workshop_id = $1),
			(SELECT COUNT(*) FROM sessions s
				JOIN workshop_cycles c ON c.id = s.workshop_cycle_id
				WHERE c.workshop_id = $1),
			(SELECT COUNT(*) FROM enrollments e
				JOIN workshop_cycles c ON c.id = e.workshop_cycle_id
				WHERE c.workshop_id = $1),
			(SELECT COUNT(*) FROM payments p
				JOIN enrollments e ON e.id = p.enrollment_id
				JOIN workshop_cycles c ON c.id = e.workshop_cycle_id
				WHERE c.workshop_id = $1)
	`

	var counts storage.DependentCounts
	err := r.db.QueryRow(ctx, query, workshopID).Scan(
		&counts.Cycles,
		&counts.Sessions,
		&counts.Enrollments,
		&counts.Payments,
	)
	if err != nil {
		return storage.DependentCounts{}, fmt.Errorf("count workshop dependents: %w", err)
	}
	return counts, nil
}

// DeleteWorkshop issues the single top-level delete; cycles, sessions,
// enrollments and payments go transitively via ON DELETE CASCADE.
func (r *WorkshopRepository) DeleteWorkshop(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM workshops WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete workshop: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
