package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/atelierhub/enrollment_service/internal/model"
	"github.com/atelierhub/enrollment_service/internal/repository/base"
	"github.com/atelierhub/enrollment_service/internal/storage"
)

type PaymentRepository struct {
	db base.Querier
}

func NewPaymentRepository(db base.Querier) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// InsertPayment creates a payment row linked to an enrollment.
func (r *PaymentRepository) InsertPayment(ctx context.Context, p *model.Payment) error {
	query := `
		INSERT INTO payments (enrollment_id, reference, amount_cents, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query, p.EnrollmentID, p.Reference, p.AmountCents, p.Status, p.CreatedAt).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// GetPayment returns a payment by id.
func (r *PaymentRepository) GetPayment(ctx context.Context, id int64) (*model.Payment, error) {
	query := `
		SELECT id, enrollment_id, reference, amount_cents, status, created_at, paid_at
		FROM payments
		WHERE id = $1
	`

	var p model.Payment
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.EnrollmentID,
		&p.Reference,
		&p.AmountCents,
		&p.Status,
		&p.CreatedAt,
		&p.PaidAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return &p, nil
}

// MarkPaymentPaid moves a Pending payment to Paid. Repeats report false and
// leave the original paid_at untouched, which makes the action idempotent.
func (r *PaymentRepository) MarkPaymentPaid(ctx context.Context, id int64, at time.Time) (bool, error) {
	query := `
		UPDATE payments
		SET status = 'paid', paid_at = $1
		WHERE id = $2 AND status = 'pending'
	`

	tag, err := r.db.Exec(ctx, query, at, id)
	if err != nil {
		return false, fmt.Errorf("mark payment paid: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteCyclePayments removes every payment hanging off a cycle's
// enrollments. Runs before the enrollments themselves are deleted.
func (r *PaymentRepository) DeleteCyclePayments(ctx context.Context, cycleID int64) (int64, error) {
	query := `
		DELETE FROM payments
		WHERE enrollment_id IN (
			SELECT id FROM enrollments WHERE workshop_cycle_id = $1
		)
	`

	tag, err := r.db.Exec(ctx, query, cycleID)
	if err != nil {
		return 0, fmt.Errorf("delete cycle payments: %w", err)
	}
	return tag.RowsAffected(), nil
}
