package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/atelierhub/enrollment_service/internal/actorctx"
	"github.com/atelierhub/enrollment_service/internal/model"
	"github.com/atelierhub/enrollment_service/internal/repository/base"
	"github.com/atelierhub/enrollment_service/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the pgx implementation of storage.Store. Reads run directly on
// the pool; mutations go through InTx, which wraps them in a serializable,
// actor-stamped transaction with a bounded timeout.
type Store struct {
	pool      *pgxpool.Pool
	txTimeout time.Duration

	users       *UserRepository
	workshops   *WorkshopRepository
	cycles      *CycleRepository
	sessions    *SessionRepository
	enrollments *EnrollmentRepository
}

func NewStore(pool *pgxpool.Pool, txTimeout time.Duration) *Store {
	return &Store{
		pool:      pool,
		txTimeout: txTimeout,

		users:       NewUserRepository(pool),
		workshops:   NewWorkshopRepository(pool),
		cycles:      NewCycleRepository(pool),
		sessions:    NewSessionRepository(pool),
		enrollments: NewEnrollmentRepository(pool),
	}
}

// txRepos bundles transaction-scoped repositories into one storage.Tx.
type txRepos struct {
	*UserRepository
	*WorkshopRepository
	*CycleRepository
	*SessionRepository
	*EnrollmentRepository
	*PaymentRepository
}

func newTxRepos(tx pgx.Tx) *txRepos {
	return &txRepos{
		UserRepository:       NewUserRepository(tx),
		WorkshopRepository:   NewWorkshopRepository(tx),
		CycleRepository:      NewCycleRepository(tx),
		SessionRepository:    NewSessionRepository(tx),
		EnrollmentRepository: NewEnrollmentRepository(tx),
		PaymentRepository:    NewPaymentRepository(tx),
	}
}

var _ storage.Tx = (*txRepos)(nil)
var _ storage.Store = (*Store)(nil)

// InTx runs fn inside a serializable transaction. Serializable isolation is
// what makes the duplicate and capacity reads consistent with the eventual
// insert: a concurrent writer for the same cycle forces one of the two
// transactions to abort with SQLSTATE 40001 instead of letting both commit.
// The transaction is stamped with the acting user before fn runs so
// storage-level audit mechanisms can attribute every statement.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.txTimeout)
	defer cancel()

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := actorctx.Stamp(ctx, tx); err != nil {
		return fmt.Errorf("stamp actor: %w", err)
	}

	if err := fn(ctx, newTxRepos(tx)); err != nil {
		return base.Classify(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return base.Classify(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// Plain read surface, delegated to pool-scoped repositories.

func (s *Store) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return s.users.GetUser(ctx, id)
}

func (s *Store) GetWorkshop(ctx context.Context, id int64) (*model.Workshop, error) {
	return s.workshops.GetWorkshop(ctx, id)
}

func (s *Store) ListWorkshops(ctx context.Context) ([]*model.Workshop, error) {
	return s.workshops.ListWorkshops(ctx)
}

func (s *Store) GetCycle(ctx context.Context, id int64) (*model.WorkshopCycle, error) {
	return s.cycles.GetCycle(ctx, id)
}

func (s *Store) ListWorkshopCycles(ctx context.Context, workshopID int64) ([]*model.WorkshopCycle, error) {
	return s.cycles.ListWorkshopCycles(ctx, workshopID)
}

func (s *Store) ListCycleSessions(ctx context.Context, cycleID int64) ([]*model.Session, error) {
	return s.sessions.ListCycleSessions(ctx, cycleID)
}

func (s *Store) ListCycleEnrollments(ctx context.Context, cycleID int64) ([]*model.Enrollment, error) {
	return s.enrollments.ListCycleEnrollments(ctx, cycleID)
}

func (s *Store) ListUserEnrollments(ctx context.Context, userID int64) ([]*model.Enrollment, error) {
	return s.enrollments.ListUserEnrollments(ctx, userID)
}
