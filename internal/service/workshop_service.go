package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atelierhub/enrollment_service/internal/actorctx"
	"github.com/atelierhub/enrollment_service/internal/audit"
	"github.com/atelierhub/enrollment_service/internal/model"
	"github.com/atelierhub/enrollment_service/internal/storage"
	"go.uber.org/zap"
)

// WorkshopService covers the simple catalog operations around the
// enrollment engine: workshop and cycle creation, the enrollment gate,
// sessions and instructor assignments. No seat-allocation logic lives here.
type WorkshopService struct {
	store  storage.CatalogStore
	audit  audit.Logger
	logger *zap.Logger
}

func NewWorkshopService(store storage.CatalogStore, auditLog audit.Logger, logger *zap.Logger) *WorkshopService {
	return &WorkshopService{store: store, audit: auditLog, logger: logger}
}

func (s *WorkshopService) requireStaff(ctx context.Context, tx storage.Tx, callerID int64) error {
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

// CreateWorkshop validates and stores a workshop template.
func (s *WorkshopService) CreateWorkshop(ctx context.Context, callerID int64, w *model.Workshop) error {
	w.Title = strings.TrimSpace(w.Title)
	if w.Title == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if w.PriceCents < 0 {
		return fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}

	ctx = actorctx.WithActor(ctx, callerID)
	err := s.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := s.requireStaff(ctx, tx, callerID); err != nil {
			return err
		}
		return tx.InsertWorkshop(ctx, w)
	})
	if err != nil {
		return mapStoreErr(err)
	}

	s.audit.Record(ctx, actorctx.ActorRef(ctx), audit.KindWorkshopCreated,
		fmt.Sprintf("workshop=%d title=%q", w.ID, w.Title))
	s.logger.Info("workshop created", zap.Int64("workshop_id", w.ID), zap.String("title", w.Title))
	return nil
}

// CreateCycle schedules a new cycle for an existing workshop.
func (s *WorkshopService) CreateCycle(ctx context.Context, callerID int64, c *model.WorkshopCycle) error {
	if c.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrValidation)
	}
	if c.EndDate != nil && c.EndDate.Before(c.StartDate) {
		return fmt.Errorf("%w: end date before start date", ErrValidation)
	}

	ctx = actorctx.WithActor(ctx, callerID)
	err := s.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := s.requireStaff(ctx, tx, callerID); err != nil {
			return err
		}
		if _, err := tx.GetWorkshop(ctx, c.WorkshopID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}
		return tx.InsertCycle(ctx, c)
	})
	if err != nil {
		return mapStoreErr(err)
	}

	s.audit.Record(ctx, actorctx.ActorRef(ctx), audit.KindCycleCreated,
		fmt.Sprintf("cycle=%d workshop=%d", c.ID, c.WorkshopID))
	s.logger.Info("cycle created",
		zap.Int64("cycle_id", c.ID),
		zap.Int64("workshop_id", c.WorkshopID),
		zap.Time("start_date", c.StartDate),
	)
	return nil
}

// SetCycleOpen opens or closes a cycle's enrollment gate.
func (s *WorkshopService) SetCycleOpen(ctx context.Context, callerID, cycleID int64, open bool) error {
	ctx = actorctx.WithActor(ctx, callerID)
	err := s.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := s.requireStaff(ctx, tx, callerID); err != nil {
			return err
		}
		if err := tx.SetCycleOpen(ctx, cycleID, open); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return mapStoreErr(err)
	}

	s.audit.Record(ctx, actorctx.ActorRef(ctx), audit.KindCycleGateChanged,
		fmt.Sprintf("cycle=%d open=%t", cycleID, open))
	s.logger.Info("cycle gate changed", zap.Int64("cycle_id", cycleID), zap.Bool("open", open))
	return nil
}

// CreateSession adds a dated meeting to a cycle.
func (s *WorkshopService) CreateSession(ctx context.Context, callerID int64, sess *model.Session) error {
	if sess.EndsAt.Before(sess.StartsAt) {
		return fmt.Errorf("%w: session ends before it starts", ErrValidation)
	}

	ctx = actorctx.WithActor(ctx, callerID)
	err := s.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := s.requireStaff(ctx, tx, callerID); err != nil {
			return err
		}
		return tx.InsertSession(ctx, sess)
	})
	return mapStoreErr(err)
}

// AssignInstructor links an instructor to a cycle.
func (s *WorkshopService) AssignInstructor(ctx context.Context, callerID int64, a *model.InstructorAssignment) error {
	ctx = actorctx.WithActor(ctx, callerID)
	err := s.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := s.requireStaff(ctx, tx, callerID); err != nil {
			return err
		}
		instructor, err := tx.GetUser(ctx, a.InstructorID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}
		if instructor.Role != model.RoleInstructor && instructor.Role != model.RoleAdmin {
			return fmt.Errorf("%w: user %d is not an instructor", ErrValidation, a.InstructorID)
		}
		return tx.InsertAssignment(ctx, a)
	})
	return mapStoreErr(err)
}

// CreateUser registers a user account.
func (s *WorkshopService) CreateUser(ctx context.Context, u *model.User) error {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.TrimSpace(strings.ToLower(u.Email))
	if u.Name == "" || u.Email == "" {
		return fmt.Errorf("%w: name and email are required", ErrValidation)
	}
	if u.Role == "" {
		u.Role = model.RoleMember
	}

	err := s.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		return tx.InsertUser(ctx, u)
	})
	if errors.Is(err, storage.ErrUniqueViolation) {
		return fmt.Errorf("%w: email already registered", ErrValidation)
	}
	return mapStoreErr(err)
}

// GetWorkshop returns one workshop.
func (s *WorkshopService) GetWorkshop(ctx context.Context, id int64) (*model.Workshop, error) {
	w, err := s.store.GetWorkshop(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return w, nil
}

// ListWorkshops returns all workshops.
func (s *WorkshopService) ListWorkshops(ctx context.Context) ([]*model.Workshop, error) {
	return s.store.ListWorkshops(ctx)
}

// GetCycle returns a cycle with its workshop and resolved effective settings.
func (s *WorkshopService) GetCycle(ctx context.Context, id int64) (*model.WorkshopCycle, model.EffectiveSettings, error) {
	c, err := s.store.GetCycle(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, model.EffectiveSettings{}, ErrNotFound
		}
		return nil, model.EffectiveSettings{}, err
	}
	return c, model.ResolveEffective(c, c.Workshop), nil
}

// ListWorkshopCycles returns a workshop's cycles.
func (s *WorkshopService) ListWorkshopCycles(ctx context.Context, workshopID int64) ([]*model.WorkshopCycle, error) {
	return s.store.ListWorkshopCycles(ctx, workshopID)
}

// ListCycleSessions returns a cycle's sessions.
func (s *WorkshopService) ListCycleSessions(ctx context.Context, cycleID int64) ([]*model.Session, error) {
	return s.store.ListCycleSessions(ctx, cycleID)
}
