package service

import (
	"context"
	"sort"
	"time"

	"github.com/atelierhub/enrollment_service/internal/model"
	"github.com/atelierhub/enrollment_service/internal/storage"
)

// fakeAudit collects emitted events for assertions.
type fakeAudit struct {
	kinds   []string
	details []string
	actors  []*int64
}

func (f *fakeAudit) Record(ctx context.Context, actorID *int64, eventKind, details string) {
	f.kinds = append(f.kinds, eventKind)
	f.details = append(f.details, details)
	f.actors = append(f.actors, actorID)
}

// fakeStore is an in-memory storage.Store. InTx applies fn directly against
// the shared state; commitErr simulates a conflict surfaced at commit time,
// in which case fn's writes are rolled back by restoring a snapshot.
type fakeStore struct {
	tx        *fakeTx
	commitErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{tx: newFakeTx()}
}

func (s *fakeStore) InTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	snapshot := s.tx.clone()
	if err := fn(ctx, s.tx); err != nil {
		*s.tx = *snapshot
		return err
	}
	if s.commitErr != nil {
		*s.tx = *snapshot
		return s.commitErr
	}
	return nil
}

func (s *fakeStore) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return s.tx.GetUser(ctx, id)
}

func (s *fakeStore) GetWorkshop(ctx context.Context, id int64) (*model.Workshop, error) {
	return s.tx.GetWorkshop(ctx, id)
}

func (s *fakeStore) ListWorkshops(ctx context.Context) ([]*model.Workshop, error) {
	var out []*model.Workshop
	for _, w := range s.tx.workshops {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) GetCycle(ctx context.Context, id int64) (*model.WorkshopCycle, error) {
	return s.tx.CycleForUpdate(ctx, id)
}

func (s *fakeStore) ListWorkshopCycles(ctx context.Context, workshopID int64) ([]*model.WorkshopCycle, error) {
	var out []*model.WorkshopCycle
	for _, c := range s.tx.cycles {
		if c.WorkshopID == workshopID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *fakeStore) ListCycleSessions(ctx context.Context, cycleID int64) ([]*model.Session, error) {
	var out []*model.Session
	for _, sess := range s.tx.sessions {
		if sess.WorkshopCycleID == cycleID {
			out = append(out, sess)
		}
	}
	return out, nil
}

func (s *fakeStore) ListCycleEnrollments(ctx context.Context, cycleID int64) ([]*model.Enrollment, error) {
	var out []*model.Enrollment
	for _, e := range s.tx.enrollments {
		if e.WorkshopCycleID == cycleID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) ListUserEnrollments(ctx context.Context, userID int64) ([]*model.Enrollment, error) {
	var out []*model.Enrollment
	for _, e := range s.tx.enrollments {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// fakeTx implements storage.Tx over maps. Error fields let tests inject
// failures at specific operations.
type fakeTx struct {
	users       map[int64]*model.User
	workshops   map[int64]*model.Workshop
	cycles      map[int64]*model.WorkshopCycle
	sessions    map[int64]*model.Session
	assignments map[int64]*model.InstructorAssignment
	enrollments map[int64]*model.Enrollment
	payments    map[int64]*model.Payment
	auditActors map[int64]int64 // audit log id -> actor

	nextID int64
	ops    []string // mutation order, for cascade assertions

	insertEnrollmentErr error
	insertPaymentErr    error
}

func newFakeTx() *fakeTx {
	return &fakeTx{
		users:       make(map[int64]*model.User),
		workshops:   make(map[int64]*model.Workshop),
		cycles:      make(map[int64]*model.WorkshopCycle),
		sessions:    make(map[int64]*model.Session),
		assignments: make(map[int64]*model.InstructorAssignment),
		enrollments: make(map[int64]*model.Enrollment),
		payments:    make(map[int64]*model.Payment),
		auditActors: make(map[int64]int64),
	}
}

func (t *fakeTx) clone() *fakeTx {
	c := newFakeTx()
	c.nextID = t.nextID
	c.ops = append([]string(nil), t.ops...)
	c.insertEnrollmentErr = t.insertEnrollmentErr
	c.insertPaymentErr = t.insertPaymentErr
	for k, v := range t.users {
		u := *v
		c.users[k] = &u
	}
	for k, v := range t.workshops {
		w := *v
		c.workshops[k] = &w
	}
	for k, v := range t.cycles {
		cy := *v
		c.cycles[k] = &cy
	}
	for k, v := range t.sessions {
		s := *v
		c.sessions[k] = &s
	}
	for k, v := range t.assignments {
		a := *v
		c.assignments[k] = &a
	}
	for k, v := range t.enrollments {
		e := *v
		c.enrollments[k] = &e
	}
	for k, v := range t.payments {
		p := *v
		c.payments[k] = &p
	}
	for k, v := range t.auditActors {
		c.auditActors[k] = v
	}
	return c
}

func (t *fakeTx) id() int64 {
	t.nextID++
	return t.nextID
}

// seeding helpers

func (t *fakeTx) addUser(role model.UserRole) *model.User {
	u := &model.User{ID: t.id(), Name: "user", Email: "u@example.com", Role: role}
	t.users[u.ID] = u
	return u
}

func (t *fakeTx) addWorkshop(priceCents int64, maxParticipants int) *model.Workshop {
	w := &model.Workshop{ID: t.id(), Title: "w", PriceCents: priceCents, MaxParticipants: maxParticipants}
	t.workshops[w.ID] = w
	return w
}

func (t *fakeTx) addCycle(w *model.Workshop, open bool) *model.WorkshopCycle {
	c := &model.WorkshopCycle{
		ID:                  t.id(),
		WorkshopID:          w.ID,
		StartDate:           time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC),
		IsOpenForEnrollment: open,
		Workshop:            w,
	}
	t.cycles[c.ID] = c
	return c
}

func (t *fakeTx) addEnrollment(userID, cycleID int64, status model.EnrollmentStatus) *model.Enrollment {
	e := &model.Enrollment{
		ID:              t.id(),
		UserID:          userID,
		WorkshopCycleID: cycleID,
		Status:          status,
		EnrolledAt:      time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC),
	}
	t.enrollments[e.ID] = e
	return e
}

// storage.Tx implementation

func (t *fakeTx) GetUser(ctx context.Context, id int64) (*model.User, error) {
	u, ok := t.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return u, nil
}

func (t *fakeTx) InsertUser(ctx context.Context, u *model.User) error {
	u.ID = t.id()
	t.users[u.ID] = u
	return nil
}

func (t *fakeTx) CountAdmins(ctx context.Context) (int, error) {
	count := 0
	for _, u := range t.users {
		if u.Role == model.RoleAdmin {
			count++
		}
	}
	return count, nil
}

func (t *fakeTx) InstructorReferences(ctx context.Context, userID int64) (int64, error) {
	var count int64
	for _, w := range t.workshops {
		if w.InstructorID != nil && *w.InstructorID == userID {
			count++
		}
	}
	for _, c := range t.cycles {
		if c.InstructorOverrideID != nil && *c.InstructorOverrideID == userID {
			count++
		}
	}
	for _, a := range t.assignments {
		if a.InstructorID == userID {
			count++
		}
	}
	return count, nil
}

func (t *fakeTx) DetachUserAuditLogs(ctx context.Context, userID int64) (int64, error) {
	t.ops = append(t.ops, "detach_audit_logs")
	var n int64
	for id, actor := range t.auditActors {
		if actor == userID {
			delete(t.auditActors, id)
			n++
		}
	}
	return n, nil
}

func (t *fakeTx) DeleteUserEnrollments(ctx context.Context, userID int64) (int64, error) {
	t.ops = append(t.ops, "delete_user_enrollments")
	var n int64
	for id, e := range t.enrollments {
		if e.UserID == userID {
			for pid, p := range t.payments {
				if p.EnrollmentID == id {
					delete(t.payments, pid)
				}
			}
			delete(t.enrollments, id)
			n++
		}
	}
	return n, nil
}

func (t *fakeTx) DeleteUser(ctx context.Context, id int64) error {
	t.ops = append(t.ops, "delete_user")
	if _, ok := t.users[id]; !ok {
		return storage.ErrNotFound
	}
	delete(t.users, id)
	return nil
}

func (t *fakeTx) InsertWorkshop(ctx context.Context, w *model.Workshop) error {
	w.ID = t.id()
	t.workshops[w.ID] = w
	return nil
}

func (t *fakeTx) GetWorkshop(ctx context.Context, id int64) (*model.Workshop, error) {
	w, ok := t.workshops[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return w, nil
}

func (t *fakeTx) InsertCycle(ctx context.Context, c *model.WorkshopCycle) error {
	c.ID = t.id()
	t.cycles[c.ID] = c
	return nil
}

func (t *fakeTx) CycleForUpdate(ctx context.Context, id int64) (*model.WorkshopCycle, error) {
	c, ok := t.cycles[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if c.Workshop == nil {
		c.Workshop = t.workshops[c.WorkshopID]
	}
	return c, nil
}

func (t *fakeTx) SetCycleOpen(ctx context.Context, id int64, open bool) error {
	c, ok := t.cycles[id]
	if !ok {
		return storage.ErrNotFound
	}
	c.IsOpenForEnrollment = open
	return nil
}

func (t *fakeTx) InsertSession(ctx context.Context, s *model.Session) error {
	s.ID = t.id()
	t.sessions[s.ID] = s
	return nil
}

func (t *fakeTx) InsertAssignment(ctx context.Context, a *model.InstructorAssignment) error {
	a.ID = t.id()
	t.assignments[a.ID] = a
	return nil
}

func (t *fakeTx) WorkshopDependentCounts(ctx context.Context, workshopID int64) (storage.DependentCounts, error) {
	var counts storage.DependentCounts
	for _, c := range t.cycles {
		if c.WorkshopID != workshopID {
			continue
		}
		counts.Cycles++
		for _, s := range t.sessions {
			if s.WorkshopCycleID == c.ID {
				counts.Sessions++
			}
		}
		for _, e := range t.enrollments {
			if e.WorkshopCycleID == c.ID {
				counts.Enrollments++
				for _, p := range t.payments {
					if p.EnrollmentID == e.ID {
						counts.Payments++
					}
				}
			}
		}
	}
	return counts, nil
}

func (t *fakeTx) DeleteWorkshop(ctx context.Context, id int64) error {
	t.ops = append(t.ops, "delete_workshop")
	if _, ok := t.workshops[id]; !ok {
		return storage.ErrNotFound
	}
	// mirror ON DELETE CASCADE
	for cid, c := range t.cycles {
		if c.WorkshopID != id {
			continue
		}
		for sid, s := range t.sessions {
			if s.WorkshopCycleID == cid {
				delete(t.sessions, sid)
			}
		}
		for eid, e := range t.enrollments {
			if e.WorkshopCycleID == cid {
				for pid, p := range t.payments {
					if p.EnrollmentID == eid {
						delete(t.payments, pid)
					}
				}
				delete(t.enrollments, eid)
			}
		}
		for aid, a := range t.assignments {
			if a.WorkshopCycleID == cid {
				delete(t.assignments, aid)
			}
		}
		delete(t.cycles, cid)
	}
	delete(t.workshops, id)
	return nil
}

func (t *fakeTx) DeleteCyclePayments(ctx context.Context, cycleID int64) (int64, error) {
	t.ops = append(t.ops, "delete_payments")
	var n int64
	for pid, p := range t.payments {
		e, ok := t.enrollments[p.EnrollmentID]
		if ok && e.WorkshopCycleID == cycleID {
			delete(t.payments, pid)
			n++
		}
	}
	return n, nil
}

func (t *fakeTx) DeleteCycleEnrollments(ctx context.Context, cycleID int64) (int64, error) {
	t.ops = append(t.ops, "delete_enrollments")
	var n int64
	for eid, e := range t.enrollments {
		if e.WorkshopCycleID == cycleID {
			delete(t.enrollments, eid)
			n++
		}
	}
	return n, nil
}

func (t *fakeTx) DeleteCycleSessions(ctx context.Context, cycleID int64) (int64, error) {
	t.ops = append(t.ops, "delete_sessions")
	var n int64
	for sid, s := range t.sessions {
		if s.WorkshopCycleID == cycleID {
			delete(t.sessions, sid)
			n++
		}
	}
	return n, nil
}

func (t *fakeTx) DeleteCycleAssignments(ctx context.Context, cycleID int64) (int64, error) {
	t.ops = append(t.ops, "delete_assignments")
	var n int64
	for aid, a := range t.assignments {
		if a.WorkshopCycleID == cycleID {
			delete(t.assignments, aid)
			n++
		}
	}
	return n, nil
}

func (t *fakeTx) DeleteCycle(ctx context.Context, id int64) error {
	t.ops = append(t.ops, "delete_cycle")
	if _, ok := t.cycles[id]; !ok {
		return storage.ErrNotFound
	}
	delete(t.cycles, id)
	return nil
}

func (t *fakeTx) HasActiveEnrollment(ctx context.Context, userID, cycleID int64) (bool, error) {
	for _, e := range t.enrollments {
		if e.UserID == userID && e.WorkshopCycleID == cycleID && e.Status == model.EnrollmentStatusActive {
			return true, nil
		}
	}
	return false, nil
}

func (t *fakeTx) CountActiveEnrollments(ctx context.Context, cycleID int64) (int, error) {
	count := 0
	for _, e := range t.enrollments {
		if e.WorkshopCycleID == cycleID && e.Status == model.EnrollmentStatusActive {
			count++
		}
	}
	return count, nil
}

func (t *fakeTx) InsertEnrollment(ctx context.Context, e *model.Enrollment) error {
	if t.insertEnrollmentErr != nil {
		return t.insertEnrollmentErr
	}
	e.ID = t.id()
	stored := *e
	stored.Cycle = nil
	stored.Payment = nil
	t.enrollments[e.ID] = &stored
	return nil
}

func (t *fakeTx) InsertPayment(ctx context.Context, p *model.Payment) error {
	if t.insertPaymentErr != nil {
		return t.insertPaymentErr
	}
	p.ID = t.id()
	stored := *p
	t.payments[p.ID] = &stored
	return nil
}

func (t *fakeTx) GetEnrollment(ctx context.Context, id int64) (*model.Enrollment, error) {
	e, ok := t.enrollments[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return e, nil
}

func (t *fakeTx) ActiveEnrollment(ctx context.Context, userID, cycleID int64) (*model.Enrollment, error) {
	for _, e := range t.enrollments {
		if e.UserID == userID && e.WorkshopCycleID == cycleID && e.Status == model.EnrollmentStatusActive {
			return e, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (t *fakeTx) CancelEnrollment(ctx context.Context, id int64, at time.Time) (bool, error) {
	e, ok := t.enrollments[id]
	if !ok || e.Status != model.EnrollmentStatusActive {
		return false, nil
	}
	e.Status = model.EnrollmentStatusCancelled
	e.CancelledAt = &at
	return true, nil
}

func (t *fakeTx) GetPayment(ctx context.Context, id int64) (*model.Payment, error) {
	p, ok := t.payments[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return p, nil
}

func (t *fakeTx) MarkPaymentPaid(ctx context.Context, id int64, at time.Time) (bool, error) {
	p, ok := t.payments[id]
	if !ok || p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = model.PaymentStatusPaid
	p.PaidAt = &at
	return true, nil
}

var _ storage.Store = (*fakeStore)(nil)
var _ storage.Tx = (*fakeTx)(nil)
