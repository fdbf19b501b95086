package handlers

import (
	"net/http"
	"time"

	"github.com/atelierhub/enrollment_service/internal/model"
)

// createWorkshop handles POST /workshops.
func (h *Handler) createWorkshop(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}

	var req struct {
		Title           string `json:"title"`
		Description     string `json:"description"`
		PriceCents      int64  `json:"price_cents"`
		MaxParticipants int    `json:"max_participants"`
		AddressID       *int64 `json:"address_id"`
		InstructorID    *int64 `json:"instructor_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	workshop := &model.Workshop{
		Title:           req.Title,
		Description:     req.Description,
		PriceCents:      req.PriceCents,
		MaxParticipants: req.MaxParticipants,
		AddressID:       req.AddressID,
		InstructorID:    req.InstructorID,
	}
	if err := h.workshops.CreateWorkshop(r.Context(), caller, workshop); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, workshop)
}

// listWorkshops handles GET /workshops.
func (h *Handler) listWorkshops(w http.ResponseWriter, r *http.Request) {
	workshops, err := h.workshops.ListWorkshops(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if workshops == nil {
		workshops = []*model.Workshop{}
	}
	writeJSON(w, http.StatusOK, workshops)
}

// getWorkshop handles GET /workshops/{id}.
func (h *Handler) getWorkshop(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid workshop id"})
		return
	}

	workshop, err := h.workshops.GetWorkshop(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, workshop)
}

// createCycle handles POST /workshops/{id}/cycles.
func (h *Handler) createCycle(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}
	workshopID, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid workshop id"})
		return
	}

	var req struct {
		StartDate               time.Time  `json:"start_date"`
		EndDate                 *time.Time `json:"end_date"`
		IsOpenForEnrollment     bool       `json:"is_open_for_enrollment"`
		MaxParticipantsOverride *int       `json:"max_participants_override"`
		AddressOverrideID       *int64     `json:"address_override_id"`
		InstructorOverrideID    *int64     `json:"instructor_override_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	cycle := &model.WorkshopCycle{
		WorkshopID:              workshopID,
		StartDate:               req.StartDate,
		EndDate:                 req.EndDate,
		IsOpenForEnrollment:     req.IsOpenForEnrollment,
		MaxParticipantsOverride: req.MaxParticipantsOverride,
		AddressOverrideID:       req.AddressOverrideID,
		InstructorOverrideID:    req.InstructorOverrideID,
	}
	if err := h.workshops.CreateCycle(r.Context(), caller, cycle); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cycle)
}

// listWorkshopCycles handles GET /workshops/{id}/cycles.
func (h *Handler) listWorkshopCycles(w http.ResponseWriter, r *http.Request) {
	workshopID, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid workshop id"})
		return
	}

	cycles, err := h.workshops.ListWorkshopCycles(r.Context(), workshopID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if cycles == nil {
		cycles = []*model.WorkshopCycle{}
	}
	writeJSON(w, http.StatusOK, cycles)
}

// getCycle handles GET /cycles/{id}; the response includes the resolved
// effective settings so clients need not duplicate the override chain.
func (h *Handler) getCycle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid cycle id"})
		return
	}

	cycle, eff, err := h.workshops.GetCycle(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"cycle": cycle,
		"effective": map[string]any{
			"max_participants": eff.MaxParticipants,
			"unlimited":        !eff.CapacityLimited(),
			"price_cents":      eff.PriceCents,
			"address_id":       eff.AddressID,
			"instructor_id":    eff.InstructorID,
		},
	})
}

// openCycle handles POST /cycles/{id}/open.
func (h *Handler) openCycle(w http.ResponseWriter, r *http.Request) {
	h.setCycleGate(w, r, true)
}

// closeCycle handles POST /cycles/{id}/close.
func (h *Handler) closeCycle(w http.ResponseWriter, r *http.Request) {
	h.setCycleGate(w, r, false)
}

func (h *Handler) setCycleGate(w http.ResponseWriter, r *http.Request, open bool) {
	caller, err := callerID(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}
	cycleID, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid cycle id"})
		return
	}

	if err := h.workshops.SetCycleOpen(r.Context(), caller, cycleID, open); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_open_for_enrollment": open})
}

// createSession handles POST /cycles/{id}/sessions.
func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}
	cycleID, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid cycle id"})
		return
	}

	var req struct {
		StartsAt time.Time `json:"starts_at"`
		EndsAt   time.Time `json:"ends_at"`
		Note     string    `json:"note"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	session := &model.Session{
		WorkshopCycleID: cycleID,
		StartsAt:        req.StartsAt,
		EndsAt:          req.EndsAt,
		Note:            req.Note,
	}
	if err := h.workshops.CreateSession(r.Context(), caller, session); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// listCycleSessions handles GET /cycles/{id}/sessions.
func (h *Handler) listCycleSessions(w http.ResponseWriter, r *http.Request) {
	cycleID, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid cycle id"})
		return
	}

	sessions, err := h.workshops.ListCycleSessions(r.Context(), cycleID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if sessions == nil {
		sessions = []*model.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

// assignInstructor handles POST /cycles/{id}/assignments.
func (h *Handler) assignInstructor(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}
	cycleID, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid cycle id"})
		return
	}

	var req struct {
		InstructorID int64  `json:"instructor_id"`
		Role         string `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	assignment := &model.InstructorAssignment{
		WorkshopCycleID: cycleID,
		InstructorID:    req.InstructorID,
		Role:            req.Role,
	}
	if err := h.workshops.AssignInstructor(r.Context(), caller, assignment); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, assignment)
}

// createUser handles POST /users.
func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	user := &model.User{Name: req.Name, Email: req.Email, Role: model.UserRole(req.Role)}
	if err := h.workshops.CreateUser(r.Context(), user); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// deleteWorkshop handles DELETE /workshops/{id}.
func (h *Handler) deleteWorkshop(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid workshop id"})
		return
	}

	if err := h.cleanup.DeleteWorkshop(r.Context(), caller, id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// deleteCycle handles DELETE /cycles/{id}.
func (h *Handler) deleteCycle(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid cycle id"})
		return
	}

	if err := h.cleanup.DeleteCycle(r.Context(), caller, id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// deleteUser handles DELETE /users/{id}.
func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid user id"})
		return
	}

	if err := h.cleanup.DeleteUser(r.Context(), caller, id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
