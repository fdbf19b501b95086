package handlers

import (
	"net/http"

	"github.com/atelierhub/enrollment_service/internal/model"
)

// joinCycle handles POST /cycles/{id}/join.
func (h *Handler) joinCycle(w http.ResponseWriter, r *http.Request) {
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

	enrollment, err := h.enrollments.JoinCycle(r.Context(), caller, cycleID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, enrollment)
}

// cancelMyEnrollment handles POST /cycles/{id}/cancel.
func (h *Handler) cancelMyEnrollment(w http.ResponseWriter, r *http.Request) {
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

	if err := h.enrollments.CancelMyEnrollment(r.Context(), caller, cycleID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// cancelEnrollment handles DELETE /enrollments/{id} (staff or owner).
func (h *Handler) cancelEnrollment(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}
	enrollmentID, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid enrollment id"})
		return
	}

	if err := h.enrollments.CancelEnrollment(r.Context(), caller, enrollmentID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// markPaymentPaid handles POST /payments/{id}/paid.
func (h *Handler) markPaymentPaid(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}
	paymentID, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid payment id"})
		return
	}

	payment, err := h.enrollments.MarkPaymentPaid(r.Context(), caller, paymentID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

// listCycleEnrollments handles GET /cycles/{id}/enrollments.
func (h *Handler) listCycleEnrollments(w http.ResponseWriter, r *http.Request) {
	cycleID, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid cycle id"})
		return
	}

	enrollments, err := h.enrollments.ListCycleEnrollments(r.Context(), cycleID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if enrollments == nil {
		enrollments = []*model.Enrollment{}
	}
	writeJSON(w, http.StatusOK, enrollments)
}

// listUserEnrollments handles GET /users/{id}/enrollments.
func (h *Handler) listUserEnrollments(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid user id"})
		return
	}

	enrollments, err := h.enrollments.ListUserEnrollments(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if enrollments == nil {
		enrollments = []*model.Enrollment{}
	}
	writeJSON(w, http.StatusOK, enrollments)
}
