// Package handlers translates HTTP requests to and from the service layer.
// Transport concerns only: parsing, status mapping, no business rules.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/atelierhub/enrollment_service/internal/service"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Handler struct {
	enrollments *service.EnrollmentService
	cleanup     *service.CleanupService
	workshops   *service.WorkshopService
	logger      *zap.Logger
}

func New(
	enrollments *service.EnrollmentService,
	cleanup *service.CleanupService,
	workshops *service.WorkshopService,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		enrollments: enrollments,
		cleanup:     cleanup,
		workshops:   workshops,
		logger:      logger,
	}
}

// Router builds the chi router with the full route table.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(h.accessLog)

	r.Get("/health", h.health)

	r.Route("/users", func(r chi.Router) {
		r.Post("/", h.createUser)
		r.Delete("/{id}", h.deleteUser)
		r.Get("/{id}/enrollments", h.listUserEnrollments)
	})

	r.Route("/workshops", func(r chi.Router) {
		r.Post("/", h.createWorkshop)
		r.Get("/", h.listWorkshops)
		r.Get("/{id}", h.getWorkshop)
		r.Delete("/{id}", h.deleteWorkshop)
		r.Post("/{id}/cycles", h.createCycle)
		r.Get("/{id}/cycles", h.listWorkshopCycles)
	})

	r.Route("/cycles", func(r chi.Router) {
		r.Get("/{id}", h.getCycle)
		r.Delete("/{id}", h.deleteCycle)
		r.Post("/{id}/open", h.openCycle)
		r.Post("/{id}/close", h.closeCycle)
		r.Post("/{id}/sessions", h.createSession)
		r.Get("/{id}/sessions", h.listCycleSessions)
		r.Post("/{id}/assignments", h.assignInstructor)
		r.Get("/{id}/enrollments", h.listCycleEnrollments)
		r.Post("/{id}/join", h.joinCycle)
		r.Post("/{id}/cancel", h.cancelMyEnrollment)
	})

	r.Delete("/enrollments/{id}", h.cancelEnrollment)
	r.Post("/payments/{id}/paid", h.markPaymentPaid)

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// Unexpected errors become a generic 500; their cause lives only in the
// audit/log stream.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, service.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "forbidden"})
	case errors.Is(err, service.ErrCycleClosed),
		errors.Is(err, service.ErrCapacityExceeded),
		errors.Is(err, service.ErrDuplicateEnrollment),
		errors.Is(err, service.ErrLastAdmin),
		errors.Is(err, service.ErrInstructorHasAssignments):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Retryable: true})
	default:
		h.logger.Error("unhandled service error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// callerID reads the authenticated user id. Authentication itself is an
// external collaborator; upstream middleware is expected to have validated
// the identity carried in X-User-ID.
func callerID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("missing or invalid X-User-ID header")
	}
	return id, nil
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
