package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/heartmarshall/gradebook-backend/internal/domain"
	"github.com/heartmarshall/gradebook-backend/internal/service/stats"
)

// gradebookService defines the minimal interface needed by GradebookHandler.
type gradebookService interface {
	Students() []domain.Student
	Subjects() []domain.Subject
	Grades() []domain.GradeWithDetails
	Dashboard(recent int) stats.Summary

	AddStudent(ctx context.Context, input domain.StudentInput) (domain.Student, error)
	UpdateStudent(ctx context.Context, id uuid.UUID, params domain.StudentUpdate) (domain.Student, error)
	DeleteStudent(ctx context.Context, id uuid.UUID) error

	AddSubject(ctx context.Context, input domain.SubjectInput) (domain.Subject, error)
	UpdateSubject(ctx context.Context, id uuid.UUID, params domain.SubjectUpdate) (domain.Subject, error)
	DeleteSubject(ctx context.Context, id uuid.UUID) error

	AddGrade(ctx context.Context, input domain.GradeInput) (domain.GradeWithDetails, error)
	UpdateGrade(ctx context.Context, id uuid.UUID, params domain.GradeUpdate) (domain.GradeWithDetails, error)
	DeleteGrade(ctx context.Context, id uuid.UUID) error
}

// notificationSource exposes recently sent notifications.
type notificationSource interface {
	Recent() []domain.Notification
}

// GradebookHandler serves the students, subjects, grades and dashboard
// endpoints from one long-lived, synchronized gradebook service.
type GradebookHandler struct {
	svc           gradebookService
	notifications notificationSource
	recent        int
	log           *slog.Logger
}

// NewGradebookHandler creates a GradebookHandler. recent is the default
// number of latest grades on the dashboard.
func NewGradebookHandler(svc gradebookService, notifications notificationSource, recent int, logger *slog.Logger) *GradebookHandler {
	return &GradebookHandler{
		svc:           svc,
		notifications: notifications,
		recent:        recent,
		log:           logger.With("handler", "gradebook"),
	}
}

// ---------------------------------------------------------------------------
// Students
// ---------------------------------------------------------------------------

// ListStudents handles GET /api/students.
func (h *GradebookHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, mapSlice(h.svc.Students(), toStudentResponse))
}

// CreateStudent handles POST /api/students.
func (h *GradebookHandler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req createStudentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	st, err := h.svc.AddStudent(r.Context(), domain.StudentInput{
		Name:      req.Name,
		Email:     req.Email,
		StudentID: req.StudentID,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toStudentResponse(st))
}

// UpdateStudent handles PATCH /api/students/{id}.
func (h *GradebookHandler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updateStudentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	st, err := h.svc.UpdateStudent(r.Context(), id, domain.StudentUpdate{
		Name:      req.Name,
		Email:     req.Email,
		StudentID: req.StudentID,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toStudentResponse(st))
}

// DeleteStudent handles DELETE /api/students/{id}.
func (h *GradebookHandler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteStudent(r.Context(), id); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Subjects
// ---------------------------------------------------------------------------

// ListSubjects handles GET /api/subjects.
func (h *GradebookHandler) ListSubjects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, mapSlice(h.svc.Subjects(), toSubjectResponse))
}

// CreateSubject handles POST /api/subjects.
func (h *GradebookHandler) CreateSubject(w http.ResponseWriter, r *http.Request) {
	var req createSubjectRequest
	if !decodeBody(w, r, &req) {
		return
	}

	sub, err := h.svc.AddSubject(r.Context(), domain.SubjectInput{
		Name:    req.Name,
		Code:    req.Code,
		Credits: req.Credits,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSubjectResponse(sub))
}

// UpdateSubject handles PATCH /api/subjects/{id}.
func (h *GradebookHandler) UpdateSubject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updateSubjectRequest
	if !decodeBody(w, r, &req) {
		return
	}

	sub, err := h.svc.UpdateSubject(r.Context(), id, domain.SubjectUpdate{
		Name:    req.Name,
		Code:    req.Code,
		Credits: req.Credits,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSubjectResponse(sub))
}

// DeleteSubject handles DELETE /api/subjects/{id}.
func (h *GradebookHandler) DeleteSubject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteSubject(r.Context(), id); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Grades
// ---------------------------------------------------------------------------

// ListGrades handles GET /api/grades.
func (h *GradebookHandler) ListGrades(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, mapSlice(h.svc.Grades(), toGradeResponse))
}

// CreateGrade handles POST /api/grades. The letter grade is derived.
func (h *GradebookHandler) CreateGrade(w http.ResponseWriter, r *http.Request) {
	var req createGradeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	g, err := h.svc.AddGrade(r.Context(), domain.GradeInput{
		StudentID: req.StudentID,
		SubjectID: req.SubjectID,
		Grade:     req.Grade,
		Semester:  req.Semester,
		Year:      req.Year,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toGradeResponse(g))
}

// UpdateGrade handles PATCH /api/grades/{id}.
func (h *GradebookHandler) UpdateGrade(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updateGradeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	g, err := h.svc.UpdateGrade(r.Context(), id, domain.GradeUpdate{
		StudentID: req.StudentID,
		SubjectID: req.SubjectID,
		Grade:     req.Grade,
		Semester:  req.Semester,
		Year:      req.Year,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toGradeResponse(g))
}

// DeleteGrade handles DELETE /api/grades/{id}.
func (h *GradebookHandler) DeleteGrade(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteGrade(r.Context(), id); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Dashboard & notifications
// ---------------------------------------------------------------------------

// Dashboard handles GET /api/dashboard?recent=N.
func (h *GradebookHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	recent := h.recent
	if v := r.URL.Query().Get("recent"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "recent must be a non-negative integer")
			return
		}
		recent = n
	}

	writeJSON(w, http.StatusOK, ToDashboardResponse(h.svc.Dashboard(recent)))
}

// Notifications handles GET /api/notifications, newest last.
func (h *GradebookHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, mapSlice(h.notifications.Recent(), ToNotificationResponse))
}
