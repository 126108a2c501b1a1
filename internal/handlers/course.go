package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"byamn-backend/internal/middleware"
	"byamn-backend/internal/repository"
	"byamn-backend/internal/services"
)

type CourseHandler struct {
	courses     *repository.CourseRepo
	enrollments *repository.EnrollmentRepo
	enrollSvc   *services.EnrollmentService
}

func NewCourseHandler(courses *repository.CourseRepo, enrollments *repository.EnrollmentRepo, enrollSvc *services.EnrollmentService) *CourseHandler {
	return &CourseHandler{courses: courses, enrollments: enrollments, enrollSvc: enrollSvc}
}

func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courses.ListPublished(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load courses", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"courses": courses,
	})
}

// Get returns the course with its lessons ordered by position. When the
// caller is enrolled the enrollment rides along so the catalog page can
// show per-course progress.
func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	courseID, err := uuid.Parse(chi.URLParam(r, "courseID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid course ID", r))
		return
	}

	course, err := h.courses.GetWithLessons(r.Context(), courseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Course not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load course", r))
		return
	}

	resp := map[string]interface{}{"course": course}
	enrollment, err := h.enrollments.GetByUserAndCourse(r.Context(), userID, courseID)
	if err == nil {
		resp["enrollment"] = enrollment
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *CourseHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	courseID, err := uuid.Parse(chi.URLParam(r, "courseID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid course ID", r))
		return
	}

	course, err := h.courses.GetByID(r.Context(), courseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Course not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load course", r))
		return
	}
	if !course.IsPublished {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Course not found", r))
		return
	}

	enrollment, err := h.enrollSvc.EnsureEnrollment(r.Context(), userID, courseID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"enrollment": enrollment,
	})
}

func (h *CourseHandler) MyCourses(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	enrolled, err := h.enrollments.ListByUser(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load enrollments", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"courses": enrolled,
	})
}
