package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"byamn-backend/internal/models"
	"byamn-backend/internal/repository"
	"byamn-backend/internal/services"
)

// AdminHandler manages the course catalog. Lesson creation pulls video
// metadata from YouTube so duration does not have to be typed by hand.
type AdminHandler struct {
	courses *repository.CourseRepo
	youtube *services.YouTubeService
}

func NewAdminHandler(courses *repository.CourseRepo, youtube *services.YouTubeService) *AdminHandler {
	return &AdminHandler{courses: courses, youtube: youtube}
}

func (h *AdminHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	fields := map[string]string{}
	if strings.TrimSpace(req.Title) == "" {
		fields["title"] = "title is required"
	}
	if strings.TrimSpace(req.InstructorName) == "" {
		fields["instructor_name"] = "instructor_name is required"
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	course := &models.Course{
		Title:          strings.TrimSpace(req.Title),
		Description:    req.Description,
		InstructorName: strings.TrimSpace(req.InstructorName),
		ThumbnailURL:   req.ThumbnailURL,
	}
	if err := h.courses.Create(r.Context(), course); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create course", r))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"course": course})
}

func (h *AdminHandler) AddLesson(w http.ResponseWriter, r *http.Request) {
	courseID, err := uuid.Parse(chi.URLParam(r, "courseID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid course ID", r))
		return
	}

	var req models.CreateLessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	fields := map[string]string{}
	if strings.TrimSpace(req.Title) == "" {
		fields["title"] = "title is required"
	}
	if strings.TrimSpace(req.VideoURL) == "" {
		fields["video_url"] = "video_url is required"
	}
	if req.MinWatchTimeSeconds < 0 {
		fields["min_watch_time_seconds"] = "min_watch_time_seconds must not be negative"
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	lesson := &models.Lesson{
		CourseID:            courseID,
		Title:               strings.TrimSpace(req.Title),
		VideoURL:            strings.TrimSpace(req.VideoURL),
		DurationSeconds:     req.DurationSeconds,
		MinWatchTimeSeconds: req.MinWatchTimeSeconds,
	}

	// Fill the duration from YouTube when the admin left it out. The
	// lookup failing is not fatal, the lesson just keeps a zero duration.
	if lesson.DurationSeconds == 0 && h.youtube != nil {
		if meta, err := h.youtube.GetVideoMetadata(lesson.VideoURL); err == nil {
			lesson.DurationSeconds = meta.DurationSeconds
		}
	}

	if err := h.courses.AddLesson(r.Context(), lesson); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to add lesson", r))
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"lesson": lesson})
}

func (h *AdminHandler) Publish(w http.ResponseWriter, r *http.Request) {
	h.setPublished(w, r, true)
}

func (h *AdminHandler) Unpublish(w http.ResponseWriter, r *http.Request) {
	h.setPublished(w, r, false)
}

func (h *AdminHandler) setPublished(w http.ResponseWriter, r *http.Request, published bool) {
	courseID, err := uuid.Parse(chi.URLParam(r, "courseID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid course ID", r))
		return
	}

	if err := h.courses.SetPublished(r.Context(), courseID, published); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update course", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"is_published": published})
}
