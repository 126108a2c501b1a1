package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"byamn-backend/internal/middleware"
	"byamn-backend/internal/services"
)

// PlayerHandler serves the lesson player. The client reports playback
// events and the server owns the watch counter; unlock decisions made
// here are advisory, the completion endpoint re-validates.
type PlayerHandler struct {
	player *services.PlayerService
}

func NewPlayerHandler(player *services.PlayerService) *PlayerHandler {
	return &PlayerHandler{player: player}
}

func (h *PlayerHandler) lessonParams(w http.ResponseWriter, r *http.Request) (courseID, lessonID uuid.UUID, ok bool) {
	courseID, err := uuid.Parse(chi.URLParam(r, "courseID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid course ID", r))
		return uuid.Nil, uuid.Nil, false
	}
	lessonID, err = uuid.Parse(chi.URLParam(r, "lessonID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid lesson ID", r))
		return uuid.Nil, uuid.Nil, false
	}
	return courseID, lessonID, true
}

func (h *PlayerHandler) View(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	courseID, lessonID, ok := h.lessonParams(w, r)
	if !ok {
		return
	}

	view, err := h.player.ViewLesson(r.Context(), userID, courseID, lessonID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func (h *PlayerHandler) WatchEvent(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	courseID, lessonID, ok := h.lessonParams(w, r)
	if !ok {
		return
	}

	var req struct {
		Event string `json:"event"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	view, err := h.player.WatchEvent(r.Context(), userID, courseID, lessonID, req.Event)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"watched_seconds": view.WatchedSeconds,
		"gating":          view.Gating,
	})
}

func (h *PlayerHandler) Complete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	courseID, lessonID, ok := h.lessonParams(w, r)
	if !ok {
		return
	}

	enrollment, err := h.player.CompleteLesson(r.Context(), userID, courseID, lessonID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"enrollment": enrollment,
	})
}
