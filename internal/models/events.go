package models

import "github.com/google/uuid"

// WebSocket message types
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// GatingUpdate is pushed to the player while a lesson is being watched.
type GatingUpdate struct {
	CourseID         uuid.UUID `json:"course_id"`
	LessonID         uuid.UUID `json:"lesson_id"`
	WatchedSeconds   float64   `json:"watched_seconds"`
	State            string    `json:"state"` // "completed" | "unlocked" | "locked"
	RemainingSeconds int       `json:"remaining_seconds,omitempty"`
}

// ProgressUpdate is pushed after a lesson completion is recorded.
type ProgressUpdate struct {
	CourseID   uuid.UUID `json:"course_id"`
	LessonID   uuid.UUID `json:"lesson_id"`
	Progress   int       `json:"progress"`
	CourseDone bool      `json:"course_done"`
	TotalDone  int       `json:"total_done"`
	TotalCount int       `json:"total_count"`
}
