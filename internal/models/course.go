package models

import (
	"time"

	"github.com/google/uuid"
)

type Course struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	InstructorName string    `json:"instructor_name"`
	ThumbnailURL   *string   `json:"thumbnail_url"`
	IsPublished    bool      `json:"is_published"`
	CreatedAt      time.Time `json:"created_at"`

	// Populated by CourseRepo.GetWithLessons, ordered by position.
	Lessons []*Lesson `json:"lessons,omitempty"`
}

type Lesson struct {
	ID       uuid.UUID `json:"id"`
	CourseID uuid.UUID `json:"course_id"`
	Position int       `json:"position"`
	Title    string    `json:"title"`
	VideoURL string    `json:"video_url"`

	DurationSeconds int `json:"duration_seconds"`

	// Seconds of playback required before the lesson may be marked
	// complete. Zero means any visit suffices.
	MinWatchTimeSeconds int `json:"min_watch_time_seconds"`

	CreatedAt time.Time `json:"created_at"`
}

type CreateCourseRequest struct {
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	InstructorName string  `json:"instructor_name"`
	ThumbnailURL   *string `json:"thumbnail_url"`
}

type CreateLessonRequest struct {
	Title               string `json:"title"`
	VideoURL            string `json:"video_url"`
	DurationSeconds     int    `json:"duration_seconds"`
	MinWatchTimeSeconds int    `json:"min_watch_time_seconds"`
}
